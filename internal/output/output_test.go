package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/garagon/tatu/internal/output"
	"github.com/garagon/tatu/internal/types"
	"github.com/stretchr/testify/require"
)

func sampleReport() *types.Report {
	return &types.Report{
		ScanID: "0b7f6a43-3c56-4a7e-9d0e-6f1f3c1d2e4a",
		Root:   "testdata/app",
		Findings: []types.Finding{
			{
				ID:          "stripe-secret",
				Name:        "Stripe live secret key",
				Severity:    types.SeverityCritical,
				Category:    types.CategorySecret,
				File:        "config.js",
				Line:        1,
				Match:       `const key = "sk_l****";`,
				Description: "A live Stripe secret key can move money on the account.",
			},
			{
				ID:       "sql-injection-template",
				Name:     "SQL built from template literal",
				Severity: types.SeverityCritical,
				Category: types.CategoryVulnerability,
				File:     "db.js",
				Line:     4,
				Match:    "db.query(`SELECT * FROM users WHERE id = ${id}`)",
				CWE:      "CWE-89",
			},
			{
				ID:       "cors-wildcard",
				Name:     "CORS allows any origin",
				Severity: types.SeverityMedium,
				Category: types.CategoryConfig,
				File:     "server.js",
				Match:    "line 3: cors({ origin: '*' })",
			},
		},
		Total:        3,
		Counts:       types.Counts{Critical: 2, Medium: 1},
		Score:        67,
		Grade:        "D",
		Summary:      "Found 2 critical and 0 high severity issues.",
		FilesScanned: 3,
		RulesLoaded:  46,
		Permissions:  types.PermissionsChecked,
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "terminal", "JSON", "sarif"} {
		f, err := output.New(name, true, false)
		require.NoError(t, err, name)
		require.NotNil(t, f)
	}
	_, err := output.New("markdown", true, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown format")
}

func TestTerminalFormatterNoFindings(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	report := &types.Report{
		Score:        100,
		Grade:        "A",
		Summary:      "No critical or high severity issues found.",
		FilesScanned: 5,
		RulesLoaded:  46,
		Root:         "testdata/benign",
	}
	require.NoError(t, f.Format(&buf, report))
	out := buf.String()
	require.Contains(t, out, "No security issues found")
	require.Contains(t, out, "TATU SECURITY REPORT")
	require.Contains(t, out, "Grade A")
	require.Contains(t, out, "Score 100/100")
	require.Contains(t, out, "No critical or high severity issues found.")
	require.Contains(t, out, "5 files scanned")
	require.Contains(t, out, "0 findings")
	require.Contains(t, out, "Target: testdata/benign")
	require.NotContains(t, out, "\033[")
}

func TestTerminalFormatterWithFindings(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	out := buf.String()

	require.Contains(t, out, "Grade D")
	require.Contains(t, out, "Score 67/100")
	require.Contains(t, out, "CRITICAL (2)")
	require.Contains(t, out, "MEDIUM (1)")
	require.Contains(t, out, "stripe-secret")
	require.Contains(t, out, "L1")
	require.Contains(t, out, "CWE-89")
	// Critical findings show the masked match preview
	require.Contains(t, out, "sk_l****")
	require.NotContains(t, out, "sk_live")
	// Config findings are file-level
	require.Contains(t, out, "file")
	require.Contains(t, out, "permissions checked")
	require.Contains(t, out, "TOP AFFECTED FILES")
}

func TestTerminalFormatterOmitted(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	report := sampleReport()
	report.Total = 25
	report.Omitted = 22
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, report))
	require.Contains(t, buf.String(), "+22 more finding(s) not shown")
	require.Contains(t, buf.String(), "25 findings")
}

func TestTerminalFormatterDashboard(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	out := buf.String()
	require.Contains(t, out, "█")
	require.Contains(t, out, "░")
	require.Contains(t, out, "3 findings")
}

func TestTerminalFormatterVerbose(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true, Verbose: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	require.Contains(t, buf.String(), "can move money")
	require.Contains(t, buf.String(), "cors({ origin: '*' })")

	f = &output.TerminalFormatter{NoColor: true}
	buf.Reset()
	require.NoError(t, f.Format(&buf, sampleReport()))
	require.NotContains(t, buf.String(), "can move money")
}

func TestTerminalFormatterDuration(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	report := &types.Report{Grade: "A", Score: 100, FilesScanned: 3, Duration: 1500 * time.Millisecond}
	require.NoError(t, f.Format(&buf, report))
	// Duration appears in both header and footer
	require.Equal(t, 2, strings.Count(buf.String(), "1.50s"))
}

func TestJSONFormatter(t *testing.T) {
	f := &output.JSONFormatter{}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))

	var parsed types.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed.Findings, 3)
	require.Equal(t, "stripe-secret", parsed.Findings[0].ID)
	require.Equal(t, types.SeverityCritical, parsed.Findings[0].Severity)
	require.Equal(t, "CWE-89", parsed.Findings[1].CWE)
	require.Equal(t, "D", parsed.Grade)
	require.Equal(t, 67, parsed.Score)
	require.Equal(t, 2, parsed.Counts.Critical)
}

func TestJSONFormatterEmptyFindingsArray(t *testing.T) {
	f := &output.JSONFormatter{}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, &types.Report{Grade: "A", Score: 100}))
	require.Contains(t, buf.String(), `"findings": []`)
}

func TestSARIFFormatter(t *testing.T) {
	f := &output.SARIFFormatter{}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Equal(t, "2.1.0", parsed["version"])
	require.Contains(t, parsed["$schema"], "sarif-schema-2.1.0")

	runs := parsed["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	require.Equal(t, "tatu", driver["name"])

	rules := driver["rules"].([]any)
	require.Len(t, rules, 3)
	sqlRule := rules[1].(map[string]any)
	require.Equal(t, "sql-injection-template", sqlRule["id"])
	require.Equal(t, "https://cwe.mitre.org/data/definitions/89.html", sqlRule["helpUri"])
	tags := sqlRule["properties"].(map[string]any)["tags"].([]any)
	require.Contains(t, tags, "CWE-89")
	require.Contains(t, tags, "vulnerability")

	results := run["results"].([]any)
	require.Len(t, results, 3)
	r0 := results[0].(map[string]any)
	require.Equal(t, "stripe-secret", r0["ruleId"])
	require.Equal(t, "error", r0["level"])

	// Line 0 findings are anchored to line 1
	r2 := results[2].(map[string]any)
	require.Equal(t, "warning", r2["level"])
	region := r2["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)["region"].(map[string]any)
	require.Equal(t, float64(1), region["startLine"])

	props := run["properties"].(map[string]any)
	require.Equal(t, "D", props["grade"])
	require.Equal(t, float64(67), props["score"])
}

func TestSARIFFormatterVersion(t *testing.T) {
	original := output.ToolVersion
	defer func() { output.ToolVersion = original }()

	output.ToolVersion = "1.2.3"
	f := &output.SARIFFormatter{}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, &types.Report{Grade: "A", Score: 100, Duration: 1500 * time.Millisecond}))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	run := parsed["runs"].([]any)[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	require.Equal(t, "1.2.3", driver["version"])
	require.Equal(t, float64(1500), run["properties"].(map[string]any)["duration_ms"])
	require.Empty(t, run["results"])
}
