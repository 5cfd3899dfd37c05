package output

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/garagon/tatu/internal/types"
)

// ToolVersion is the tatu version reported in SARIF output.
var ToolVersion = "dev"

const sarifSchema = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json"

// SARIFFormatter outputs findings in SARIF 2.1.0 format for GitHub Code Scanning.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	FullDescription  *sarifMessage       `json:"fullDescription,omitempty"`
	HelpURI          string              `json:"helpUri,omitempty"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags             []string `json:"tags,omitempty"`
	SecuritySeverity string   `json:"security-severity,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func (f *SARIFFormatter) Format(w io.Writer, report *types.Report) error {
	// Collect unique rules in order
	ruleIndex := map[string]int{}
	var rules []sarifRule
	for _, finding := range report.Findings {
		if _, ok := ruleIndex[finding.ID]; ok {
			continue
		}
		ruleIndex[finding.ID] = len(rules)
		rule := sarifRule{
			ID:               finding.ID,
			Name:             finding.Name,
			ShortDescription: sarifMessage{Text: finding.Name},
			DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(finding.Severity)},
			Properties: sarifRuleProperties{
				Tags:             []string{"security", string(finding.Category)},
				SecuritySeverity: securitySeverity(finding.Severity),
			},
		}
		if finding.Description != "" {
			rule.FullDescription = &sarifMessage{Text: finding.Description}
		}
		if finding.CWE != "" {
			rule.Properties.Tags = append(rule.Properties.Tags, finding.CWE)
			rule.HelpURI = cweURL(finding.CWE)
		}
		rules = append(rules, rule)
	}

	results := make([]sarifResult, 0, len(report.Findings))
	for _, finding := range report.Findings {
		msg := finding.Name
		if finding.Match != "" {
			msg += ": " + finding.Match
		}
		results = append(results, sarifResult{
			RuleID:    finding.ID,
			RuleIndex: ruleIndex[finding.ID],
			Level:     severityToLevel(finding.Severity),
			Message:   sarifMessage{Text: msg},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: finding.File},
						// File-level findings (line 0) anchor to the first line.
						Region: sarifRegion{StartLine: max(finding.Line, 1)},
					},
				},
			},
		})
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "tatu",
						Version:        ToolVersion,
						InformationURI: "https://github.com/garagon/tatu",
						Rules:          rules,
					},
				},
				Results: results,
				Properties: map[string]any{
					"scan_id":     report.ScanID,
					"score":       report.Score,
					"grade":       report.Grade,
					"omitted":     report.Omitted,
					"duration_ms": report.Duration.Milliseconds(),
				},
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func severityToLevel(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium:
		return "warning"
	case types.SeverityLow:
		return "note"
	default:
		return "none"
	}
}

// securitySeverity maps to the numeric scale GitHub code scanning uses to
// bucket alerts.
func securitySeverity(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return "9.5"
	case types.SeverityHigh:
		return "7.5"
	case types.SeverityMedium:
		return "5.0"
	default:
		return "2.0"
	}
}

func cweURL(cwe string) string {
	id, ok := strings.CutPrefix(strings.ToUpper(cwe), "CWE-")
	if !ok || id == "" {
		return ""
	}
	return "https://cwe.mitre.org/data/definitions/" + id + ".html"
}
