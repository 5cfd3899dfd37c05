package meta

import (
	"slices"

	"github.com/garagon/tatu/internal/types"
)

// FullReportLimit is the number of findings kept in a full report.
const FullReportLimit = 20

// Sort orders findings by severity, most severe first. Findings of equal
// severity keep their relative order.
func Sort(findings []types.Finding) {
	slices.SortStableFunc(findings, func(a, b types.Finding) int {
		return int(b.Severity) - int(a.Severity)
	})
}

// Aggregate concatenates scanner outputs in argument order and sorts the
// result. The inputs are not modified.
func Aggregate(groups ...[]types.Finding) []types.Finding {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]types.Finding, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	Sort(out)
	return out
}

// BuildReport grades every finding in result and returns the sorted report.
// With limit > 0 the finding list is cut to limit entries and the rest are
// counted in Omitted; the score always covers the full set.
func BuildReport(result *types.ScanResult, limit int) *types.Report {
	findings := Aggregate(result.Findings)
	g := Grade(findings)

	report := &types.Report{
		ScanID:       result.ScanID,
		Root:         result.Root,
		Findings:     findings,
		Total:        len(findings),
		Counts:       g.Counts,
		Score:        g.Score,
		Grade:        g.Grade,
		Summary:      g.Summary,
		FilesScanned: result.FilesScanned,
		RulesLoaded:  result.RulesLoaded,
		Permissions:  result.Permissions,
		Duration:     result.Duration,
	}
	Truncate(report, limit)
	return report
}

// Truncate cuts the report's finding list to limit entries and adds the cut
// entries to Omitted. A limit of 0 keeps everything.
func Truncate(report *types.Report, limit int) {
	if limit <= 0 || len(report.Findings) <= limit {
		return
	}
	report.Omitted += len(report.Findings) - limit
	report.Findings = report.Findings[:limit]
}

// FilterMinSeverity returns the findings at or above threshold. It is a
// presentation filter: grading happens before it is applied.
func FilterMinSeverity(findings []types.Finding, threshold types.Severity) []types.Finding {
	if threshold <= types.SeverityLow {
		return findings
	}
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity >= threshold {
			out = append(out, f)
		}
	}
	return out
}
