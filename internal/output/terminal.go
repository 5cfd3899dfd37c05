package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/garagon/tatu/internal/types"
)

// ANSI color codes
const (
	reset     = "\033[0m"
	bold      = "\033[1m"
	dim       = "\033[2m"
	underline = "\033[4m"
	red       = "\033[31m"
	green     = "\033[32m"
	yellow    = "\033[33m"
	blue      = "\033[34m"
	cyan      = "\033[36m"
)

const (
	barWidth     = 40
	lineWidth    = 72
	ruleIDWidth  = 26
	nameWidth    = 34
	previewWidth = 60
	topFiles     = 5
)

// TerminalFormatter outputs a report in a triage-optimized format: grade
// banner, severity dashboard, findings grouped by severity then file.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) color(code, text string) string {
	if f.NoColor {
		return text
	}
	return code + text + reset
}

func (f *TerminalFormatter) Format(w io.Writer, report *types.Report) error {
	if os.Getenv("NO_COLOR") != "" {
		f.NoColor = true
	}

	f.printHeader(w, report)
	f.printGrade(w, report)

	if report.Total == 0 {
		fmt.Fprintf(w, "\n  %s No security issues found.\n", f.color(green, "✔"))
	} else {
		f.printDashboard(w, report.Counts, report.Total)

		for _, sev := range types.Severities {
			filtered := filterBySeverity(report.Findings, sev)
			if len(filtered) > 0 {
				f.printSeveritySection(w, sev, filtered)
			}
		}
		if report.Omitted > 0 {
			fmt.Fprintf(w, "\n  %s\n", f.color(dim, fmt.Sprintf("+%d more finding(s) not shown (use --all for the full list)", report.Omitted)))
		}

		f.printTopFiles(w, report.Findings)
	}

	f.printFooter(w, report)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, report *types.Report) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))
	fmt.Fprintf(w, "  %s\n", f.color(bold, "TATU SECURITY REPORT"))

	parts := []string{}
	if report.Root != "" {
		parts = append(parts, fmt.Sprintf("Target: %s", report.Root))
	}
	parts = append(parts, fmt.Sprintf("%d files", report.FilesScanned))
	parts = append(parts, fmt.Sprintf("%d rules", report.RulesLoaded))
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) printGrade(w io.Writer, report *types.Report) {
	grade := f.color(bold+gradeColor(report.Grade), "Grade "+report.Grade)
	fmt.Fprintf(w, "\n  %s  %s\n", grade, f.color(bold, fmt.Sprintf("Score %d/100", report.Score)))
	if report.Summary != "" {
		fmt.Fprintf(w, "  %s\n", report.Summary)
	}
}

func (f *TerminalFormatter) printDashboard(w io.Writer, counts types.Counts, total int) {
	peak := 0
	for _, sev := range types.Severities {
		peak = max(peak, counts.Of(sev))
	}
	if peak == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, sev := range types.Severities {
		c := counts.Of(sev)
		if c == 0 {
			continue
		}
		label := fmt.Sprintf("  %-10s", strings.ToUpper(sev.String()))
		bar := f.renderBar(c, peak, barWidth, sev)
		fmt.Fprintf(w, "%s %s %4d\n", f.color(bold, label), bar, c)
	}
	fmt.Fprintf(w, "\n  %s\n", f.color(bold, fmt.Sprintf("%d findings", total)))
}

func (f *TerminalFormatter) printSeveritySection(w io.Writer, sev types.Severity, findings []types.Finding) {
	title := fmt.Sprintf("%s (%d)", strings.ToUpper(sev.String()), len(findings))
	fmt.Fprintf(w, "\n%s\n", f.color(bold, f.sectionHeader(title)))

	for _, group := range groupByFile(findings) {
		fmt.Fprintf(w, "\n  %s\n", f.color(bold+underline, group.filePath))
		for _, finding := range group.findings {
			if sev == types.SeverityCritical {
				f.printFindingExpanded(w, finding)
			} else {
				f.printFindingCompact(w, finding)
			}
		}
	}
}

func (f *TerminalFormatter) findingLine(finding types.Finding) string {
	icon := f.severityIcon(finding.Severity)
	ruleID := fmt.Sprintf("%-*s", ruleIDWidth, finding.ID)
	name := fmt.Sprintf("%-*s", nameWidth, truncate(finding.Name, nameWidth))
	loc := "file"
	if finding.Line > 0 {
		loc = fmt.Sprintf("L%d", finding.Line)
	}
	if finding.CWE != "" {
		loc += " " + f.color(dim, finding.CWE)
	}
	return fmt.Sprintf("%s %s %s %s", icon, f.color(bold, ruleID), name, f.color(cyan, loc))
}

func (f *TerminalFormatter) printFindingExpanded(w io.Writer, finding types.Finding) {
	fmt.Fprintf(w, "\n    %s\n", f.findingLine(finding))
	if finding.Match != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(dim, truncate(finding.Match, previewWidth)))
	}
	if f.Verbose && finding.Description != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(yellow, finding.Description))
	}
}

func (f *TerminalFormatter) printFindingCompact(w io.Writer, finding types.Finding) {
	fmt.Fprintf(w, "    %s\n", f.findingLine(finding))
	if f.Verbose && finding.Match != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(dim, truncate(finding.Match, previewWidth)))
	}
	if f.Verbose && finding.Severity >= types.SeverityHigh && finding.Description != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(yellow, finding.Description))
	}
}

func (f *TerminalFormatter) printTopFiles(w io.Writer, findings []types.Finding) {
	fileCounts := map[string]int{}
	for _, finding := range findings {
		fileCounts[finding.File]++
	}
	if len(fileCounts) < 2 {
		return
	}

	type fileCount struct {
		path  string
		count int
	}
	sorted := make([]fileCount, 0, len(fileCounts))
	for path, count := range fileCounts {
		sorted = append(sorted, fileCount{path, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].path < sorted[j].path
	})

	fmt.Fprintf(w, "\n%s\n\n", f.color(bold, f.sectionHeader("TOP AFFECTED FILES")))
	for i := range min(len(sorted), topFiles) {
		fmt.Fprintf(w, "  %4d  %s\n", sorted[i].count, sorted[i].path)
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, report *types.Report) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))

	parts := []string{
		fmt.Sprintf("%d files scanned", report.FilesScanned),
		fmt.Sprintf("%d findings", report.Total),
		fmt.Sprintf("%d rules", report.RulesLoaded),
	}
	if report.Permissions != "" {
		parts = append(parts, "permissions "+report.Permissions)
	}
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) severityIcon(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return f.color(red+bold, "✖")
	case types.SeverityHigh:
		return f.color(red, "▲")
	case types.SeverityMedium:
		return f.color(yellow, "■")
	case types.SeverityLow:
		return f.color(blue, "●")
	default:
		return "?"
	}
}

func severityColor(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return red + bold
	case types.SeverityHigh:
		return red
	case types.SeverityMedium:
		return yellow
	case types.SeverityLow:
		return blue
	default:
		return ""
	}
}

func gradeColor(grade string) string {
	switch grade {
	case "A", "B":
		return green
	case "C", "D":
		return yellow
	default:
		return red
	}
}

func (f *TerminalFormatter) renderBar(count, peak, width int, sev types.Severity) string {
	filled := count * width / peak
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Always keep at least 1 empty block so bar boundary is visible
	if filled >= width {
		filled = width - 1
	}
	filledStr := strings.Repeat("█", filled)
	emptyStr := strings.Repeat("░", width-filled)
	return f.color(severityColor(sev), filledStr) + f.color(dim, emptyStr)
}

func filterBySeverity(findings []types.Finding, sev types.Severity) []types.Finding {
	var result []types.Finding
	for _, f := range findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}
	return result
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

type fileGroup struct {
	filePath string
	findings []types.Finding
}

// groupByFile keeps the first-seen file order of the (already sorted) input.
func groupByFile(findings []types.Finding) []fileGroup {
	index := make(map[string]int)
	var result []fileGroup
	for _, f := range findings {
		i, ok := index[f.File]
		if !ok {
			i = len(result)
			index[f.File] = i
			result = append(result, fileGroup{filePath: f.File})
		}
		result[i].findings = append(result[i].findings, f)
	}
	return result
}
