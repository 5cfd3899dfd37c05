// Package meta turns raw findings into a graded report: counting, scoring,
// stable severity ordering and truncation.
package meta

import (
	"fmt"

	"github.com/garagon/tatu/internal/types"
)

// Score deductions per finding. Low findings are informational.
const (
	criticalPenalty = 15
	highPenalty     = 8
	mediumPenalty   = 3
)

// Grading is the score, letter grade and summary for a finding set.
type Grading struct {
	Score   int
	Grade   string
	Summary string
	Counts  types.Counts
}

// Count tallies findings per severity.
func Count(findings []types.Finding) types.Counts {
	var c types.Counts
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical:
			c.Critical++
		case types.SeverityHigh:
			c.High++
		case types.SeverityMedium:
			c.Medium++
		case types.SeverityLow:
			c.Low++
		}
	}
	return c
}

// Grade scores a finding set: 100 minus 15 per critical, 8 per high and 3
// per medium, clamped to [0, 100]. Adding a finding never raises the score.
func Grade(findings []types.Finding) Grading {
	c := Count(findings)
	score := 100 - criticalPenalty*c.Critical - highPenalty*c.High - mediumPenalty*c.Medium
	score = max(0, min(100, score))
	return Grading{
		Score:   score,
		Grade:   Letter(score),
		Summary: Summary(c),
		Counts:  c,
	}
}

// Letter maps a score to A (>=90), B (>=80), C (>=70), D (>=60) or F.
func Letter(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Summary returns a one-sentence description of the critical and high counts.
func Summary(c types.Counts) string {
	n := c.Critical + c.High
	if n == 0 {
		return "No critical or high severity issues found."
	}
	noun := "issues"
	if n == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("Found %d critical and %d high severity %s.", c.Critical, c.High, noun)
}
