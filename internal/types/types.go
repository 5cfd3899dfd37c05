// Package types defines shared data structures (Finding, Severity, ScanResult,
// Report) used across scanner, engine, audit and meta packages to prevent
// import cycles.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a finding. The integer value is
// the sort rank: critical=4 > high=3 > medium=2 > low=1.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Severities lists every level from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	default:
		return 0, fmt.Errorf("unknown severity: %q", s)
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Category classifies which scanner produced a finding.
type Category string

const (
	CategorySecret        Category = "secret"
	CategoryVulnerability Category = "vulnerability"
	CategoryConfig        Category = "config"
)

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategorySecret, CategoryVulnerability, CategoryConfig:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category: %q", s)
	}
}

// Finding represents a single detected issue.
type Finding struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Match       string   `json:"match"`
	Category    Category `json:"category"`
	CWE         string   `json:"cwe,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Permission check status values reported on ScanResult and Report.
const (
	PermissionsChecked       = "checked"
	PermissionsNotApplicable = "not applicable"
	PermissionsSkipped       = "skipped"
)

// ScanResult holds the raw output of a scan: findings concatenated in scanner
// order, before sorting and grading.
type ScanResult struct {
	ScanID       string        `json:"scan_id"`
	Root         string        `json:"root"`
	Findings     []Finding     `json:"findings"`
	FilesScanned int           `json:"files_scanned"`
	RulesLoaded  int           `json:"rules_loaded"`
	Permissions  string        `json:"permissions"`
	Duration     time.Duration `json:"-"`
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r ScanResult) MarshalJSON() ([]byte, error) {
	type Alias ScanResult
	return json.Marshal(struct {
		Alias
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		DurationMS: r.Duration.Milliseconds(),
	})
}

// Counts tallies findings per severity.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Of returns the count for a single severity.
func (c Counts) Of(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	default:
		return 0
	}
}

// Report is the graded, sorted view of a ScanResult. It is derived data and
// is always rebuilt from the finding list.
type Report struct {
	ScanID       string        `json:"scan_id"`
	Root         string        `json:"root"`
	Findings     []Finding     `json:"findings"`
	Total        int           `json:"total"`
	Omitted      int           `json:"omitted"`
	Counts       Counts        `json:"counts"`
	Score        int           `json:"score"`
	Grade        string        `json:"grade"`
	Summary      string        `json:"summary"`
	FilesScanned int           `json:"files_scanned"`
	RulesLoaded  int           `json:"rules_loaded"`
	Permissions  string        `json:"permissions"`
	Duration     time.Duration `json:"-"`
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(struct {
		Alias
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		DurationMS: r.Duration.Milliseconds(),
	})
}
