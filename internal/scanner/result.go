package scanner

// This package re-exports types from internal/types for convenience.
// The canonical types live in internal/types to avoid import cycles.

import "github.com/garagon/tatu/internal/types"

type (
	Severity   = types.Severity
	Category   = types.Category
	Finding    = types.Finding
	ScanResult = types.ScanResult
)

const (
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical
)
