// Package scanner collects project files and runs the analysis pipeline over
// them: per-file analyzers on a worker pool, then project-level analyzers,
// with results merged in a fixed order.
package scanner

import "context"

// Analyzer inspects one file at a time. Implementations must be safe for
// concurrent use; the scanner calls Analyze from several workers.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, target *Target) ([]Finding, error)
}

// ProjectAnalyzer inspects the project as a whole, after every file has been
// loaded. root is the scan root on disk. Targets that were skipped as
// binary or unreadable have nil Content.
type ProjectAnalyzer interface {
	Name() string
	AnalyzeProject(ctx context.Context, root string, targets []*Target) ([]Finding, error)
}
