// Package output formats graded reports for terminal (ANSI), JSON and SARIF
// output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/tatu/internal/types"
)

// Formatter is the interface for outputting reports.
type Formatter interface {
	Format(w io.Writer, report *types.Report) error
}

// Formats lists the accepted --format values.
var Formats = []string{"terminal", "json", "sarif"}

// New returns the formatter for a format name. An empty name selects the
// terminal formatter.
func New(format string, noColor, verbose bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "terminal", "text":
		return &TerminalFormatter{NoColor: noColor, Verbose: verbose}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want %s)", format, strings.Join(Formats, ", "))
	}
}
