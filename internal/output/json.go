package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/tatu/internal/types"
)

// JSONFormatter outputs the report as an indented JSON object.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, report *types.Report) error {
	if report.Findings == nil {
		cp := *report
		cp.Findings = []types.Finding{}
		report = &cp
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
