package rules

import (
	"fmt"
	"sync"

	"github.com/garagon/tatu/internal/rules/builtin"
)

var (
	builtinOnce  sync.Once
	builtinTable Table
	builtinErr   error
)

// Builtin returns the process-wide compiled rule table. It is loaded once on
// first use and is read-only afterwards.
func Builtin() (Table, error) {
	builtinOnce.Do(func() {
		compiled, err := BuiltinRules()
		if err != nil {
			builtinErr = err
			return
		}
		builtinTable = Split(compiled)
	})
	return builtinTable, builtinErr
}

// BuiltinRules loads and compiles the embedded rule files in table order.
// Any invalid built-in rule is a packaging bug and fails the load.
func BuiltinRules() ([]*CompiledRule, error) {
	raws, err := LoadFromFS(builtin.FS())
	if err != nil {
		return nil, fmt.Errorf("loading built-in rules: %w", err)
	}
	compiled, errs := CompileAll(raws)
	if len(errs) > 0 {
		return nil, fmt.Errorf("compiling built-in rules: %w", errs[0])
	}
	return compiled, nil
}
