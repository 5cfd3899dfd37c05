// Package builtin embeds the YAML detection rule tables via go:embed.
// File names are prefixed with a number so secret rules load before
// vulnerability rules.
package builtin

import "embed"

//go:embed *.yaml
var builtinRules embed.FS

// FS returns the embedded filesystem containing built-in rules.
func FS() embed.FS {
	return builtinRules
}
