package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// A rule file is a YAML stream with one rule per document. The built-in
// files are numbered (01-secrets.yaml, 02-vulnerabilities.yaml) because the
// load order becomes table order, and table order decides which rule claims
// a line. A custom rules directory uses the same format and is appended
// after the built-in rules.

// maxRuleFileSize caps a single rule file at 1 MB.
const maxRuleFileSize = 1 << 20

// LoadFromFS decodes every .yml/.yaml file in fsys, walking paths in
// lexical order.
func LoadFromFS(fsys fs.FS) ([]RawRule, error) {
	var raws []RawRule
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(name) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxRuleFileSize {
			return fmt.Errorf("rule file %s too large (%d bytes, max %d)", name, info.Size(), maxRuleFileSize)
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		docs, err := decodeRules(data)
		if err != nil {
			return fmt.Errorf("rule file %s: %w", name, err)
		}
		raws = append(raws, docs...)
		return nil
	})
	return raws, err
}

// LoadFromDir decodes the custom rules under dir.
func LoadFromDir(dir string) ([]RawRule, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return LoadFromFS(os.DirFS(dir))
}

// decodeRules reads each document of data as a rule. Unknown keys fail the
// decode; documents without an id are skipped.
func decodeRules(data []byte) ([]RawRule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var docs []RawRule
	for {
		var raw RawRule
		if err := dec.Decode(&raw); errors.Is(err, io.EOF) {
			return docs, nil
		} else if err != nil {
			return nil, err
		}
		if raw.ID != "" {
			docs = append(docs, raw)
		}
	}
}

func isYAML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
