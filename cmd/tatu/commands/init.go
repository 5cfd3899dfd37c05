package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu/internal/scanner"
)

var (
	flagHook   bool
	flagCIOnly bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Scaffold tatu configuration files",
	Long:  `Creates .tatu.yml, .tatuignore and a GitHub Actions workflow that uploads SARIF results. Existing files are left alone.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return scaffold(cmd.OutOrStdout(), dir)
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagHook, "hook", false, "Create a git pre-commit hook that scans changed files")
	initCmd.Flags().BoolVar(&flagCIOnly, "ci-only", false, "Only generate the GitHub Actions workflow")
	rootCmd.AddCommand(initCmd)
}

type scaffoldFile struct {
	path    string
	content string
	mode    os.FileMode
}

var workflowPath = filepath.Join(".github", "workflows", "tatu.yml")

func scaffold(w io.Writer, dir string) error {
	var files []scaffoldFile
	switch {
	case flagHook:
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			return fmt.Errorf("no .git directory found in %s (is this a git repository?)", dir)
		}
		files = []scaffoldFile{{filepath.Join(".git", "hooks", "pre-commit"), preCommitTemplate, 0o755}}
	case flagCIOnly:
		files = []scaffoldFile{{workflowPath, workflowTemplate, 0o644}}
	default:
		files = []scaffoldFile{
			{".tatu.yml", configTemplate, 0o644},
			{scanner.IgnoreFile, ignoreTemplate, 0o644},
			{workflowPath, workflowTemplate, 0o644},
		}
	}

	for _, f := range files {
		if err := writeIfMissing(w, filepath.Join(dir, f.path), f.content, f.mode); err != nil {
			return err
		}
	}
	return nil
}

func writeIfMissing(w io.Writer, path, content string, mode os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  skip %s (already exists)\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(w, "  create %s\n", path)
	return nil
}

const configTemplate = `# tatu security scanner configuration

# Paths to skip, relative to the scan root (** supported)
ignore:
  - "testdata/**"
  - "*.min.js"

# Minimum severity to list: critical, high, medium, low
severity: low

# Exit with code 1 if findings at or above this severity
# fail_on: high

# Output format: terminal, json, sarif
format: terminal

# Additional rules directory
# rules: .tatu/rules/

# Rule or check IDs to skip
# disable_rules:
#   - missing-rate-limit

# Scan limits
# max_files: 5000
# max_file_size: 524288
# workers: 4

# Per-rule overrides
# rule_overrides:
#   jwt-token:
#     severity: high
#   stripe-test-secret:
#     disabled: true
`

const ignoreTemplate = `# tatu ignore patterns
# Files matching these patterns are skipped during scanning.
# node_modules, vendor, dist, build and hidden directories are always skipped.

# Fixtures with fake credentials
testdata/
fixtures/
**/__snapshots__/**

# Generated code
*.pb.go
*_generated.*
*.min.js

# Logs and temp
*.log
tmp/
`

const preCommitTemplate = `#!/bin/sh
# tatu pre-commit hook
echo "Running tatu security scan..."
tatu scan . --changed --fail-on high --no-color
exit $?
`

const workflowTemplate = `name: tatu security scan

on:
  push:
    branches: [main]
  pull_request:
    branches: [main]

permissions:
  security-events: write
  contents: read

jobs:
  tatu:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install tatu
        run: go install github.com/garagon/tatu/cmd/tatu@latest

      - name: Run tatu scan
        id: scan
        continue-on-error: true
        run: tatu scan . --all --format sarif --output results.sarif --fail-on high

      - name: Upload SARIF results
        if: always()
        uses: github/codeql-action/upload-sarif@v3
        with:
          sarif_file: results.sarif

      - name: Fail on findings
        if: steps.scan.outcome == 'failure'
        run: exit 1
`
