package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
	"github.com/stretchr/testify/require"
)

// mockAnalyzer reports one finding per file, tagged with its own id.
type mockAnalyzer struct {
	id       string
	severity types.Severity
}

func (m *mockAnalyzer) Name() string { return m.id }

func (m *mockAnalyzer) Analyze(_ context.Context, target *scanner.Target) ([]types.Finding, error) {
	return []types.Finding{{ID: m.id, Severity: m.severity, File: target.RelPath, Line: 1}}, nil
}

type panicAnalyzer struct{ file string }

func (p *panicAnalyzer) Name() string { return "panic" }

func (p *panicAnalyzer) Analyze(_ context.Context, target *scanner.Target) ([]types.Finding, error) {
	if target.RelPath == p.file {
		panic("boom")
	}
	return nil, nil
}

type errAnalyzer struct{ file string }

func (e *errAnalyzer) Name() string { return "err" }

func (e *errAnalyzer) Analyze(_ context.Context, target *scanner.Target) ([]types.Finding, error) {
	if target.RelPath == e.file {
		return nil, errors.New("cannot analyze")
	}
	return nil, nil
}

type mockProject struct{ id string }

func (m *mockProject) Name() string { return m.id }

func (m *mockProject) AnalyzeProject(_ context.Context, root string, targets []*scanner.Target) ([]types.Finding, error) {
	return []types.Finding{{ID: m.id, Severity: types.SeverityMedium, File: filepath.Base(root), Line: len(targets)}}, nil
}

func TestScannerOrchestrator(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "content")

	s := scanner.New(2)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R1", severity: types.SeverityHigh})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesScanned)
	require.Equal(t, dir, result.Root)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "R1", result.Findings[0].ID)
	require.Equal(t, "app.js", result.Findings[0].File)
}

func TestScannerStageOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "x")
	writeFile(t, dir, "b.js", "x")

	s := scanner.New(4)
	s.RegisterAnalyzer(&mockAnalyzer{id: "first", severity: types.SeverityLow})
	s.RegisterProjectAnalyzer(&mockProject{id: "project"})
	s.RegisterAnalyzer(&mockAnalyzer{id: "last", severity: types.SeverityCritical})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	var got []string
	for _, f := range result.Findings {
		got = append(got, f.ID+":"+f.File)
	}
	require.Equal(t, []string{
		"first:a.js", "first:b.js",
		"project:" + filepath.Base(dir),
		"last:a.js", "last:b.js",
	}, got)
	require.Equal(t, 2, result.Findings[2].Line)
}

func TestScannerDeterministicAcrossWorkerCounts(t *testing.T) {
	dir := t.TempDir()
	for i := range 40 {
		writeFile(t, dir, fmt.Sprintf("m%d/f%02d.py", i%5, i), "x")
	}

	run := func(workers int) []types.Finding {
		s := scanner.New(workers)
		s.RegisterAnalyzer(&mockAnalyzer{id: "A", severity: types.SeverityHigh})
		s.RegisterAnalyzer(&mockAnalyzer{id: "B", severity: types.SeverityLow})
		res, err := s.Scan(context.Background(), dir)
		require.NoError(t, err)
		return res.Findings
	}

	want := run(1)
	require.Len(t, want, 80)
	for _, w := range []int{2, 8, 32} {
		require.Equal(t, want, run(w), "workers=%d", w)
	}
}

func TestScannerRecoversPanic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.js", "x")
	writeFile(t, dir, "good.js", "x")

	s := scanner.New(2)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R", severity: types.SeverityHigh})
	s.RegisterAnalyzer(&panicAnalyzer{file: "bad.js"})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesScanned)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "good.js", result.Findings[0].File)
}

func TestScannerSkipsFileOnAnalyzerError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.js", "x")
	writeFile(t, dir, "good.js", "x")

	s := scanner.New(1)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R", severity: types.SeverityHigh})
	s.RegisterAnalyzer(&errAnalyzer{file: "bad.js"})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "good.js", result.Findings[0].File)
}

func TestScannerSkipsBinaryContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blob.js", "a\x00b")
	writeFile(t, dir, "text.js", "ok")

	s := scanner.New(1)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R", severity: types.SeverityLow})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesScanned)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "text.js", result.Findings[0].File)
}

func TestScannerPreloadedTargets(t *testing.T) {
	s := scanner.New(1)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R", severity: types.SeverityLow})

	targets := []*scanner.Target{{RelPath: "inline.js", Content: []byte("x")}}
	result, err := s.ScanTargets(context.Background(), "", targets)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "inline.js", result.Findings[0].File)
}

func TestScannerMissingRoot(t *testing.T) {
	s := scanner.New(1)
	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, scanner.ErrDirectoryNotFound)
}

func TestScannerContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scanner.New(1)
	s.RegisterAnalyzer(&mockAnalyzer{id: "R"})

	_, err := s.Scan(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScannerUsesCollectorLimits(t *testing.T) {
	dir := t.TempDir()
	for i := range 5 {
		writeFile(t, dir, fmt.Sprintf("f%d.js", i), "x")
	}
	s := scanner.New(2)
	s.SetCollector(&scanner.Collector{MaxFiles: 3})
	s.RegisterAnalyzer(&mockAnalyzer{id: "R", severity: types.SeverityLow})

	result, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 3, result.FilesScanned)
}
