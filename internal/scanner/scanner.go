package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// stage is one step of the pipeline. Exactly one of file or project is set.
type stage struct {
	file    Analyzer
	project ProjectAnalyzer
}

func (st stage) name() string {
	if st.file != nil {
		return st.file.Name()
	}
	return st.project.Name()
}

// Scanner orchestrates the scanning process. Findings are reported in stage
// registration order, then collection order, so the number of workers never
// changes the output.
type Scanner struct {
	stages    []stage
	workers   int
	collector *Collector
	log       *zap.Logger
}

// New creates a new Scanner with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func New(workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		workers:   workers,
		collector: &Collector{},
		log:       zap.NewNop(),
	}
}

// RegisterAnalyzer appends a per-file stage to the pipeline.
func (s *Scanner) RegisterAnalyzer(a Analyzer) {
	s.stages = append(s.stages, stage{file: a})
}

// RegisterProjectAnalyzer appends a project-level stage to the pipeline.
func (s *Scanner) RegisterProjectAnalyzer(a ProjectAnalyzer) {
	s.stages = append(s.stages, stage{project: a})
}

// SetCollector replaces the file collector used by Scan.
func (s *Scanner) SetCollector(c *Collector) {
	s.collector = c
}

// SetLogger sets the logger for skipped files and recovered failures.
func (s *Scanner) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.log = l
}

// Scan collects the files under root and runs the pipeline on them.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	c := *s.collector
	if c.Logger == nil {
		c.Logger = s.log
	}
	targets, err := c.Collect(root)
	if err != nil {
		return nil, err
	}
	result, err := s.ScanTargets(ctx, root, targets)
	if err != nil {
		return nil, err
	}
	result.Root = root
	return result, nil
}

// ScanTargets runs the pipeline on a pre-built list of targets. Targets whose
// content is not already loaded are read from disk.
func (s *Scanner) ScanTargets(ctx context.Context, root string, targets []*Target) (*ScanResult, error) {
	start := time.Now()

	// perFile[stage][target] keeps each file's output in a fixed slot.
	perFile := make([][][]Finding, len(s.stages))
	for i := range perFile {
		perFile[i] = make([][]Finding, len(targets))
	}

	idxCh := make(chan int, len(targets))
	for i := range targets {
		idxCh <- i
	}
	close(idxCh)

	var (
		wg      sync.WaitGroup
		scanned atomic.Int64
	)
	for range min(s.workers, max(len(targets), 1)) {
		wg.Go(func() {
			for i := range idxCh {
				if ctx.Err() != nil {
					return
				}
				out, ok := s.analyzeFile(ctx, targets[i])
				if !ok {
					continue
				}
				scanned.Add(1)
				for st, fs := range out {
					perFile[st][i] = fs
				}
			}
		})
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var findings []Finding
	for st, stg := range s.stages {
		if stg.file != nil {
			for _, fs := range perFile[st] {
				findings = append(findings, fs...)
			}
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		fs, err := s.runProject(ctx, stg.project, root, targets)
		if err != nil {
			s.log.Warn("project analyzer failed", zap.String("analyzer", stg.name()), zap.Error(err))
			continue
		}
		findings = append(findings, fs...)
	}

	return &ScanResult{
		Findings:     findings,
		FilesScanned: int(scanned.Load()),
		Duration:     time.Since(start),
	}, nil
}

// analyzeFile loads the target and runs every per-file stage on it. It
// returns ok=false when the file has to be skipped: unreadable or binary
// content, an analyzer error, or a panic. Nothing from a skipped file is
// reported.
func (s *Scanner) analyzeFile(ctx context.Context, t *Target) (out [][]Finding, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recovered panic while analyzing file",
				zap.String("file", t.RelPath), zap.Any("panic", r))
			out, ok = nil, false
		}
	}()

	if t.Content == nil {
		if err := t.LoadContent(); err != nil {
			s.log.Debug("skipping file", zap.String("file", t.RelPath), zap.Error(err))
			return nil, false
		}
	} else if err := CheckText(t.Content); err != nil {
		s.log.Debug("skipping file", zap.String("file", t.RelPath), zap.Error(err))
		t.Content = nil
		return nil, false
	}

	out = make([][]Finding, len(s.stages))
	for st, stg := range s.stages {
		if stg.file == nil {
			continue
		}
		fs, err := stg.file.Analyze(ctx, t)
		if err != nil {
			s.log.Warn("skipping file after analyzer error",
				zap.String("file", t.RelPath), zap.String("analyzer", stg.name()), zap.Error(err))
			return nil, false
		}
		out[st] = fs
	}
	return out, true
}

func (s *Scanner) runProject(ctx context.Context, a ProjectAnalyzer, root string, targets []*Target) (fs []Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.AnalyzeProject(ctx, root, targets)
}
