// Package scan drives documents from an input queue through a compiled
// query group and pushes responses to an output queue across a worker pool.
package scan

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/compile"
	"github.com/kailas-cloud/ieql/internal/domain"
	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/metrics"
	"github.com/kailas-cloud/ieql/internal/output"
)

// Config controls the worker pool and response shaping.
type Config struct {
	// Workers is the pool size; <= 0 uses the hardware thread count.
	Workers int
	// ExcerptWindowBytes bounds excerpt context; <= 0 uses the default.
	ExcerptWindowBytes int
	// AllowTextFallback scans raw content when text extraction yields none.
	AllowTextFallback bool
	// Extract supplies extracted text for Text-scoped queries.
	Extract compile.Extractor
}

// Scanner runs a compiled group over a document stream. The group is shared
// by reference across workers; all per-document state is worker-local.
type Scanner struct {
	group  *compile.Group
	cfg    Config
	logger *zap.Logger
}

// New creates a scanner for the group.
func New(group *compile.Group, cfg Config, logger *zap.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	inner := cfg.Extract
	fallback := cfg.AllowTextFallback
	cfg.Extract = func(doc document.Document) ([]byte, bool) {
		if inner != nil {
			if text, ok := inner(doc); ok {
				return text, true
			}
		}
		if fallback {
			metrics.AddTextFallback()
		}
		return nil, false
	}
	return &Scanner{group: group, cfg: cfg, logger: logger}
}

// Run consumes documents from in until it is closed and drained, pushing
// every produced response to out. All responses for a document are emitted
// before the worker takes the next one. Cancelling ctx aborts at the next
// document boundary and returns ErrScanAborted. Run does not close out.
func (s *Scanner) Run(ctx context.Context, in <-chan Task, out chan<- output.Response) error {
	var wg sync.WaitGroup
	var aborted bool
	var mu sync.Mutex

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.worker(ctx, in, out); err != nil {
				mu.Lock()
				aborted = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if aborted {
		return domain.ErrScanAborted
	}
	return nil
}

func (s *Scanner) worker(ctx context.Context, in <-chan Task, out chan<- output.Response) error {
	scratch := s.group.NewScratch()
	evalCfg := compile.Config{
		Extract:           s.cfg.Extract,
		AllowTextFallback: s.cfg.AllowTextFallback,
	}

	for {
		select {
		case <-ctx.Done():
			return domain.ErrScanAborted
		case task, ok := <-in:
			if !ok {
				return nil
			}
			start := time.Now()
			matches, docErr := s.group.Evaluate(task.Document, scratch, evalCfg)
			outcome := "unmatched"
			switch {
			case docErr != nil:
				outcome = "skipped"
				s.logger.Warn("document skipped",
					zap.String("url", task.Document.URL),
					zap.Error(docErr),
				)
			case len(matches) > 0:
				outcome = "matched"
			}
			metrics.ObserveDocument(outcome, time.Since(start).Seconds())

			for _, m := range matches {
				resp := output.Build(task.Document, m, s.cfg.ExcerptWindowBytes)
				select {
				case out <- resp:
				case <-ctx.Done():
					return domain.ErrScanAborted
				}
			}
			metrics.AddResponses(len(matches))
			if task.Done != nil {
				task.Done()
			}
		}
	}
}

// Aborted reports whether err is the scanner's cancellation result.
func Aborted(err error) bool {
	return errors.Is(err, domain.ErrScanAborted)
}
