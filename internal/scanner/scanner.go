package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bstardust/imgmeta/internal/journal"
	"github.com/bstardust/imgmeta/internal/logger"
	"github.com/bstardust/imgmeta/internal/progress"
	"github.com/bstardust/imgmeta/internal/worker"
	"github.com/bstardust/imgmeta/pkg/common"
	"github.com/bstardust/imgmeta/pkg/metadata"
)

// Result is one line of scan output
type Result struct {
	Source   string           `json:"source"`
	Path     string           `json:"path"`
	Summary  string           `json:"summary"`
	Metadata *metadata.Record `json:"metadata,omitempty"`
	// Error repeats the record error, or says why the image could not be fetched
	Error string `json:"error,omitempty"`
}

// Options controls a scan
type Options struct {
	Concurrency int
	// Resume skips images already recorded in Journal
	Resume  bool
	Journal *journal.Journal
	// Timeout bounds each image fetch; zero means no limit
	Timeout time.Duration
}

// Scanner extracts metadata from every image of its sources and writes one
// JSON line per image
type Scanner struct {
	opts     Options
	progress *progress.Reporter

	mu  sync.Mutex
	enc *json.Encoder
}

// New creates a scanner writing JSON lines to out
func New(out io.Writer, opts Options) *Scanner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return &Scanner{
		opts:     opts,
		progress: progress.New(),
		enc:      enc,
	}
}

type task struct {
	src  Source
	path string
}

// Run scans all sources. Per-image failures are written as results; only
// listing, output and cancellation errors abort the run.
func (s *Scanner) Run(ctx context.Context, sources []Source) (progress.Stats, error) {
	var tasks []task
	for _, src := range sources {
		paths, err := src.List(ctx)
		if err != nil {
			return progress.Stats{}, fmt.Errorf("failed to list %s: %w", src.Name(), err)
		}
		logger.Debug("Found %d images in %s", len(paths), src.Name())
		for _, p := range paths {
			tasks = append(tasks, task{src: src, path: p})
		}
	}

	s.progress.Start(len(tasks))

	pool := worker.NewPool(ctx, s.opts.Concurrency)
	for _, t := range tasks {
		if pool.Context().Err() != nil {
			break
		}
		if s.opts.Resume && s.opts.Journal != nil && s.opts.Journal.IsDone(t.src.Name(), t.path) {
			s.progress.Skip(t.path)
			continue
		}
		t := t
		pool.Submit(func(ctx context.Context) error {
			return s.process(ctx, t)
		})
	}

	err := pool.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if s.opts.Journal != nil {
		if saveErr := s.opts.Journal.Save(); saveErr != nil {
			logger.Error("Failed to save journal: %v", saveErr)
		}
	}

	stats := s.progress.Finish()
	if err != nil {
		return stats, err
	}
	if stats.Total > 0 && stats.Failed == stats.Total {
		return stats, common.NewScanError(fmt.Sprintf("all %d images failed", stats.Total))
	}
	return stats, nil
}

func (s *Scanner) process(ctx context.Context, t task) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	fetchCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res := Result{Source: t.src.Name(), Path: t.path}
	rec, err := t.src.Extract(fetchCtx, t.path)
	switch {
	case err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Interrupted, leave it for a resumed run
		return ctx.Err()
	case err != nil:
		res.Error = err.Error()
		res.Summary = metadata.NoMetadata
	default:
		res.Metadata = rec
		res.Summary = metadata.Summarize(rec)
		res.Error = rec.Error
	}

	if err := s.write(res); err != nil {
		return err
	}

	if s.opts.Journal != nil {
		s.opts.Journal.MarkDone(res.Source, res.Path, res.Error)
	}
	if res.Error != "" {
		s.progress.Fail(t.path, res.Error)
	} else {
		s.progress.Complete(t.path)
	}
	return nil
}

func (s *Scanner) write(res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write result for %s: %w", res.Path, err)
	}
	return nil
}
