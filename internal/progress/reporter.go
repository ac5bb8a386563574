// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/bstardust/imgmeta/internal/logger"
)

// Stats is the outcome of a scan
type Stats struct {
	Total     int
	Extracted int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Processed counts every image the scan has dealt with, skipped ones included
func (s Stats) Processed() int {
	return s.Extracted + s.Failed + s.Skipped
}

// Reporter tracks and reports scan progress
type Reporter struct {
	mu             sync.Mutex
	stats          Stats
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the progress reporter with the total number of images
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = Stats{Total: total}
	r.startTime = time.Now()
	r.lastUpdateTime = r.startTime

	logger.Info("Starting metadata scan of %d images", total)
}

// Complete marks an image whose metadata was extracted
func (r *Reporter) Complete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Extracted++
	r.updateProgress()
}

// Skip marks an image already present in the journal
func (r *Reporter) Skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Skipped++
	r.updateProgress()
}

// Fail marks an image whose record carries an error
func (r *Reporter) Fail(path string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Failed++
	logger.Debug("Metadata extraction failed for %s: %s", path, reason)
	r.updateProgress()
}

// Stats returns a snapshot of the counters
func (r *Reporter) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	if !r.startTime.IsZero() {
		s.Duration = time.Since(r.startTime)
	}
	return s
}

// Finish logs the final counters and returns them
func (r *Reporter) Finish() Stats {
	s := r.Stats()

	logger.Info("Scan complete: %d/%d images extracted, %d failed, %d skipped in %s",
		s.Extracted, s.Total, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
	return s
}

// updateProgress logs a progress line at most once per updateInterval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.stats.Processed()

	if processed == 0 || r.stats.Total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.stats.Total) * 100

	var eta string
	if worked := r.stats.Extracted + r.stats.Failed; worked > 0 {
		timePerImage := duration / time.Duration(processed)
		remaining := timePerImage * time.Duration(r.stats.Total-processed)
		eta = remaining.Round(time.Second).String()
	} else {
		eta = "unknown"
	}

	logger.Info("Progress: %.1f%% (%d/%d, %d extracted, %d failed, %d skipped) ETA: %s",
		percentage, processed, r.stats.Total, r.stats.Extracted, r.stats.Failed, r.stats.Skipped, eta)
}
