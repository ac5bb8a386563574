// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bstardust/imgmeta/internal/logger"
)

// DefaultFileName is used in the home directory when no path is configured
const DefaultFileName = ".imgmeta-scan-journal.json"

// Journal records which images a scan has already processed so an
// interrupted scan can resume where it stopped
type Journal struct {
	mu         sync.Mutex
	path       string
	Entries    map[string]Entry `json:"entries"`
	dirty      bool
	batchCount int
	batchSize  int
	cancelSave context.CancelFunc
	saveDone   chan struct{}
}

// Entry represents one processed image
type Entry struct {
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new journal. Nothing touches the disk until Load or Save.
func New(path string) *Journal {
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultFileName)
		} else {
			path = DefaultFileName
		}
	}

	return &Journal{
		path:      path,
		Entries:   make(map[string]Entry),
		batchSize: 100,
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.path
}

func key(source, path string) string {
	return source + "!" + path
}

// Load loads the journal from disk. A missing file starts an empty journal.
func (j *Journal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		logger.Info("No journal file found at %s, starting fresh", j.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var stored Journal
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse journal %s: %w", j.path, err)
	}
	if stored.Entries != nil {
		j.Entries = stored.Entries
	}

	logger.Info("Loaded journal with %d entries from %s", len(j.Entries), j.path)
	return nil
}

// StartPeriodicSave flushes pending entries every interval until ctx is
// done or StopPeriodicSave is called
func (j *Journal) StartPeriodicSave(ctx context.Context, interval time.Duration) {
	saveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	j.mu.Lock()
	j.cancelSave = cancel
	j.saveDone = done
	j.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Save(); err != nil {
					logger.Error("Failed to perform periodic journal save: %v", err)
				}
			case <-saveCtx.Done():
				logger.Debug("Stopping periodic journal save")
				return
			}
		}
	}()
	logger.Debug("Started periodic journal save every %s", interval)
}

// StopPeriodicSave stops the background saver and waits for it to exit
func (j *Journal) StopPeriodicSave() {
	j.mu.Lock()
	cancel, done := j.cancelSave, j.saveDone
	j.cancelSave, j.saveDone = nil, nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Save writes the journal to disk if it changed since the last save
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.save()
}

func (j *Journal) save() error {
	if !j.dirty {
		return nil
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	// Write to a sibling file first so a crash never leaves a torn journal
	tmp, err := os.CreateTemp(dir, filepath.Base(j.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace journal file: %w", err)
	}

	j.dirty = false
	logger.Debug("Saved journal with %d entries to %s", len(j.Entries), j.path)
	return nil
}

// MarkDone records an image as processed. errMsg is the record's error, if any.
func (j *Journal) MarkDone(source, path, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Entries[key(source, path)] = Entry{
		Source:    source,
		Path:      path,
		Error:     errMsg,
		Timestamp: time.Now(),
	}
	j.dirty = true

	j.batchCount++
	if j.batchCount >= j.batchSize {
		j.batchCount = 0
		if err := j.save(); err != nil {
			logger.Error("Failed to save journal: %v", err)
		}
	}
}

// IsDone checks if an image has been processed
func (j *Journal) IsDone(source, path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, exists := j.Entries[key(source, path)]
	return exists
}

// Clear forgets every entry
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Entries = make(map[string]Entry)
	j.dirty = true
}

// Stats returns the number of processed images and how many of them failed
func (j *Journal) Stats() (total int, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	total = len(j.Entries)
	for _, entry := range j.Entries {
		if entry.Error != "" {
			failed++
		}
	}
	return total, failed
}

// ListFailed returns the sorted keys of images whose extraction reported an error
func (j *Journal) ListFailed() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	var failed []string
	for k, entry := range j.Entries {
		if entry.Error != "" {
			failed = append(failed, k)
		}
	}
	sort.Strings(failed)
	return failed
}
