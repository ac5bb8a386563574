package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bstardust/imgmeta/internal/logger"
)

func TestReporterCounts(t *testing.T) {
	var buf bytes.Buffer
	logger.Init("info", "text", &buf)
	t.Cleanup(func() { logger.Init("info", "text", nil) })

	r := New()
	r.updateInterval = 0
	r.Start(4)

	var wg sync.WaitGroup
	for _, name := range []string{"a.jpg", "b.jpg"} {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			r.Complete(n)
		}(name)
	}
	wg.Wait()
	r.Fail("c.jpg", "Failed to open image: image: unknown format")
	r.Skip("d.jpg")

	s := r.Finish()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Extracted)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 4, s.Processed())

	out := buf.String()
	assert.Contains(t, out, "Starting metadata scan of 4 images")
	assert.Contains(t, out, "Progress: 100.0%")
	assert.Contains(t, out, "Scan complete: 2/4 images extracted, 1 failed, 1 skipped")
}
