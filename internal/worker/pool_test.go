package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)

	var running, peak, done int32
	for i := 0; i < 10; i++ {
		p.Submit(func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
			return nil
		})
	}

	assert.NoError(t, p.Wait())
	assert.Equal(t, int32(10), done)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestPoolFirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool(context.Background(), 1)

	p.Submit(func(ctx context.Context) error { return boom })
	p.Submit(func(ctx context.Context) error { return ctx.Err() })

	assert.ErrorIs(t, p.Wait(), boom)
	assert.Error(t, p.Context().Err())
}
