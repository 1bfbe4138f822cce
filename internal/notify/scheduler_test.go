package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Scheduler{Every: time.Minute}
	assert.Equal(t, now.Add(time.Minute), s.Next(now))
	assert.True(t, (&Scheduler{}).Next(now).IsZero())
}

func TestRunTicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	done := make(chan struct{})
	go func() {
		(&Scheduler{Every: 5 * time.Millisecond}).Run(ctx, func(context.Context) { n.Add(1) })
		close(done)
	}()
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunDisabled(t *testing.T) {
	called := false
	(&Scheduler{}).Run(context.Background(), func(context.Context) { called = true })
	assert.False(t, called)
}
