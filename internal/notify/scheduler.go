package notify

import (
	"context"
	"time"
)

// Scheduler runs a job at a fixed interval.
type Scheduler struct {
	Every time.Duration
}

// Next returns the deadline after now, or the zero time when disabled.
func (s *Scheduler) Next(now time.Time) time.Time {
	if s.Every <= 0 {
		return time.Time{}
	}
	return now.Add(s.Every)
}

// Run calls fn at every Next deadline until ctx is done. A non-positive
// interval returns at once.
func (s *Scheduler) Run(ctx context.Context, fn func(context.Context)) {
	for {
		next := s.Next(time.Now())
		if next.IsZero() {
			return
		}
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			fn(ctx)
		}
	}
}
