// Package scheduler keeps a table of daily triggers and the tick loop that
// fires them.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
)

// Job is the body of a trigger.
type Job func(ctx context.Context)

// Entry is a job bound to a time of day.
type Entry struct {
	Name string
	At   domain.Clock
	Next time.Time // next due moment
	job  Job
}

// Schedule holds daily entries. It is not safe for concurrent use; the
// owning loop is its only user.
type Schedule struct {
	loc     *time.Location
	log     *zap.Logger
	entries []*Entry
}

// New creates an empty schedule evaluating times of day in loc.
func New(loc *time.Location, log *zap.Logger) *Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{loc: loc, log: log}
}

// Clear drops every entry.
func (s *Schedule) Clear() {
	s.entries = nil
}

// Daily registers job to run every day at the given time, first at the next
// occurrence after now.
func (s *Schedule) Daily(name string, at domain.Clock, job Job, now time.Time) {
	s.entries = append(s.entries, &Entry{
		Name: name,
		At:   at,
		Next: domain.NextDaily(now, at, s.loc),
		job:  job,
	})
}

// Entries returns a copy of the registered entries.
func (s *Schedule) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of entries.
func (s *Schedule) Len() int { return len(s.entries) }

// RunPending runs, one after another, every entry whose due time is not after
// now, then moves it to its next daily occurrence. It returns how many ran.
// A panicking job is logged and does not affect the others.
func (s *Schedule) RunPending(ctx context.Context, now time.Time) int {
	ran := 0
	for _, e := range s.entries {
		if e.Next.After(now) {
			continue
		}
		if ctx.Err() != nil {
			return ran
		}
		s.run(ctx, e)
		e.Next = domain.NextDaily(now, e.At, s.loc)
		ran++
	}
	return ran
}

func (s *Schedule) run(ctx context.Context, e *Entry) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("trigger panicked", zap.String("trigger", e.Name), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	e.job(ctx)
}

// Run calls tick once per interval until ctx is canceled. The tick in flight
// when ctx is canceled is allowed to finish.
func Run(ctx context.Context, interval time.Duration, now func() time.Time, tick func(ctx context.Context, now time.Time)) {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Prefer cancellation over a tick that raced with it.
			if ctx.Err() != nil {
				return
			}
			tick(ctx, now())
		}
	}
}
