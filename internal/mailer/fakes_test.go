package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
)

type fakeForecaster struct {
	mu      sync.Mutex
	snap    *domain.ForecastSnapshot
	err     error
	queries []domain.Query
	block   chan struct{} // when set, Forecast waits on it
	entered chan struct{} // signalled when Forecast is entered
}

func (f *fakeForecaster) Forecast(ctx context.Context, q domain.Query) (*domain.ForecastSnapshot, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	snap, err, block, entered := f.snap, f.err, f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	return snap, err
}

func (f *fakeForecaster) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeForecaster) set(snap *domain.ForecastSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(context.Context, *domain.ForecastSnapshot) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "/tmp/weather.png", nil
}

type sent struct {
	Kind    string
	Text    string
	Path    string
	Caption string
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (s *fakeSender) SendText(_ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, sent{Kind: "text", Text: text})
	return nil
}

func (s *fakeSender) SendPhoto(_ int64, path, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, sent{Kind: "photo", Path: path, Caption: caption})
	return nil
}

func (s *fakeSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.msgs...)
}

// stepClock advances by step on every read.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

var errFlaky = errors.New("provider down")

func snapshotOf(mains ...string) *domain.ForecastSnapshot {
	base := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)
	s := &domain.ForecastSnapshot{Place: domain.Place{City: "London", Country: "GB"}}
	for i, m := range mains {
		s.Samples = append(s.Samples, domain.Sample{Time: base.Add(time.Duration(i) * 3 * time.Hour), Main: m})
	}
	return s
}
