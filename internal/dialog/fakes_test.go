package dialog

import (
	"context"
	"sort"
	"sync"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/store"
)

type fakeMessenger struct {
	mu      sync.Mutex
	replies []Reply
}

func (f *fakeMessenger) Reply(_ int64, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	return nil
}

func (f *fakeMessenger) last() Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return Reply{}
	}
	return f.replies[len(f.replies)-1]
}

type fakeLocator struct {
	cities map[string]domain.Place
	err    error // returned by LookupCity for unknown names
	coords *domain.Place
}

func (f *fakeLocator) LookupCity(_ context.Context, name string) (domain.Place, error) {
	if p, ok := f.cities[name]; ok {
		return p, nil
	}
	if f.err != nil {
		return domain.Place{}, f.err
	}
	return domain.Place{}, domain.ErrLocationNotFound
}

func (f *fakeLocator) LookupCoords(_ context.Context, lat, lon float64) (domain.Place, error) {
	if f.coords == nil {
		return domain.Place{}, domain.ErrNoData
	}
	p := *f.coords
	p.Lat, p.Lon = lat, lon
	return p, nil
}

type fakeMailer struct {
	mu         sync.Mutex
	chatID     int64
	running    bool
	starts     int
	stops      int
	configures [][2]string
	places     []domain.Place
}

func (m *fakeMailer) Start(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	m.starts++
	return true
}

func (m *fakeMailer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.stops++
}

func (m *fakeMailer) Configure(_ context.Context, report, alert domain.Clock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configures = append(m.configures, [2]string{report.String(), alert.String()})
	return nil
}

func (m *fakeMailer) Relocate(_ context.Context, p domain.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places = append(m.places, p)
	return nil
}

func (m *fakeMailer) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

type mailerFarm struct {
	mu  sync.Mutex
	all []*fakeMailer
}

func (f *mailerFarm) factory(chatID int64, _ domain.UserConfig) Mailer {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &fakeMailer{chatID: chatID}
	f.all = append(f.all, m)
	return m
}

func (f *mailerFarm) running(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.all {
		if m.chatID == chatID && m.isRunning() {
			n++
		}
	}
	return n
}

func (f *mailerFarm) latest() *fakeMailer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.all) == 0 {
		return nil
	}
	return f.all[len(f.all)-1]
}

type memSessions struct {
	mu    sync.Mutex
	chats map[int64]store.Chat
}

func newMemSessions(seed ...store.Chat) *memSessions {
	s := &memSessions{chats: map[int64]store.Chat{}}
	for _, c := range seed {
		s.chats[c.ChatID] = c
	}
	return s
}

func (s *memSessions) UpsertChat(_ context.Context, c *store.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[c.ChatID] = *c
	return nil
}

func (s *memSessions) GetChat(_ context.Context, chatID int64) (*store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *memSessions) ListActive(context.Context) ([]store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Chat
	for _, c := range s.chats {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (s *memSessions) SetActive(_ context.Context, chatID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	c.Active = active
	s.chats[chatID] = c
	return nil
}

func (s *memSessions) get(chatID int64) (store.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	return c, ok
}
