// Package dialog implements the per-chat settings conversation and owns each
// chat's Mailer.
package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/store"
)

// Keyboard selects the reply keyboard sent along with a message.
type Keyboard int

const (
	KeepKeyboard Keyboard = iota
	MenuKeyboard
	LocationKeyboard
	RemoveKeyboard
)

// Reply is one outgoing chat message.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Messenger delivers dialog replies.
type Messenger interface {
	Reply(chatID int64, r Reply) error
}

// Locator validates a city name and resolves coordinates to a place.
type Locator interface {
	LookupCity(ctx context.Context, name string) (domain.Place, error)
	LookupCoords(ctx context.Context, lat, lon float64) (domain.Place, error)
}

// Mailer is the per-chat delivery loop the dialog drives.
type Mailer interface {
	Start(ctx context.Context) bool
	Stop()
	Configure(ctx context.Context, report, alert domain.Clock) error
	Relocate(ctx context.Context, p domain.Place) error
}

// MailerFactory builds a stopped Mailer for a chat.
type MailerFactory func(chatID int64, cfg domain.UserConfig) Mailer

// Sessions persists chat sessions. *store.SQLiteRepo satisfies it.
type Sessions interface {
	UpsertChat(ctx context.Context, c *store.Chat) error
	GetChat(ctx context.Context, chatID int64) (*store.Chat, error)
	ListActive(ctx context.Context) ([]store.Chat, error)
	SetActive(ctx context.Context, chatID int64, active bool) error
}

// Deps are the collaborators of a Dialog.
type Deps struct {
	Messenger Messenger
	Locator   Locator
	Sessions  Sessions
	NewMailer MailerFactory
	Log       *zap.Logger
}

type session struct {
	mu     sync.Mutex
	state  State
	field  Field
	cfg    domain.UserConfig
	record *store.Chat
	mailer Mailer
}

// Dialog routes chat inputs through the conversation states.
type Dialog struct {
	deps     Deps
	log      *zap.Logger
	defaults domain.UserConfig

	mu       sync.Mutex
	sessions map[int64]*session
}

// New creates a Dialog. defaults seed chats that have no stored session.
func New(deps Deps, defaults domain.UserConfig) *Dialog {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Dialog{
		deps:     deps,
		log:      deps.Log,
		defaults: defaults,
		sessions: make(map[int64]*session),
	}
}

// session returns the chat's session, creating an Idle one on first use.
// The returned session is locked.
func (d *Dialog) session(chatID int64) *session {
	d.mu.Lock()
	s, ok := d.sessions[chatID]
	if !ok {
		s = &session{state: Idle, cfg: d.defaults}
		d.sessions[chatID] = s
	}
	d.mu.Unlock()
	s.mu.Lock()
	return s
}

// State returns the current state of a chat.
func (d *Dialog) State(chatID int64) State {
	s := d.session(chatID)
	defer s.mu.Unlock()
	return s.state
}

// Config returns the chat's current settings.
func (d *Dialog) Config(chatID int64) domain.UserConfig {
	s := d.session(chatID)
	defer s.mu.Unlock()
	return s.cfg
}

// Start (/start) loads the chat's settings, replaces its Mailer with a fresh
// running one and shows the menu.
func (d *Dialog) Start(ctx context.Context, chatID int64) {
	s := d.session(chatID)
	defer s.mu.Unlock()

	d.load(ctx, chatID, s)
	d.launch(ctx, chatID, s)
	s.state, s.field = Collecting, FieldNone
	d.persist(ctx, chatID, s)
	d.reply(chatID, Reply{Text: greeting(s.cfg), Keyboard: MenuKeyboard})
}

// Stop (/stop) stops the chat's Mailer and ends the conversation.
func (d *Dialog) Stop(ctx context.Context, chatID int64) {
	s := d.session(chatID)
	defer s.mu.Unlock()

	if s.mailer != nil {
		s.mailer.Stop()
		s.mailer = nil
		d.log.Info("mailer stopped by chat", zap.Int64("chatID", chatID))
	}
	if err := d.deps.Sessions.SetActive(ctx, chatID, false); err != nil && !errors.Is(err, store.ErrNotFound) {
		d.log.Error("deactivate session failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
	if s.record != nil {
		s.record.Active = false
	}
	s.state, s.field = Done, FieldNone
	d.reply(chatID, Reply{Text: TextGoodLuck, Keyboard: RemoveKeyboard})
}

// Help (/help) prints usage. The state is unchanged.
func (d *Dialog) Help(_ context.Context, chatID int64) {
	d.reply(chatID, Reply{Text: textHelp})
}

// Finish ("Done") ends the conversation. The Mailer keeps running.
func (d *Dialog) Finish(_ context.Context, chatID int64) {
	s := d.session(chatID)
	defer s.mu.Unlock()

	s.state, s.field = Done, FieldNone
	d.reply(chatID, Reply{Text: TextGoodLuck, Keyboard: RemoveKeyboard})
}

// Text handles a free-text message: a menu choice or a pending field value.
func (d *Dialog) Text(ctx context.Context, chatID int64, text string) {
	s := d.session(chatID)
	defer s.mu.Unlock()
	text = strings.TrimSpace(text)

	switch s.state {
	case Idle, Done:
		d.reply(chatID, Reply{Text: textNotStarted})
	case Collecting:
		d.choose(chatID, s, text)
	case AwaitingFieldValue:
		d.answer(ctx, chatID, s, text)
	case AwaitingLocation:
		if _, ok := fieldFor(text); ok {
			d.choose(chatID, s, text)
			return
		}
		d.reply(chatID, Reply{Text: textAskLocation, Keyboard: LocationKeyboard})
	}
}

// Location handles a shared location.
func (d *Dialog) Location(ctx context.Context, chatID int64, lat, lon float64) {
	s := d.session(chatID)
	defer s.mu.Unlock()

	if s.state != AwaitingLocation {
		d.reply(chatID, Reply{Text: textLocationOff})
		return
	}

	p, err := d.deps.Locator.LookupCoords(ctx, lat, lon)
	if err != nil {
		d.log.Warn("reverse lookup failed, keeping previous names",
			zap.Int64("chatID", chatID), zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		p = domain.Place{City: s.cfg.City, Country: s.cfg.Country}
	}
	p.Lat, p.Lon = lat, lon
	if p.City == "" {
		p.City = s.cfg.City
	}
	d.relocate(ctx, chatID, s, p)
}

func (d *Dialog) choose(chatID int64, s *session, text string) {
	if text == ButtonLocation {
		s.state, s.field = AwaitingLocation, FieldNone
		d.reply(chatID, Reply{Text: textAskLocation, Keyboard: LocationKeyboard})
		return
	}
	f, ok := fieldFor(text)
	if !ok {
		s.state, s.field = Collecting, FieldNone
		d.reply(chatID, Reply{Text: textChoose, Keyboard: MenuKeyboard})
		return
	}
	s.state, s.field = AwaitingFieldValue, f
	d.reply(chatID, Reply{Text: prompt(f, s.cfg)})
}

func (d *Dialog) answer(ctx context.Context, chatID int64, s *session, text string) {
	f := s.field
	s.state, s.field = Collecting, FieldNone

	switch f {
	case FieldCity:
		p, err := d.deps.Locator.LookupCity(ctx, text)
		switch {
		case errors.Is(err, domain.ErrLocationNotFound):
			d.log.Info("city not found", zap.Int64("chatID", chatID), zap.String("city", text))
			d.reply(chatID, Reply{Text: TextCityNotFound, Keyboard: MenuKeyboard})
			return
		case err != nil:
			d.log.Error("city lookup failed", zap.Int64("chatID", chatID), zap.String("city", text), zap.Error(err))
			d.reply(chatID, Reply{Text: TextTechnical, Keyboard: MenuKeyboard})
			return
		}
		if p.City == "" {
			p.City = text
		}
		d.relocate(ctx, chatID, s, p)

	case FieldReportTime, FieldAlertTime:
		c, err := domain.ParseClock(text)
		if err != nil {
			d.reply(chatID, Reply{Text: TextBadTime, Keyboard: MenuKeyboard})
			return
		}
		if f == FieldReportTime {
			s.cfg.ReportTime = c
		} else {
			s.cfg.AlertTime = c
		}
		if s.mailer != nil {
			if err := s.mailer.Configure(ctx, s.cfg.ReportTime, s.cfg.AlertTime); err != nil {
				d.log.Error("reschedule failed", zap.Int64("chatID", chatID), zap.Error(err))
			}
		}
		d.persist(ctx, chatID, s)
		d.reply(chatID, Reply{Text: configuration(s.cfg), Keyboard: MenuKeyboard})

	default:
		d.reply(chatID, Reply{Text: textChoose, Keyboard: MenuKeyboard})
	}
}

func (d *Dialog) relocate(ctx context.Context, chatID int64, s *session, p domain.Place) {
	s.cfg = s.cfg.WithPlace(p)
	s.state, s.field = Collecting, FieldNone
	if s.mailer != nil {
		if err := s.mailer.Relocate(ctx, p); err != nil {
			d.log.Error("relocate failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
	}
	d.persist(ctx, chatID, s)
	d.reply(chatID, Reply{Text: configuration(s.cfg), Keyboard: MenuKeyboard})
}

// Ensure makes sure the chat has a running Mailer without starting a
// conversation. Used for a preconfigured chat at boot.
func (d *Dialog) Ensure(ctx context.Context, chatID int64) {
	s := d.session(chatID)
	defer s.mu.Unlock()

	if s.mailer != nil {
		return
	}
	d.load(ctx, chatID, s)
	d.launch(ctx, chatID, s)
	if s.state == Idle {
		s.state = Done
	}
	d.persist(ctx, chatID, s)
}

// Restore starts a Mailer for every active stored session. It returns the
// number of restored chats.
func (d *Dialog) Restore(ctx context.Context) (int, error) {
	chats, err := d.deps.Sessions.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	for i := range chats {
		c := chats[i]
		s := d.session(c.ChatID)
		if s.mailer == nil {
			s.record = &c
			s.cfg = c.Config
			d.launch(ctx, c.ChatID, s)
			s.state = Done
		}
		s.mu.Unlock()
	}
	d.log.Info("sessions restored", zap.Int("count", len(chats)))
	return len(chats), nil
}

// Shutdown stops every Mailer and waits for all of them.
func (d *Dialog) Shutdown() {
	d.mu.Lock()
	list := make([]*session, 0, len(d.sessions))
	for _, s := range d.sessions {
		list = append(list, s)
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range list {
		s.mu.Lock()
		m := s.mailer
		s.mailer = nil
		s.mu.Unlock()
		if m == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Stop()
		}()
	}
	wg.Wait()
}

// load replaces the session's settings with the stored ones, or the defaults.
func (d *Dialog) load(ctx context.Context, chatID int64, s *session) {
	c, err := d.deps.Sessions.GetChat(ctx, chatID)
	switch {
	case err == nil:
		s.record, s.cfg = c, c.Config
	case errors.Is(err, store.ErrNotFound):
		if s.record == nil {
			s.cfg = d.defaults
		}
	default:
		d.log.Error("load session failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// launch replaces the session's Mailer with a fresh running one.
func (d *Dialog) launch(ctx context.Context, chatID int64, s *session) {
	if s.mailer != nil {
		s.mailer.Stop()
	}
	m := d.deps.NewMailer(chatID, s.cfg)
	if err := m.Configure(ctx, s.cfg.ReportTime, s.cfg.AlertTime); err != nil {
		d.log.Error("configure mailer failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
	// The Mailer outlives the update that started it.
	m.Start(context.WithoutCancel(ctx))
	s.mailer = m
	d.log.Info("mailer launched", zap.Int64("chatID", chatID),
		zap.String("report", s.cfg.ReportTime.String()), zap.String("alert", s.cfg.AlertTime.String()))
}

func (d *Dialog) persist(ctx context.Context, chatID int64, s *session) {
	if s.record == nil {
		s.record = &store.Chat{ChatID: chatID}
	}
	s.record.Config = s.cfg
	s.record.Active = s.mailer != nil
	if err := d.deps.Sessions.UpsertChat(ctx, s.record); err != nil {
		d.log.Error("persist session failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (d *Dialog) reply(chatID int64, r Reply) {
	if err := d.deps.Messenger.Reply(chatID, r); err != nil {
		d.log.Warn("reply failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
