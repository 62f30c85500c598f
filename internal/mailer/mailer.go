// Package mailer runs one chat's daily forecast report and umbrella alert.
package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/metrics"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/scheduler"
)

const (
	ReportCaption = "Have a nice day!"
	UmbrellaText  = "☔️☂️Looks like it's going to rain today, don't forget to bring an umbrella!"

	TriggerReport = "report"
	TriggerAlert  = "alert"

	defaultTick = time.Second
	queueSize   = 16
)

// Forecaster fetches a fresh snapshot.
type Forecaster interface {
	Forecast(ctx context.Context, q domain.Query) (*domain.ForecastSnapshot, error)
}

// Renderer turns a snapshot into an image file and returns its path.
type Renderer interface {
	Render(ctx context.Context, snap *domain.ForecastSnapshot) (string, error)
}

// Sender delivers messages to a chat.
type Sender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, path, caption string) error
}

// Deps are the collaborators of a Mailer.
type Deps struct {
	Forecaster Forecaster
	Renderer   Renderer
	Sender     Sender
	Log        *zap.Logger

	// Output, when set, is held from render until the photo is uploaded.
	// Mailers sharing one image path must share it.
	Output sync.Locker
}

// Option customizes a Mailer.
type Option func(*Mailer)

// WithTick sets the poll interval.
func WithTick(d time.Duration) Option { return func(m *Mailer) { m.tick = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Mailer) { m.now = now } }

// WithLocation sets the time zone report and alert times are read in.
func WithLocation(loc *time.Location) Option { return func(m *Mailer) { m.loc = loc } }

// command mutates loop-owned state. It runs on the loop goroutine while the
// loop is running, otherwise under mu.
type command func(m *Mailer, now time.Time)

// Mailer owns one chat's configuration, schedule and latest snapshot.
// Callers never touch that state directly: changes are queued as commands
// and applied at the start of the next tick.
type Mailer struct {
	chatID int64
	deps   Deps
	log    *zap.Logger
	tick   time.Duration
	now    func() time.Time
	loc    *time.Location

	cmds chan command

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// loop-owned
	cfg    domain.UserConfig
	latest *domain.ForecastSnapshot
	sched  *scheduler.Schedule
}

// New creates a stopped Mailer with report and alert entries taken from cfg.
func New(chatID int64, cfg domain.UserConfig, deps Deps, opts ...Option) *Mailer {
	m := &Mailer{
		chatID: chatID,
		deps:   deps,
		tick:   defaultTick,
		now:    time.Now,
		loc:    time.UTC,
		cmds:   make(chan command, queueSize),
		cfg:    cfg,
	}
	for _, o := range opts {
		o(m)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
		m.deps.Log = deps.Log
	}
	m.log = deps.Log.With(zap.Int64("chatID", chatID))
	m.sched = scheduler.New(m.loc, m.log)
	m.register(m.now())
	return m
}

// Start launches the loop unless it already runs. It reports whether a new
// loop was started.
func (m *Mailer) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(ctx, m.done)
	return true
}

// Stop cancels the loop and waits for it to return. A trigger already
// executing finishes first; none starts afterwards.
func (m *Mailer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.running = false
	m.cancel = nil
	m.log.Info("mailer stopped")
}

// Running reports whether the loop is active.
func (m *Mailer) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Configure replaces all entries with one daily report and one daily alert.
func (m *Mailer) Configure(ctx context.Context, report, alert domain.Clock) error {
	return m.submit(ctx, func(m *Mailer, now time.Time) {
		m.cfg.ReportTime, m.cfg.AlertTime = report, alert
		m.register(now)
		m.log.Info("schedule updated",
			zap.String("report", report.String()), zap.String("alert", alert.String()))
	})
}

// Relocate points future fetches at p.
func (m *Mailer) Relocate(ctx context.Context, p domain.Place) error {
	return m.submit(ctx, func(m *Mailer, _ time.Time) {
		m.cfg = m.cfg.WithPlace(p)
		m.log.Info("location updated", zap.String("city", p.City), zap.String("country", p.Country))
	})
}

// Entries returns the current schedule. While running it waits for the next tick.
func (m *Mailer) Entries(ctx context.Context) ([]scheduler.Entry, error) {
	var out []scheduler.Entry
	err := m.query(ctx, func(m *Mailer) { out = m.sched.Entries() })
	return out, err
}

// Config returns the configuration the loop is using.
func (m *Mailer) Config(ctx context.Context) (domain.UserConfig, error) {
	var out domain.UserConfig
	err := m.query(ctx, func(m *Mailer) { out = m.cfg })
	return out, err
}

func (m *Mailer) query(ctx context.Context, read func(m *Mailer)) error {
	ready := make(chan struct{})
	if err := m.submit(ctx, func(m *Mailer, _ time.Time) {
		read(m)
		close(ready)
	}); err != nil {
		return err
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) submit(ctx context.Context, cmd command) error {
	m.mu.Lock()
	if !m.running {
		defer m.mu.Unlock()
		now := m.now()
		m.drain(now)
		cmd(m, now)
		return nil
	}
	m.mu.Unlock()

	select {
	case m.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) drain(now time.Time) {
	for {
		select {
		case cmd := <-m.cmds:
			cmd(m, now)
		default:
			return
		}
	}
}

func (m *Mailer) register(now time.Time) {
	m.sched.Clear()
	m.sched.Daily(TriggerReport, m.cfg.ReportTime, m.reportDue, now)
	m.sched.Daily(TriggerAlert, m.cfg.AlertTime, m.alertDue, now)
}

func (m *Mailer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	metrics.LoopStarted()
	defer metrics.LoopStopped()

	m.log.Info("mailer started", zap.Duration("tick", m.tick))
	scheduler.Run(ctx, m.tick, m.now, m.onTick)
}

// onTick applies queued commands, then fires due triggers in order.
func (m *Mailer) onTick(ctx context.Context, now time.Time) {
	m.drain(now)
	m.sched.RunPending(ctx, now)
}

// reportDue fetches, remembers, renders and sends today's forecast.
func (m *Mailer) reportDue(ctx context.Context) {
	log := m.log.With(zap.String("trigger", TriggerReport), zap.String("cycle", uuid.NewString()))
	start := time.Now()
	defer func() { metrics.ObserveTrigger(TriggerReport, time.Since(start)) }()

	snap, err := m.deps.Forecaster.Forecast(ctx, m.cfg.Query())
	if err != nil {
		// A stale snapshot from an earlier day must not drive today's alert.
		m.latest = nil
		metrics.IncDelivery(TriggerReport, "no_data")
		log.Warn("report skipped, no forecast", zap.Error(err))
		return
	}
	m.latest = snap

	if m.deps.Output != nil {
		m.deps.Output.Lock()
		defer m.deps.Output.Unlock()
	}
	path, err := m.deps.Renderer.Render(ctx, snap)
	if err != nil {
		metrics.IncDelivery(TriggerReport, "render_failed")
		log.Error("report skipped, render failed", zap.Error(err))
		return
	}
	if err := m.deps.Sender.SendPhoto(m.chatID, path, ReportCaption); err != nil {
		metrics.IncDelivery(TriggerReport, "send_failed")
		log.Error("send report failed", zap.Error(err))
		return
	}
	metrics.IncDelivery(TriggerReport, "ok")
	log.Info("report sent", zap.String("city", snap.Place.City))
}

// alertDue checks the snapshot left by the last report; it never fetches.
func (m *Mailer) alertDue(ctx context.Context) {
	log := m.log.With(zap.String("trigger", TriggerAlert), zap.String("cycle", uuid.NewString()))
	start := time.Now()
	defer func() { metrics.ObserveTrigger(TriggerAlert, time.Since(start)) }()

	if m.latest == nil {
		metrics.IncDelivery(TriggerAlert, "no_snapshot")
		log.Info("alert skipped, no snapshot from a prior report")
		return
	}
	if !m.latest.WantsUmbrella() {
		metrics.IncDelivery(TriggerAlert, "dry")
		log.Debug("no precipitation expected", zap.Strings("conditions", m.latest.Conditions()))
		return
	}
	if err := m.deps.Sender.SendText(m.chatID, UmbrellaText); err != nil {
		metrics.IncDelivery(TriggerAlert, "send_failed")
		log.Error("send alert failed", zap.Error(err))
		return
	}
	metrics.IncDelivery(TriggerAlert, "ok")
	log.Info("umbrella alert sent")
}
