package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/config"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/dialog"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/forecast"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/mailer"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/metrics"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/render"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/store"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/telegram"
)

type App struct {
	cfg      config.Config
	log      *zap.Logger
	loc      *time.Location
	defaults domain.UserConfig
	bot      *tgbotapi.BotAPI
	httpSrv  *http.Server
	repo     store.Repo
	dialog   *dialog.Dialog
	router   *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	loc, err := domain.ValidateTZ(cfg.TZ)
	if err != nil {
		return nil, err
	}
	defaults, err := defaultConfig(cfg)
	if err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	metrics.MustRegister()
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newMux(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, loc: loc, defaults: defaults, bot: bot, httpSrv: srv}, nil
}

// newMux serves liveness and Prometheus metrics.
func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// defaultConfig is the configuration of a chat with no stored session.
func defaultConfig(cfg config.Config) (domain.UserConfig, error) {
	report, err := domain.ParseClock(cfg.DefaultReportTime)
	if err != nil {
		return domain.UserConfig{}, fmt.Errorf("DEFAULT_REPORT_TIME: %w", err)
	}
	alert, err := domain.ParseClock(cfg.DefaultAlertTime)
	if err != nil {
		return domain.UserConfig{}, fmt.Errorf("DEFAULT_ALERT_TIME: %w", err)
	}
	return domain.UserConfig{
		City:       cfg.DefaultCity,
		Country:    cfg.DefaultCountry,
		ReportTime: report,
		AlertTime:  alert,
	}, nil
}

// mailerFactory builds per-chat Mailers sharing one forecast client, one
// renderer and one output path.
func mailerFactory(deps mailer.Deps, opts ...mailer.Option) dialog.MailerFactory {
	return func(chatID int64, cfg domain.UserConfig) dialog.Mailer {
		return mailer.New(chatID, cfg, deps, opts...)
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting umbrella-alert-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.loc.String()),
		zap.Duration("tick", a.cfg.TickInterval),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	weather := forecast.NewClient(a.cfg.OWMAPIKey, a.log,
		forecast.WithBaseURL(a.cfg.OWMBase),
		forecast.WithAttempts(a.cfg.FetchAttempts),
	)
	renderer := render.New(render.NewHTTPIcons(a.cfg.IconBase), a.cfg.RenderPath, a.loc, a.log)
	out := telegram.NewBot(a.bot)

	a.dialog = dialog.New(dialog.Deps{
		Messenger: out,
		Locator:   weather,
		Sessions:  repo,
		NewMailer: mailerFactory(mailer.Deps{
			Forecaster: weather,
			Renderer:   renderer,
			Sender:     out,
			Log:        a.log,
			Output:     &sync.Mutex{},
		}, mailer.WithTick(a.cfg.TickInterval), mailer.WithLocation(a.loc)),
		Log: a.log,
	}, a.defaults)
	a.router = telegram.NewRouter(a.dialog, a.log)

	if _, err := a.dialog.Restore(ctx); err != nil {
		a.log.Error("restore sessions failed", zap.Error(err))
	}
	if a.cfg.DefaultChatID != 0 {
		a.dialog.Ensure(ctx, a.cfg.DefaultChatID)
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.shutdown()
				return errors.New("telegram update channel closed")
			}
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()
	a.dialog.Shutdown()
	a.log.Info("mailers stopped")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
