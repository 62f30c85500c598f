package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	OWMAPIKey string `envconfig:"OWM_API_KEY" required:"true"`
	OWMBase   string `envconfig:"OWM_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
	IconBase  string `envconfig:"OWM_ICON_URL" default:"https://openweathermap.org/img/wn"`

	FetchAttempts int           `envconfig:"FETCH_ATTEMPTS" default:"10"`
	TickInterval  time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	TZ            string        `envconfig:"TZ_NAME" default:"Europe/London"` // schedule time zone

	DBPath     string `envconfig:"DB_PATH" default:"./data/umbrella.db"`
	RenderPath string `envconfig:"RENDER_PATH" default:"./data/weather.png"`

	DefaultCity       string `envconfig:"DEFAULT_CITY" default:"London"`
	DefaultCountry    string `envconfig:"DEFAULT_COUNTRY" default:"GB"`
	DefaultReportTime string `envconfig:"DEFAULT_REPORT_TIME" default:"08:00"`
	DefaultAlertTime  string `envconfig:"DEFAULT_ALERT_TIME" default:"08:30"`
	DefaultChatID     int64  `envconfig:"DEFAULT_CHAT_ID"` // optional, 0 = none

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json|console
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics
}

// Load reads environment variables into Config. A ./.env file, when present,
// fills in variables the environment does not set.
func Load() (Config, error) {
	var cfg Config
	if err := loadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
