package store

import (
	"fmt"
	"time"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
)

// Chat is the persisted session of one chat.
type Chat struct {
	ChatID    int64
	Config    domain.UserConfig
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// chatRow mirrors a chats row before conversion.
type chatRow struct {
	chatID     int64
	createdAt  int64
	city       string
	country    string
	lat, lon   float64
	hasCoords  int
	reportTime string
	alertTime  string
	active     int
	updatedAt  int64
}

func (r chatRow) chat() (Chat, error) {
	report, err := domain.ParseClock(r.reportTime)
	if err != nil {
		return Chat{}, fmt.Errorf("chat %d report_time: %w", r.chatID, err)
	}
	alert, err := domain.ParseClock(r.alertTime)
	if err != nil {
		return Chat{}, fmt.Errorf("chat %d alert_time: %w", r.chatID, err)
	}
	return Chat{
		ChatID: r.chatID,
		Config: domain.UserConfig{
			City:       r.city,
			Country:    r.country,
			Lat:        r.lat,
			Lon:        r.lon,
			HasCoords:  r.hasCoords != 0,
			ReportTime: report,
			AlertTime:  alert,
		},
		Active:    r.active != 0,
		CreatedAt: fromUnix(r.createdAt),
		UpdatedAt: fromUnix(r.updatedAt),
	}, nil
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
