package dialog

import (
	"fmt"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
)

// Menu button labels.
const (
	ButtonCity       = "City"
	ButtonReportTime = "Report time"
	ButtonAlertTime  = "Alert time"
	ButtonLocation   = "📍 Location"
	ButtonDone       = "Done"
)

const (
	TextTechnical    = "Sorry, technical problems"
	TextCityNotFound = "City is not found. Please try again or choose location"
	TextBadTime      = "Please specify the time again between 00:00 - 23:59 (e.g. 08:00)"
	TextGoodLuck     = "🌞Good luck!"

	textAskLocation = "Tap the button below to share your location."
	textChoose      = "Choose a setting from the menu below or press Done."
	textNotStarted  = "Send /start to set up your daily forecast."
	textLocationOff = "No location pending. Press 📍 Location first."

	textHelp = "I send a weather chart every day at the report time and warn you " +
		"at the alert time if rain, drizzle or a thunderstorm is expected.\n\n" +
		"/start - show the settings menu and start the daily report\n" +
		"/stop - stop sending reports\n" +
		"/help - this message\n\n" +
		"Times are entered as HH:MM, e.g. 08:00."
)

func greeting(cfg domain.UserConfig) string {
	return "👋 Welcome to our daily weather forecast bot! I will send you a weather report every morning " +
		"and remind you to bring an umbrella if needed. " +
		"Please provide your settings for the following parameters:\n" +
		fmt.Sprintf("🏙️ City: %s\n⏰️ Report time: %s\n☂️ Umbrella alert time: %s\n\n",
			placeName(cfg), cfg.ReportTime, cfg.AlertTime) +
		"To update your settings, use the menu buttons below. If you need help, use the '/help' command."
}

func configuration(cfg domain.UserConfig) string {
	return fmt.Sprintf("Configuration:\nCity: %s\nReport time: %s\nAlert time: %s",
		placeName(cfg), cfg.ReportTime, cfg.AlertTime)
}

func prompt(f Field, cfg domain.UserConfig) string {
	return fmt.Sprintf("Enter %s (current: %s):", f, f.value(cfg))
}

func placeName(cfg domain.UserConfig) string {
	if cfg.Country == "" {
		return cfg.City
	}
	return cfg.City + ", " + cfg.Country
}
