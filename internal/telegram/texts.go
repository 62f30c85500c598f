package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/dialog"
)

const textLocationButton = "📍 Send my location"

// mainMenuKeyboard is the settings menu shown while collecting.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialog.ButtonCity),
			tgbotapi.NewKeyboardButton(dialog.ButtonReportTime),
			tgbotapi.NewKeyboardButton(dialog.ButtonAlertTime),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialog.ButtonLocation),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialog.ButtonDone),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// locationKeyboard asks the client to share its location.
func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(textLocationButton),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialog.ButtonDone),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// markup maps a dialog keyboard to Telegram reply markup; nil keeps the
// client's current keyboard.
func markup(k dialog.Keyboard) any {
	switch k {
	case dialog.MenuKeyboard:
		return mainMenuKeyboard()
	case dialog.LocationKeyboard:
		return locationKeyboard()
	case dialog.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}
