package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/dialog"
)

// Sender is the subset of *tgbotapi.BotAPI used for outgoing messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot delivers mailer output and dialog replies to Telegram chats.
type Bot struct {
	api Sender
}

// NewBot wraps a Telegram client.
func NewBot(api Sender) *Bot {
	return &Bot{api: api}
}

// SendText sends a plain text message.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendPhoto uploads the image at path silently, with a caption.
func (b *Bot) SendPhoto(chatID int64, path, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.DisableNotification = true
	_, err := b.api.Send(photo)
	return err
}

// Reply sends a dialog reply with its keyboard.
func (b *Bot) Reply(chatID int64, r dialog.Reply) error {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if m := markup(r.Keyboard); m != nil {
		msg.ReplyMarkup = m
	}
	_, err := b.api.Send(msg)
	return err
}
