package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/dialog"
)

// Conversation is the dialog surface the router feeds. *dialog.Dialog satisfies it.
type Conversation interface {
	Start(ctx context.Context, chatID int64)
	Stop(ctx context.Context, chatID int64)
	Help(ctx context.Context, chatID int64)
	Finish(ctx context.Context, chatID int64)
	Text(ctx context.Context, chatID int64, text string)
	Location(ctx context.Context, chatID int64, lat, lon float64)
}

// Router translates Telegram updates into conversation inputs.
type Router struct {
	conv Conversation
	log  *zap.Logger
}

// NewRouter creates a new Telegram router.
func NewRouter(conv Conversation, log *zap.Logger) *Router {
	return &Router{conv: conv, log: log}
}

// HandleUpdate routes a single update. Anything but a message is ignored.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.Location != nil {
		r.conv.Location(ctx, chatID, msg.Location.Latitude, msg.Location.Longitude)
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			r.conv.Start(ctx, chatID)
		case "stop":
			r.conv.Stop(ctx, chatID)
		case "help":
			r.conv.Help(ctx, chatID)
		default:
			r.log.Debug("unknown command", zap.Int64("chatID", chatID), zap.String("command", msg.Command()))
			r.conv.Help(ctx, chatID)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "":
		// stickers, photos and the like
	case text == dialog.ButtonDone:
		r.conv.Finish(ctx, chatID)
	default:
		r.conv.Text(ctx, chatID, text)
	}
}
