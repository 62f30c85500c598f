package telegram

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/dialog"
)

type recorder struct{ calls []string }

func (r *recorder) Start(_ context.Context, id int64) { r.add("start", id) }
func (r *recorder) Stop(_ context.Context, id int64) { r.add("stop", id) }
func (r *recorder) Help(_ context.Context, id int64) { r.add("help", id) }
func (r *recorder) Finish(_ context.Context, id int64) { r.add("done", id) }
func (r *recorder) Text(_ context.Context, id int64, text string) {
	r.add("text:"+text, id)
}
func (r *recorder) Location(_ context.Context, id int64, lat, lon float64) {
	r.add(fmt.Sprintf("location:%.2f,%.2f", lat, lon), id)
}

func (r *recorder) add(what string, id int64) {
	r.calls = append(r.calls, fmt.Sprintf("%d %s", id, what))
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

func commandUpdate(chatID int64, cmd string) tgbotapi.Update {
	upd := textUpdate(chatID, cmd)
	upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return upd
}

func TestHandleUpdate_Routing(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(rec, zap.NewNop())
	ctx := context.Background()

	updates := []tgbotapi.Update{
		commandUpdate(1, "/start"),
		textUpdate(1, dialog.ButtonCity),
		textUpdate(1, "  Paris "),
		{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Location: &tgbotapi.Location{Latitude: 52.52, Longitude: 13.4}}},
		textUpdate(1, dialog.ButtonDone),
		commandUpdate(2, "/help"),
		commandUpdate(2, "/stop"),
		commandUpdate(2, "/weather"),
		textUpdate(2, ""),
		{},
	}
	for _, u := range updates {
		r.HandleUpdate(ctx, u)
	}

	want := []string{
		"1 start",
		"1 text:City",
		"1 text:Paris",
		"1 location:52.52,13.40",
		"1 done",
		"2 help",
		"2 stop",
		"2 help",
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

type fakeAPI struct{ sent []tgbotapi.Chattable }

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestBot_SendPhotoSilent(t *testing.T) {
	api := &fakeAPI{}
	b := NewBot(api)
	if err := b.SendPhoto(9, "/tmp/weather.png", "Have a nice day!"); err != nil {
		t.Fatal(err)
	}
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("sent %T, want PhotoConfig", api.sent[0])
	}
	if photo.ChatID != 9 || photo.Caption != "Have a nice day!" || !photo.DisableNotification {
		t.Fatalf("unexpected photo config %+v", photo)
	}
	if photo.File != tgbotapi.FilePath("/tmp/weather.png") {
		t.Fatalf("file = %v", photo.File)
	}
}

func TestBot_ReplyKeyboards(t *testing.T) {
	api := &fakeAPI{}
	b := NewBot(api)

	_ = b.Reply(1, dialog.Reply{Text: "menu", Keyboard: dialog.MenuKeyboard})
	_ = b.Reply(1, dialog.Reply{Text: "loc", Keyboard: dialog.LocationKeyboard})
	_ = b.Reply(1, dialog.Reply{Text: "bye", Keyboard: dialog.RemoveKeyboard})
	_ = b.Reply(1, dialog.Reply{Text: "plain"})

	msgs := make([]tgbotapi.MessageConfig, len(api.sent))
	for i, c := range api.sent {
		msgs[i] = c.(tgbotapi.MessageConfig)
	}

	menu := msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	var labels [][]string
	for _, row := range menu.Keyboard {
		var l []string
		for _, btn := range row {
			l = append(l, btn.Text)
		}
		labels = append(labels, l)
	}
	want := [][]string{{"City", "Report time", "Alert time"}, {"📍 Location"}, {"Done"}}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("menu (-want +got):\n%s", diff)
	}

	loc := msgs[1].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !loc.Keyboard[0][0].RequestLocation {
		t.Fatal("location button does not request location")
	}
	if rm, ok := msgs[2].ReplyMarkup.(tgbotapi.ReplyKeyboardRemove); !ok || !rm.RemoveKeyboard {
		t.Fatalf("want keyboard removal, got %#v", msgs[2].ReplyMarkup)
	}
	if msgs[3].ReplyMarkup != nil {
		t.Fatalf("plain reply carries markup %#v", msgs[3].ReplyMarkup)
	}
}
