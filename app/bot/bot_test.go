package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbhz/zh-dictionary/app/db"
)

// fakeBot records sent messages
type fakeBot struct {
	sent      []tgbotapi.Chattable
	callbacks []tgbotapi.CallbackConfig
	searcher  Searcher
	hsk       db.HSKStorage
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) SendCallback(c tgbotapi.CallbackConfig) (*tgbotapi.APIResponse, error) {
	b.callbacks = append(b.callbacks, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) Searcher() Searcher {
	return b.searcher
}

func (b *fakeBot) HSK() db.HSKStorage {
	return b.hsk
}

// lastText returns text of the last sent message
func (b *fakeBot) lastText(t *testing.T) string {
	require.NotEmpty(t, b.sent)
	switch msg := b.sent[len(b.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return msg.Text
	case tgbotapi.EditMessageTextConfig:
		return msg.Text
	}
	t.Fatalf("unexpected message type %T", b.sent[len(b.sent)-1])
	return ""
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Text:      text,
			From:      &tgbotapi.User{ID: 10},
			Chat:      &tgbotapi.Chat{ID: 10},
		},
	}
}

func commandUpdate(text string) tgbotapi.Update {
	u := textUpdate(text)
	command := strings.SplitN(text, " ", 2)[0]
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return u
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "query",
			From:    &tgbotapi.User{ID: 10},
			Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 10}},
			Data:    data,
		},
	}
}

// recordingHandler counts handled updates
type recordingHandler struct {
	match       bool
	passthrough bool
	handled     *int
}

func (h recordingHandler) Match(tgbotapi.Update) bool       { return h.match }
func (h recordingHandler) Passthrough(tgbotapi.Update) bool { return h.passthrough }
func (h recordingHandler) Handle(context.Context, Bot, tgbotapi.Update) {
	*h.handled++
}

func TestProcessUpdate(t *testing.T) {
	var first, second, third, fourth int
	handlers := []Handler{
		recordingHandler{match: false, handled: &first},
		recordingHandler{match: true, passthrough: true, handled: &second},
		recordingHandler{match: true, handled: &third},
		recordingHandler{match: true, handled: &fourth},
	}
	processUpdate(context.Background(), &fakeBot{}, handlers, textUpdate("hi"))
	assert.Equal(t, []int{0, 1, 1, 0}, []int{first, second, third, fourth})
}

func TestDefaultHandlersMatch(t *testing.T) {
	cases := []struct {
		name    string
		update  tgbotapi.Update
		handler Handler
	}{
		{"start", commandUpdate("/start"), StartHandler{}},
		{"quiz", commandUpdate("/quiz 2"), QuizHandler{}},
		{"quiz reply", callbackUpdate("qr|1|0|1"), QuizReplyHandler{}},
		{"search", textUpdate("ni3 hao3"), SearchHandler{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var matched []Handler
			for _, h := range DefaultHandlers() {
				if h.Match(c.update) {
					matched = append(matched, h)
				}
			}
			require.Len(t, matched, 1)
			assert.IsType(t, c.handler, matched[0])
		})
	}
	t.Run("unknown command", func(t *testing.T) {
		for _, h := range DefaultHandlers() {
			assert.False(t, h.Match(commandUpdate("/settings")))
		}
	})
}

func TestStartHandler(t *testing.T) {
	b := &fakeBot{}
	StartHandler{}.Handle(context.Background(), b, commandUpdate("/start"))
	require.Len(t, b.sent, 1)
	assert.Equal(t, startText, b.lastText(t))
}
