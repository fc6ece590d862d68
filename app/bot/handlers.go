package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rbhz/zh-dictionary/app/db"
)

const callbackIDQuizReply = "qr"

// Searcher looks up dictionary entries by keyword
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]db.Entry, error)
}

// Bot describes bot for handlers
type Bot interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	SendCallback(tgbotapi.CallbackConfig) (*tgbotapi.APIResponse, error)
	Searcher() Searcher
	HSK() db.HSKStorage
}

// neverPassthrough implements Passthrough with always false
type neverPassthrough struct{}

// Passthrough always returns false
func (h neverPassthrough) Passthrough(u tgbotapi.Update) bool {
	return false
}

// DefaultHandlers returns handlers of the lookup bot in match order
func DefaultHandlers() []Handler {
	return []Handler{
		StartHandler{},
		QuizHandler{},
		QuizReplyHandler{},
		SearchHandler{},
	}
}
