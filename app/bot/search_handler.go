package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const maxSearchResults = 5

// SearchHandler replies to text messages with dictionary entries
type SearchHandler struct {
	neverPassthrough
}

// Match returns true if message is a text
func (h SearchHandler) Match(u tgbotapi.Update) bool {
	return u.Message != nil && strings.TrimSpace(u.Message.Text) != "" && !u.Message.IsCommand()
}

// Handle searches the dictionary and sends found entries
func (h SearchHandler) Handle(ctx context.Context, b Bot, u tgbotapi.Update) {
	keyword := strings.TrimSpace(u.Message.Text)
	entries, err := b.Searcher().Search(ctx, keyword, maxSearchResults)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("failed to search dictionary")
		_, _ = b.Send(tgbotapi.NewMessage(u.Message.Chat.ID, "Something went wrong, try again later"))
		return
	}
	if len(entries) == 0 {
		_, _ = b.Send(tgbotapi.NewMessage(u.Message.Chat.ID, "Sorry, I don't know this word"))
		return
	}
	text, err := GetEntriesMessageText(entries)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("failed to format entries")
		return
	}
	msg := tgbotapi.NewMessage(u.Message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, _ = b.Send(msg)
}
