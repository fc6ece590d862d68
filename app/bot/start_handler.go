package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const startText = "Hi! Send me Chinese characters or numbered pinyin (like ni3 hao3) to look them up.\n" +
	"Use /quiz 1 to practise HSK level 1 words."

type StartHandler struct {
	neverPassthrough
}

func (h StartHandler) Match(u tgbotapi.Update) bool {
	return u.Message != nil && u.Message.Command() == "start"
}

func (h StartHandler) Handle(ctx context.Context, b Bot, u tgbotapi.Update) {
	_, _ = b.Send(tgbotapi.NewMessage(u.Message.Chat.ID, startText))
}
