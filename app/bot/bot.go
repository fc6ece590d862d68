package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
)

const updateTimeout = 5 * time.Second

type Handler interface {
	Handle(ctx context.Context, b Bot, u tgbotapi.Update)
	Passthrough(tgbotapi.Update) bool
	Match(u tgbotapi.Update) bool
}

// TelegramBot handles Telegram API integration and updates handling
type TelegramBot struct {
	UserName string
	api      *tgbotapi.BotAPI
	searcher Searcher
	hsk      db.HSKStorage
	handlers []Handler
}

func (b *TelegramBot) processUpdate(ctx context.Context, u tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	processUpdate(ctx, b, b.handlers, u)
}

// processUpdate runs matching handlers until one of them stops the chain
func processUpdate(ctx context.Context, b Bot, handlers []Handler, u tgbotapi.Update) {
	for _, handler := range handlers {
		if handler.Match(u) {
			handler.Handle(ctx, b, u)
			if !handler.Passthrough(u) {
				break
			}
		}
	}
}

// Start polls updates until ctx is cancelled
func (b *TelegramBot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, u)
		}
	}
}

func (b *TelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	message, err := b.api.Send(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to send")
	}
	return message, err
}

func (b *TelegramBot) SendCallback(c tgbotapi.CallbackConfig) (*tgbotapi.APIResponse, error) {
	response, err := b.api.Request(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to answer callback")
	}
	return response, err
}

func (b *TelegramBot) Searcher() Searcher {
	return b.searcher
}

func (b *TelegramBot) HSK() db.HSKStorage {
	return b.hsk
}

func NewTelegramBot(token string, searcher Searcher, hsk db.HSKStorage, handlers []Handler) (*TelegramBot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize bot")
	}
	log.Info().Str("username", botAPI.Self.UserName).Msg("telegram bot initialized")
	return &TelegramBot{
		UserName: botAPI.Self.UserName,
		api:      botAPI,
		searcher: searcher,
		hsk:      hsk,
		handlers: handlers,
	}, nil
}
