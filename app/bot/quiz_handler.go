package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
)

const (
	quizChoicesCount = 4
	quizMinLevel     = 1
	quizMaxLevel     = 6
	// maxLevelWords bounds the words loaded for a level, HSK 6 has 2500
	maxLevelWords = 5000
)

// ErrNotEnoughWords is returned when the level has fewer words than choices
var ErrNotEnoughWords = errors.New("not enough words")

// Quiz asks for the meaning of an HSK word.
// Words are addressed by their offset inside the level.
type Quiz struct {
	Level   int
	Answer  int
	Word    db.Word
	Offsets []int
	Choices []db.Word
}

// NewQuiz picks a random word of the level and random wrong choices
func NewQuiz(level int, words []db.Word, rnd *rand.Rand) (Quiz, error) {
	if len(words) < quizChoicesCount {
		return Quiz{}, ErrNotEnoughWords
	}
	perm := rnd.Perm(len(words))[:quizChoicesCount]
	answer := perm[rnd.Intn(quizChoicesCount)]
	quiz := Quiz{Level: level, Answer: answer, Word: words[answer], Offsets: perm}
	for _, offset := range perm {
		quiz.Choices = append(quiz.Choices, words[offset])
	}
	return quiz, nil
}

// keyboard returns buttons with quiz choices
func (q Quiz) keyboard() tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(q.Offsets))
	for idx, offset := range q.Offsets {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(idx+1),
			fmt.Sprintf("%v|%d|%d|%d", callbackIDQuizReply, q.Level, q.Answer, offset),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
}

// QuizHandler handles /quiz command
type QuizHandler struct {
	neverPassthrough
}

// Match returns true if update is /quiz command
func (h QuizHandler) Match(u tgbotapi.Update) bool {
	return u.Message != nil && u.Message.Command() == "quiz"
}

// Handle generates new quiz and sends it to user
func (h QuizHandler) Handle(ctx context.Context, b Bot, u tgbotapi.Update) {
	chatID := u.Message.Chat.ID
	level := quizMinLevel
	if arg := strings.TrimSpace(u.Message.CommandArguments()); arg != "" {
		var err error
		level, err = strconv.Atoi(arg)
		if err != nil || level < quizMinLevel || level > quizMaxLevel {
			_, _ = b.Send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf("Level should be a number from %d to %d", quizMinLevel, quizMaxLevel)))
			return
		}
	}
	words, err := b.HSK().GetWordsByLevel(ctx, level, maxLevelWords, 0)
	if err != nil {
		log.Error().Err(err).Int("level", level).Msg("failed to get HSK words")
		return
	}
	quiz, err := NewQuiz(level, words, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		if errors.Is(err, ErrNotEnoughWords) {
			_, _ = b.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Not enough words for HSK %d", level)))
			return
		}
		log.Error().Err(err).Int("level", level).Msg("failed to create quiz")
		return
	}
	text, err := render("quiz", quiz)
	if err != nil {
		log.Error().Err(err).Int("level", level).Msg("failed to get text for message")
		return
	}
	message := tgbotapi.NewMessage(chatID, text)
	message.ParseMode = tgbotapi.ModeHTML
	message.ReplyMarkup = quiz.keyboard()
	_, _ = b.Send(message)
}

// QuizReplyHandler handles quiz reply callback
type QuizReplyHandler struct {
	neverPassthrough
}

// Match returns true if update is quiz reply callback
func (h QuizReplyHandler) Match(u tgbotapi.Update) bool {
	return u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, callbackIDQuizReply+"|")
}

// Handle checks the picked choice and shows the right answer
func (h QuizReplyHandler) Handle(ctx context.Context, b Bot, u tgbotapi.Update) {
	query := u.CallbackQuery
	level, answer, choice, err := h.parseQuery(query.Data)
	if err != nil {
		log.Error().Err(err).Str("query", query.Data).Msg("failed to parse callback query")
		_, _ = b.SendCallback(tgbotapi.NewCallback(query.ID, "Unknown quiz"))
		return
	}
	answerWord, err := h.getWord(ctx, b.HSK(), level, answer)
	if err != nil {
		log.Error().Err(err).Int("level", level).Int("offset", answer).Msg("failed to get quiz word")
		_, _ = b.SendCallback(tgbotapi.NewCallback(query.ID, "Error happened"))
		return
	}
	choiceWord, err := h.getWord(ctx, b.HSK(), level, choice)
	if err != nil {
		log.Error().Err(err).Int("level", level).Int("offset", choice).Msg("failed to get quiz word")
		_, _ = b.SendCallback(tgbotapi.NewCallback(query.ID, "Error happened"))
		return
	}
	correct := answer == choice
	if correct {
		_, _ = b.SendCallback(tgbotapi.NewCallback(query.ID, "Correct!"))
	} else {
		_, _ = b.SendCallback(tgbotapi.NewCallback(query.ID, "Wrong!"))
	}
	if query.Message == nil {
		return
	}
	text, err := render("quizResult", map[string]any{
		"Level":   level,
		"Answer":  answerWord,
		"Choice":  choiceWord,
		"Correct": correct,
	})
	if err != nil {
		log.Error().Err(err).Int("level", level).Msg("failed to get quiz result text")
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, _ = b.Send(edit)
}

func (h QuizReplyHandler) getWord(ctx context.Context, storage db.HSKStorage, level int, offset int) (db.Word, error) {
	words, err := storage.GetWordsByLevel(ctx, level, 1, offset)
	if err != nil {
		return db.Word{}, errors.Wrap(err, "get words")
	}
	if len(words) == 0 {
		return db.Word{}, errors.Wrapf(db.ErrNotFound, "word %d of level %d", offset, level)
	}
	return words[0], nil
}

func (h QuizReplyHandler) parseQuery(data string) (level int, answer int, choice int, err error) {
	parts := strings.Split(data, "|")
	if len(parts) != 4 {
		return 0, 0, 0, errors.New("invalid callback query data")
	}
	values := make([]int, 0, 3)
	for _, part := range parts[1:] {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, 0, 0, errors.Errorf("invalid callback query value %q", part)
		}
		values = append(values, value)
	}
	return values[0], values[1], values[2], nil
}
