package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/clients/mymemory"
	"github.com/rbhz/zh-dictionary/app/db"
)

const (
	translateFrom    = "en"
	translateTo      = "zh-CN"
	maxTranslateSize = 500
)

// Translator translates text between languages
type Translator interface {
	Translate(ctx context.Context, q string, from string, to string) (mymemory.TranslationResponse, error)
}

// TranslationRequest is a translator request body
type TranslationRequest struct {
	Text string `json:"text"`
}

// TranslationResponse is a translator response body
type TranslationResponse struct {
	Text         string   `json:"text"`
	Translation  string   `json:"translation"`
	Alternatives []string `json:"alternatives"`
}

type translatorService struct {
	translator Translator
	cache      db.Cache
	ttl        time.Duration
}

// Translate translates English text to Simplified Chinese
func (s translatorService) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || len(text) > maxTranslateSize {
		writeError(w, http.StatusBadRequest, "invalid text")
		return
	}

	key := "translation:" + translateFrom + ":" + translateTo + ":" + text
	var response TranslationResponse
	if s.cache != nil {
		err := s.cache.Get(r.Context(), key, &response)
		if err == nil {
			writeJSON(w, http.StatusOK, response)
			return
		}
		if !errors.Is(err, db.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read cache")
		}
	}

	result, err := s.translator.Translate(r.Context(), text, translateFrom, translateTo)
	if err != nil {
		if errors.Is(err, mymemory.ErrUnknown) {
			writeError(w, http.StatusNotFound, "translation not found")
			return
		}
		log.Error().Err(err).Str("text", text).Msg("failed to translate")
		writeError(w, http.StatusBadGateway, "translation service unavailable")
		return
	}
	response = TranslationResponse{
		Text:         text,
		Translation:  result.Result.Text,
		Alternatives: result.Alternatives(),
	}
	if s.cache != nil {
		if err := s.cache.Set(r.Context(), key, response, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to write cache")
		}
	}
	writeJSON(w, http.StatusOK, response)
}
