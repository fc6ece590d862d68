package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
)

type sentenceService struct {
	storage db.SentenceStorage
}

// GetSentences returns sentences containing keyword
func (s sentenceService) GetSentences(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r, defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	keyword := r.URL.Query().Get("keyword")
	sentences, err := s.storage.GetSentences(r.Context(), keyword, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("failed to get sentences")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sentences)
}

// GetSentence returns sentence by ID
func (s sentenceService) GetSentence(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	sentence, err := s.storage.GetSentence(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentence not found")
			return
		}
		log.Error().Err(err).Int64("sentence", id).Msg("failed to get sentence")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sentence)
}
