package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
)

const defaultPageSize = 100

type hskService struct {
	storage db.HSKStorage
}

// GetWords returns words of HSK level
func (h hskService) GetWords(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid level")
		return
	}
	limit, offset, err := pagination(r, defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	words, err := h.storage.GetWordsByLevel(r.Context(), level, limit, offset)
	if err != nil {
		log.Error().Err(err).Int("level", level).Msg("failed to get HSK words")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if len(words) == 0 {
		writeError(w, http.StatusNotFound, "words not found")
		return
	}
	writeJSON(w, http.StatusOK, words)
}
