package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
	"github.com/rbhz/zh-dictionary/app/search"
)

// dictionaryService implements methods for dictionary API
type dictionaryService struct {
	storage      db.DictionaryStorage
	searcher     *search.Searcher
	defaultLimit int
	maxLimit     int
}

// Search returns entries matching keyword, by characters or by pinyin
func (d dictionaryService) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", d.defaultLimit)
	if err != nil || limit < 0 || limit > d.maxLimit {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	keyword := r.URL.Query().Get("keyword")
	entries, err := d.searcher.Search(r.Context(), keyword, limit)
	if err != nil {
		if errors.Is(err, search.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		log.Error().Err(err).Str("keyword", keyword).Msg("failed to search dictionary")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetEntry returns single dictionary entry
func (d dictionaryService) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	entry, err := d.storage.GetEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		log.Error().Err(err).Int64("entry", id).Msg("failed to get entry")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
