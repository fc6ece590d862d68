package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
)

// WordListRequest is a word list creation body
type WordListRequest struct {
	Name string `json:"name"`
}

// EntryWordListsRequest selects word lists to add entry to or remove it from
type EntryWordListsRequest struct {
	WordLists []int64 `json:"wordlist_ids"`
}

// EntryWordListsResponse holds IDs of user word lists containing entry
type EntryWordListsResponse struct {
	Entry     int64   `json:"entry_id"`
	WordLists []int64 `json:"wordlist_ids"`
}

type wordListService struct {
	storage db.Storage
}

// GetWordLists returns word lists of current user
func (s wordListService) GetWordLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		log.Error().Interface("user", r.Context().Value(ctxUserIDKey)).Msg("invalid user id in context")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	lists, err := s.storage.GetWordLists(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user", int64(userID)).Msg("failed to get word lists")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateWordList creates word list for current user
func (s wordListService) CreateWordList(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var req WordListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	list, err := s.storage.CreateWordList(r.Context(), db.WordList{Name: req.Name, User: userID})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Error().Err(err).Int64("user", int64(userID)).Msg("failed to create word list")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// GetWordList returns word list with entries, only for its owner
func (s wordListService) GetWordList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownList(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteWordList removes word list of current user
func (s wordListService) DeleteWordList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownList(w, r)
	if !ok {
		return
	}
	if err := s.storage.DeleteWordList(r.Context(), list.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "word list not found")
			return
		}
		log.Error().Err(err).Int64("list", list.ID).Msg("failed to delete word list")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEntryWordLists returns IDs of current user lists containing entry
func (s wordListService) GetEntryWordLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	entryID, err := idParam(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	ids, err := s.storage.GetEntryWordLists(r.Context(), entryID, userID)
	if err != nil {
		log.Error().Err(err).Int64("entry", entryID).Msg("failed to get entry word lists")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, EntryWordListsResponse{Entry: entryID, WordLists: ids})
}

// AddEntry adds entry to current user word lists
func (s wordListService) AddEntry(w http.ResponseWriter, r *http.Request) {
	s.updateEntry(w, r, s.storage.AddEntryToWordLists)
}

// RemoveEntry removes entry from current user word lists
func (s wordListService) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	s.updateEntry(w, r, s.storage.RemoveEntryFromWordLists)
}

type entryUpdateFunc func(ctx context.Context, entry int64, user db.UserID, lists []int64) error

func (s wordListService) updateEntry(w http.ResponseWriter, r *http.Request, update entryUpdateFunc) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	entryID, err := idParam(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req EntryWordListsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := update(r.Context(), entryID, userID, req.WordLists); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		log.Error().Err(err).Int64("entry", entryID).Msg("failed to update entry word lists")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	ids, err := s.storage.GetEntryWordLists(r.Context(), entryID, userID)
	if err != nil {
		log.Error().Err(err).Int64("entry", entryID).Msg("failed to get entry word lists")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, EntryWordListsResponse{Entry: entryID, WordLists: ids})
}

// ownList loads word list from URL and checks it belongs to current user.
// Foreign lists are reported as missing.
func (s wordListService) ownList(w http.ResponseWriter, r *http.Request) (db.WordList, bool) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return db.WordList{}, false
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return db.WordList{}, false
	}
	list, err := s.storage.GetWordList(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "word list not found")
			return db.WordList{}, false
		}
		log.Error().Err(err).Int64("list", id).Msg("failed to get word list")
		w.WriteHeader(http.StatusInternalServerError)
		return db.WordList{}, false
	}
	if list.User != userID {
		writeError(w, http.StatusNotFound, "word list not found")
		return db.WordList{}, false
	}
	return list, true
}
