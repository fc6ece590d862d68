package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores JSON encoded values by key.
// Get returns ErrNotFound for missing or expired keys.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedStorage serves read-mostly lookups from cache and falls back to storage
type CachedStorage struct {
	Storage
	cache Cache
	ttl   time.Duration
}

// NewCachedStorage wraps storage with cache
func NewCachedStorage(storage Storage, cache Cache, ttl time.Duration) *CachedStorage {
	return &CachedStorage{Storage: storage, cache: cache, ttl: ttl}
}

// GetWordsByLevel returns cached HSK level page
func (s *CachedStorage) GetWordsByLevel(ctx context.Context, level int, limit int, offset int) ([]Word, error) {
	key := fmt.Sprintf("hsk:level:%d:%d:%d", level, limit, offset)
	var words []Word
	if s.lookup(ctx, key, &words) {
		return words, nil
	}
	words, err := s.Storage.GetWordsByLevel(ctx, level, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, words)
	return words, nil
}

// GetSentence returns cached sentence
func (s *CachedStorage) GetSentence(ctx context.Context, id int64) (Sentence, error) {
	key := fmt.Sprintf("sentence:%d", id)
	var sentence Sentence
	if s.lookup(ctx, key, &sentence) {
		return sentence, nil
	}
	sentence, err := s.Storage.GetSentence(ctx, id)
	if err != nil {
		return Sentence{}, err
	}
	s.store(ctx, key, sentence)
	return sentence, nil
}

// GetEntry returns cached dictionary entry
func (s *CachedStorage) GetEntry(ctx context.Context, id int64) (Entry, error) {
	key := fmt.Sprintf("entry:%d", id)
	var entry Entry
	if s.lookup(ctx, key, &entry) {
		return entry, nil
	}
	entry, err := s.Storage.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	s.store(ctx, key, entry)
	return entry, nil
}

// RunInTx delegates to wrapped storage when it supports transactions
func (s *CachedStorage) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := s.Storage.(Transactor)
	if !ok {
		return errors.New("storage does not support transactions")
	}
	return tx.RunInTx(ctx, fn)
}

func (s *CachedStorage) lookup(ctx context.Context, key string, dst any) bool {
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read cache")
	}
	return false
}

func (s *CachedStorage) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write cache")
	}
}
