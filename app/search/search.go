// Package search dispatches dictionary queries either to a substring lookup
// over simplified headwords or to the positional pinyin matcher.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
	"github.com/rbhz/zh-dictionary/app/pinyin"
)

// ErrInvalidLimit is returned for negative limits
var ErrInvalidLimit = errors.New("invalid limit")

// Strategy is a search path chosen for a keyword
type Strategy int

const (
	// StrategyAll lists entries without matching
	StrategyAll Strategy = iota
	// StrategyScript looks keyword up in simplified headwords
	StrategyScript
	// StrategyPinyin matches keyword syllables by position
	StrategyPinyin
)

func (s Strategy) String() string {
	switch s {
	case StrategyAll:
		return "all"
	case StrategyScript:
		return "script"
	case StrategyPinyin:
		return "pinyin"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Classify returns search strategy for keyword
func Classify(keyword string) Strategy {
	switch {
	case strings.TrimSpace(keyword) == "":
		return StrategyAll
	case IsChineseScript(keyword):
		return StrategyScript
	default:
		return StrategyPinyin
	}
}

// Store is the part of dictionary storage used by Searcher
type Store interface {
	ListEntries(ctx context.Context, limit int) ([]db.Entry, error)
	FindBySimplified(ctx context.Context, keyword string, limit int) ([]db.Entry, error)
	MatchPinyin(ctx context.Context, syllables []string) ([]int64, error)
	GetEntries(ctx context.Context, ids []int64) ([]db.Entry, error)
}

// Searcher looks up dictionary entries
type Searcher struct {
	store Store
}

// NewSearcher creates Searcher over store
func NewSearcher(store Store) *Searcher {
	return &Searcher{store: store}
}

// Search returns at most limit entries matching keyword.
// Empty keyword lists entries in storage order.
func (s *Searcher) Search(ctx context.Context, keyword string, limit int) ([]db.Entry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit == 0 {
		return []db.Entry{}, nil
	}
	strategy := Classify(keyword)
	log.Debug().Str("keyword", keyword).Stringer("strategy", strategy).Int("limit", limit).Msg("Search")

	var (
		entries []db.Entry
		err     error
	)
	switch strategy {
	case StrategyAll:
		entries, err = s.store.ListEntries(ctx, limit)
	case StrategyScript:
		entries, err = s.store.FindBySimplified(ctx, keyword, limit)
	case StrategyPinyin:
		entries, err = s.byPinyin(ctx, pinyin.Split(keyword), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", strategy, err)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Searcher) byPinyin(ctx context.Context, syllables []string, limit int) ([]db.Entry, error) {
	ids, err := s.store.MatchPinyin(ctx, syllables)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []db.Entry{}, nil
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return s.store.GetEntries(ctx, ids)
}
