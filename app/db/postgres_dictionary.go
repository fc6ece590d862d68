package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/rbhz/zh-dictionary/app/pinyin"
)

const reserveEntryIDsSQL = `SELECT nextval(pg_get_serial_sequence('entries', 'id')) FROM generate_series(1, $1)`

var (
	entryColumns         = []string{"id", "simplified", "traditional"}
	pronunciationColumns = []string{"entry_id", "pinyin", "position"}
	definitionColumns    = []string{"entry_id", "definition"}
)

// SaveEntries copies entries and their children in one transaction.
// IDs are reserved from the entries sequence before copying.
func (s *PostgresStorage) SaveEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.RunInTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)
		rows, err := q.Query(ctx, reserveEntryIDsSQL, len(entries))
		if err != nil {
			return fmt.Errorf("reserve entry ids: %w", err)
		}
		ids := make([]int64, 0, len(entries))
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan entry id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("reserve entry ids: %w", err)
		}
		if len(ids) != len(entries) {
			return fmt.Errorf("reserve entry ids: got %d ids for %d entries", len(ids), len(entries))
		}

		entryRows := make([][]any, 0, len(entries))
		var pronunciationRows, definitionRows [][]any
		for i := range entries {
			entries[i].setID(ids[i])
			e := entries[i]
			entryRows = append(entryRows, []any{e.ID, e.Simplified, e.Traditional})
			for _, p := range e.Pronunciations {
				pronunciationRows = append(pronunciationRows, []any{p.EntryID, p.Pinyin, p.Position})
			}
			for _, d := range e.Definitions {
				definitionRows = append(definitionRows, []any{d.EntryID, d.Definition})
			}
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"entries"}, entryColumns, pgx.CopyFromRows(entryRows)); err != nil {
			return mapError(err, "copy entries")
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"pronunciations"}, pronunciationColumns, pgx.CopyFromRows(pronunciationRows)); err != nil {
			return mapError(err, "copy pronunciations")
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"definitions"}, definitionColumns, pgx.CopyFromRows(definitionRows)); err != nil {
			return mapError(err, "copy definitions")
		}
		return nil
	})
}

// HasEntries reports whether dictionary has any entry
func (s *PostgresStorage) HasEntries(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check entries: %w", err)
	}
	return exists, nil
}

// GetEntry returns entry by ID
func (s *PostgresStorage) GetEntry(ctx context.Context, id int64) (Entry, error) {
	entries, err := s.selectEntries(ctx, psql.Select(entryColumns...).From("entries").Where(sq.Eq{"id": id}))
	if err != nil {
		return Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("get entry %d: %w", id, ErrNotFound)
	}
	return entries[0], nil
}

// GetEntries returns entries by IDs
func (s *PostgresStorage) GetEntries(ctx context.Context, ids []int64) ([]Entry, error) {
	if len(ids) == 0 {
		return []Entry{}, nil
	}
	entries, err := s.selectEntries(ctx,
		psql.Select(entryColumns...).From("entries").Where(sq.Eq{"id": ids}).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	return entries, nil
}

// ListEntries returns first entries in storage order
func (s *PostgresStorage) ListEntries(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	entries, err := s.selectEntries(ctx,
		psql.Select(entryColumns...).From("entries").OrderBy("id").Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// FindBySimplified returns entries whose simplified form contains keyword
func (s *PostgresStorage) FindBySimplified(ctx context.Context, keyword string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	entries, err := s.selectEntries(ctx,
		psql.Select(entryColumns...).From("entries").
			Where("strpos(simplified, ?) > 0", keyword).
			OrderBy("id").
			Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("find entries by simplified: %w", err)
	}
	return entries, nil
}

// MatchPinyin returns IDs of entries pronounced exactly as syllables.
// Rows are filtered by (position, pinyin) pairs and grouped by entry; an entry
// matches when every pair is found and it has no syllable beyond the query.
func (s *PostgresStorage) MatchPinyin(ctx context.Context, syllables []string) ([]int64, error) {
	if len(syllables) == 0 {
		return []int64{}, nil
	}
	pairs := sq.Or{}
	for _, k := range pinyin.Keys(syllables) {
		pairs = append(pairs, sq.Eq{"p.position": k.Position, "p.pinyin": k.Pinyin})
	}
	query := psql.Select("p.entry_id").
		From("pronunciations p").
		Where(pairs).
		GroupBy("p.entry_id").
		Having("COUNT(*) = ?", len(syllables)).
		Having("NOT EXISTS (SELECT 1 FROM pronunciations x WHERE x.entry_id = p.entry_id AND x.position >= ?)", len(syllables)).
		OrderBy("p.entry_id")
	ids, err := s.queryIDs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("match pinyin: %w", err)
	}
	return ids, nil
}

// selectEntries runs entries query and loads children of found entries
func (s *PostgresStorage) selectEntries(ctx context.Context, query sq.SelectBuilder) ([]Entry, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Simplified, &e.Traditional); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	if err := s.loadChildren(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// loadChildren fills pronunciations and definitions of entries
func (s *PostgresStorage) loadChildren(ctx context.Context, entries []Entry) error {
	ids := make([]int64, len(entries))
	byID := make(map[int64]*Entry, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
		entries[i].Pronunciations = []Pronunciation{}
		entries[i].Definitions = []Definition{}
		byID[entries[i].ID] = &entries[i]
	}

	sql, args, err := psql.Select(pronunciationColumns...).From("pronunciations").
		Where(sq.Eq{"entry_id": ids}).OrderBy("entry_id", "position").ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("select pronunciations: %w", err)
	}
	for rows.Next() {
		var p Pronunciation
		if err := rows.Scan(&p.EntryID, &p.Pinyin, &p.Position); err != nil {
			rows.Close()
			return fmt.Errorf("scan pronunciation: %w", err)
		}
		if e, ok := byID[p.EntryID]; ok {
			e.Pronunciations = append(e.Pronunciations, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("select pronunciations: %w", err)
	}

	sql, args, err = psql.Select(definitionColumns...).From("definitions").
		Where(sq.Eq{"entry_id": ids}).OrderBy("entry_id", "id").ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err = s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("select definitions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.EntryID, &d.Definition); err != nil {
			return fmt.Errorf("scan definition: %w", err)
		}
		if e, ok := byID[d.EntryID]; ok {
			e.Definitions = append(e.Definitions, d)
		}
	}
	return rows.Err()
}
