package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var (
	wordColumns     = []string{"simplified", "traditional", "pinyin", "definition", "level"}
	wordListColumns = []string{"id", "name", "user_id", "created_at", "modified_at"}
)

// SaveWords copies HSK words
func (s *PostgresStorage) SaveWords(ctx context.Context, words []Word) error {
	if len(words) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(words))
	for _, w := range words {
		rows = append(rows, []any{w.Simplified, w.Traditional, w.Pinyin, w.Definition, w.Level})
	}
	if _, err := s.q(ctx).CopyFrom(ctx, pgx.Identifier{"words"}, wordColumns, pgx.CopyFromRows(rows)); err != nil {
		return mapError(err, "copy words")
	}
	return nil
}

// GetWordsByLevel returns words of HSK level ordered by ID
func (s *PostgresStorage) GetWordsByLevel(ctx context.Context, level int, limit int, offset int) ([]Word, error) {
	sql, args, err := psql.Select(append([]string{"id"}, wordColumns...)...).
		From("words").
		Where(sq.Eq{"level": level}).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select words: %w", err)
	}
	defer rows.Close()
	words := make([]Word, 0)
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Simplified, &w.Traditional, &w.Pinyin, &w.Definition, &w.Level); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// SaveSentences inserts sentences in a single batch and assigns their IDs
func (s *PostgresStorage) SaveSentences(ctx context.Context, sentences []Sentence) error {
	if len(sentences) == 0 {
		return nil
	}
	return s.RunInTx(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, sentence := range sentences {
			batch.Queue(`INSERT INTO sentences (text) VALUES ($1) RETURNING id`, sentence.Text)
		}
		results := s.q(ctx).SendBatch(ctx, batch)
		for i := range sentences {
			if err := results.QueryRow().Scan(&sentences[i].ID); err != nil {
				_ = results.Close()
				return mapError(err, "insert sentence")
			}
		}
		return results.Close()
	})
}

// GetSentences returns sentences containing keyword ordered by ID
func (s *PostgresStorage) GetSentences(ctx context.Context, keyword string, limit int, offset int) ([]Sentence, error) {
	query := psql.Select("id", "text").From("sentences")
	if keyword != "" {
		query = query.Where("strpos(text, ?) > 0", keyword)
	}
	sql, args, err := query.OrderBy("id").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select sentences: %w", err)
	}
	defer rows.Close()
	sentences := make([]Sentence, 0)
	for rows.Next() {
		var sentence Sentence
		if err := rows.Scan(&sentence.ID, &sentence.Text); err != nil {
			return nil, fmt.Errorf("scan sentence: %w", err)
		}
		sentences = append(sentences, sentence)
	}
	return sentences, rows.Err()
}

// GetSentence returns sentence by ID
func (s *PostgresStorage) GetSentence(ctx context.Context, id int64) (Sentence, error) {
	sentence := Sentence{ID: id}
	err := s.q(ctx).QueryRow(ctx, `SELECT text FROM sentences WHERE id = $1`, id).Scan(&sentence.Text)
	if err != nil {
		return Sentence{}, mapError(err, fmt.Sprintf("get sentence %d", id))
	}
	return sentence, nil
}

// CreateUser inserts user, duplicate username results in ErrAlreadyExists
func (s *PostgresStorage) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO users (username, hashed_password) VALUES ($1, $2) RETURNING id, created_at`,
		user.Username, user.PasswordHash,
	).Scan(&user.ID, &user.Created)
	if err != nil {
		return User{}, mapError(err, "create user")
	}
	return user, nil
}

// GetUserByName returns user by username
func (s *PostgresStorage) GetUserByName(ctx context.Context, username string) (User, error) {
	user := User{Username: username}
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, hashed_password, created_at FROM users WHERE username = $1`, username,
	).Scan(&user.ID, &user.PasswordHash, &user.Created)
	if err != nil {
		return User{}, mapError(err, "get user")
	}
	return user, nil
}

// CreateWordList inserts word list, unknown user results in ErrNotFound
func (s *PostgresStorage) CreateWordList(ctx context.Context, list WordList) (WordList, error) {
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO wordlists (name, user_id) VALUES ($1, $2) RETURNING id, created_at, modified_at`,
		list.Name, list.User,
	).Scan(&list.ID, &list.Created, &list.Modified)
	if err != nil {
		return WordList{}, mapError(err, "create word list")
	}
	list.Entries = nil
	return list, nil
}

// GetWordList returns word list with its entries
func (s *PostgresStorage) GetWordList(ctx context.Context, id int64) (WordList, error) {
	list, err := scanWordList(s.q(ctx).QueryRow(ctx,
		`SELECT id, name, user_id, created_at, modified_at FROM wordlists WHERE id = $1`, id))
	if err != nil {
		return WordList{}, mapError(err, fmt.Sprintf("get word list %d", id))
	}
	ids, err := s.queryIDs(ctx, psql.Select("entry_id").From("wordlist_entries").
		Where(sq.Eq{"wordlist_id": id}).OrderBy("entry_id"))
	if err != nil {
		return WordList{}, fmt.Errorf("get word list %d entries: %w", id, err)
	}
	if list.Entries, err = s.GetEntries(ctx, ids); err != nil {
		return WordList{}, err
	}
	return list, nil
}

// DeleteWordList removes word list with its entry links
func (s *PostgresStorage) DeleteWordList(ctx context.Context, id int64) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM wordlists WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete word list")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete word list %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetWordLists returns user word lists ordered by ID
func (s *PostgresStorage) GetWordLists(ctx context.Context, user UserID) ([]WordList, error) {
	sql, args, err := psql.Select(wordListColumns...).From("wordlists").
		Where(sq.Eq{"user_id": user}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select word lists: %w", err)
	}
	defer rows.Close()
	lists := make([]WordList, 0)
	for rows.Next() {
		list, err := scanWordList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// GetEntryWordLists returns IDs of user word lists containing entry
func (s *PostgresStorage) GetEntryWordLists(ctx context.Context, entry int64, user UserID) ([]int64, error) {
	ids, err := s.queryIDs(ctx, psql.Select("we.wordlist_id").
		From("wordlist_entries we").
		Join("wordlists w ON w.id = we.wordlist_id").
		Where(sq.Eq{"we.entry_id": entry, "w.user_id": user}).
		OrderBy("we.wordlist_id"))
	if err != nil {
		return nil, fmt.Errorf("get entry word lists: %w", err)
	}
	return ids, nil
}

// AddEntryToWordLists links entry to user word lists, foreign lists are skipped
func (s *PostgresStorage) AddEntryToWordLists(ctx context.Context, entry int64, user UserID, lists []int64) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE id = $1)`, entry).Scan(&exists); err != nil {
			return fmt.Errorf("check entry: %w", err)
		}
		if !exists {
			return fmt.Errorf("add entry %d to word lists: %w", entry, ErrNotFound)
		}
		if len(lists) == 0 {
			return nil
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO wordlist_entries (wordlist_id, entry_id)
			SELECT id, $1 FROM wordlists WHERE user_id = $2 AND id = ANY($3)
			ON CONFLICT DO NOTHING`, entry, user, lists); err != nil {
			return mapError(err, "add entry to word lists")
		}
		return s.touchWordLists(ctx, user, lists)
	})
}

// RemoveEntryFromWordLists unlinks entry from user word lists
func (s *PostgresStorage) RemoveEntryFromWordLists(ctx context.Context, entry int64, user UserID, lists []int64) error {
	if len(lists) == 0 {
		return nil
	}
	return s.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).Exec(ctx, `
			DELETE FROM wordlist_entries we USING wordlists w
			WHERE we.wordlist_id = w.id AND we.entry_id = $1 AND w.user_id = $2 AND w.id = ANY($3)`,
			entry, user, lists); err != nil {
			return mapError(err, "remove entry from word lists")
		}
		return s.touchWordLists(ctx, user, lists)
	})
}

func (s *PostgresStorage) touchWordLists(ctx context.Context, user UserID, lists []int64) error {
	_, err := s.q(ctx).Exec(ctx,
		`UPDATE wordlists SET modified_at = $1 WHERE user_id = $2 AND id = ANY($3)`,
		time.Now().UTC(), user, lists)
	if err != nil {
		return mapError(err, "update word lists")
	}
	return nil
}

func scanWordList(row pgx.Row) (WordList, error) {
	var list WordList
	err := row.Scan(&list.ID, &list.Name, &list.User, &list.Created, &list.Modified)
	return list, err
}
