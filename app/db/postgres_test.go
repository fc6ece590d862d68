package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMockStorage(t *testing.T) (*PostgresStorage, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStorage(mock), mock
}

func TestMapError(t *testing.T) {
	testCases := map[string]struct {
		err      error
		expected error
	}{
		"no rows":     {pgx.ErrNoRows, ErrNotFound},
		"unique":      {&pgconn.PgError{Code: "23505"}, ErrAlreadyExists},
		"foreign key": {&pgconn.PgError{Code: "23503"}, ErrNotFound},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tc.err, "action"), tc.expected)
		})
	}
	t.Run("other", func(t *testing.T) {
		err := mapError(errors.New("FAIL"), "action")
		assert.EqualError(t, err, "action: FAIL")
	})
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, mapError(nil, "action"))
	})
}

func TestPostgresSaveEntries(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT nextval`).
			WithArgs(2).
			WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(10)).AddRow(int64(11)))
		mock.ExpectCopyFrom(pgx.Identifier{"entries"}, entryColumns).WillReturnResult(2)
		mock.ExpectCopyFrom(pgx.Identifier{"pronunciations"}, pronunciationColumns).WillReturnResult(3)
		mock.ExpectCopyFrom(pgx.Identifier{"definitions"}, definitionColumns).WillReturnResult(2)
		mock.ExpectCommit()

		entries := []Entry{newEntry("积累", "ji1", "lei3"), newEntry("你", "ni3")}
		require.NoError(t, storage.SaveEntries(context.Background(), entries))
		assert.Equal(t, int64(10), entries[0].ID)
		assert.Equal(t, int64(10), entries[0].Pronunciations[1].EntryID)
		assert.Equal(t, int64(11), entries[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("copy failure rolls back", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT nextval`).
			WithArgs(1).
			WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(1)))
		mock.ExpectCopyFrom(pgx.Identifier{"entries"}, entryColumns).WillReturnResult(1)
		mock.ExpectCopyFrom(pgx.Identifier{"pronunciations"}, pronunciationColumns).WillReturnError(errors.New("FAIL"))
		mock.ExpectRollback()

		err := storage.SaveEntries(context.Background(), []Entry{newEntry("你", "ni3")})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("empty batch", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		require.NoError(t, storage.SaveEntries(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRunInTx(t *testing.T) {
	t.Run("nested calls join transaction", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectCommit()

		err := storage.RunInTx(context.Background(), func(ctx context.Context) error {
			return storage.RunInTx(ctx, func(ctx context.Context) error {
				has, err := storage.HasEntries(ctx)
				assert.False(t, has)
				return err
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("error rolls back", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		expected := errors.New("FAIL")
		err := storage.RunInTx(context.Background(), func(context.Context) error { return expected })
		assert.ErrorIs(t, err, expected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresMatchPinyin(t *testing.T) {
	storage, mock := getMockStorage(t)
	mock.ExpectQuery(`SELECT p.entry_id FROM pronunciations p WHERE .* GROUP BY p.entry_id HAVING COUNT\(\*\) = \$5 AND NOT EXISTS`).
		WithArgs("ji1", 0, "lei3", 1, 2, 2).
		WillReturnRows(pgxmock.NewRows([]string{"entry_id"}).AddRow(int64(1)))

	ids, err := storage.MatchPinyin(context.Background(), []string{"ji1", "lei3"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())

	ids, err = storage.MatchPinyin(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, ids)
}

func TestPostgresGetEntry(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectQuery(`SELECT id, simplified, traditional FROM entries WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(entryColumns).AddRow(int64(1), "积累", "積累"))
		mock.ExpectQuery(`SELECT entry_id, pinyin, position FROM pronunciations`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(pronunciationColumns).
				AddRow(int64(1), "ji1", 0).
				AddRow(int64(1), "lei3", 1))
		mock.ExpectQuery(`SELECT entry_id, definition FROM definitions`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(definitionColumns).AddRow(int64(1), "to accumulate"))

		entry, err := storage.GetEntry(context.Background(), 1)
		require.NoError(t, err)
		expected := Entry{
			ID: 1, Simplified: "积累", Traditional: "積累",
			Pronunciations: []Pronunciation{
				{EntryID: 1, Pinyin: "ji1", Position: 0},
				{EntryID: 1, Pinyin: "lei3", Position: 1},
			},
			Definitions: []Definition{{EntryID: 1, Definition: "to accumulate"}},
		}
		assert.Equal(t, expected, entry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("not found", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectQuery(`SELECT id, simplified, traditional FROM entries`).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows(entryColumns))

		_, err := storage.GetEntry(context.Background(), 5)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresCreateUser(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("test", "hash").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := storage.CreateUser(context.Background(), User{Username: "test", PasswordHash: "hash"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
	t.Run("unknown user", func(t *testing.T) {
		storage, mock := getMockStorage(t)
		mock.ExpectQuery(`SELECT id, hashed_password, created_at FROM users`).
			WithArgs("test").
			WillReturnError(pgx.ErrNoRows)

		_, err := storage.GetUserByName(context.Background(), "test")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresGetSentence(t *testing.T) {
	storage, mock := getMockStorage(t)
	mock.ExpectQuery(`SELECT text FROM sentences WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"text"}).AddRow("你好"))
	mock.ExpectQuery(`SELECT text FROM sentences WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnError(pgx.ErrNoRows)

	sentence, err := storage.GetSentence(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, Sentence{ID: 3, Text: "你好"}, sentence)

	_, err = storage.GetSentence(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteWordList(t *testing.T) {
	storage, mock := getMockStorage(t)
	mock.ExpectExec(`DELETE FROM wordlists`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM wordlists`).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, storage.DeleteWordList(context.Background(), 1))
	assert.ErrorIs(t, storage.DeleteWordList(context.Background(), 2), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
