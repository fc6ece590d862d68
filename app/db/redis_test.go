package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGet(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectGet("zh:sentence:1").SetVal(`{"id":1,"text":"你好"}`)

		var sentence Sentence
		err := cache.Get(context.Background(), "sentence:1", &sentence)
		assert.NoError(t, err)
		assert.Equal(t, Sentence{ID: 1, Text: "你好"}, sentence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("not_found", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectGet("zh:sentence:1").RedisNil()

		var sentence Sentence
		err := cache.Get(context.Background(), "sentence:1", &sentence)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("invalid JSON", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectGet("zh:sentence:1").SetVal("NOT_JSON")

		var sentence Sentence
		err := cache.Get(context.Background(), "sentence:1", &sentence)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
	t.Run("error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectGet("zh:sentence:1").SetErr(errors.New("FAIL"))

		var sentence Sentence
		err := cache.Get(context.Background(), "sentence:1", &sentence)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisSet(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectSet("zh:sentence:1", `{"id":1,"text":"你好"}`, time.Hour).SetVal("OK")

		err := cache.Set(context.Background(), "sentence:1", Sentence{ID: 1, Text: "你好"}, time.Hour)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := RedisCache{db: db}
		mock.ExpectSet("zh:sentence:1", `{"id":1,"text":"你好"}`, 0).SetErr(errors.New("FAIL"))

		err := cache.Set(context.Background(), "sentence:1", Sentence{ID: 1, Text: "你好"}, 0)
		assert.Error(t, err)
	})
	t.Run("unmarshalable", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		cache := RedisCache{db: db}
		err := cache.Set(context.Background(), "key", make(chan int), 0)
		assert.Error(t, err)
	})
}
