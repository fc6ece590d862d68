package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbhz/zh-dictionary/app/db"
)

func TestGetHSKWords(t *testing.T) {
	storage := db.NewInMemoryStorage()
	require.NoError(t, storage.SaveWords(context.Background(), []db.Word{
		{Simplified: "爱", Traditional: "愛", Pinyin: "ai4", Definition: "to love", Level: 1},
		{Simplified: "八", Traditional: "八", Pinyin: "ba1", Definition: "eight", Level: 1},
		{Simplified: "吧", Traditional: "吧", Pinyin: "ba5", Definition: "particle", Level: 2},
	}))
	ts, cancel := getTestServer(storage)
	defer cancel()

	t.Run("success", func(t *testing.T) {
		r, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/levels/1/words", "", "")
		assert.Equal(t, http.StatusOK, r.StatusCode)
		var words []db.Word
		require.NoError(t, json.Unmarshal([]byte(body), &words))
		require.Len(t, words, 2)
		assert.Equal(t, "爱", words[0].Simplified)
		assert.Contains(t, body, `"level_id":1`)
	})
	t.Run("pagination", func(t *testing.T) {
		r, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/levels/1/words?limit=1&offset=1", "", "")
		assert.Equal(t, http.StatusOK, r.StatusCode)
		var words []db.Word
		require.NoError(t, json.Unmarshal([]byte(body), &words))
		require.Len(t, words, 1)
		assert.Equal(t, "八", words[0].Simplified)
	})
	t.Run("empty level", func(t *testing.T) {
		r, body := doRequest(t, http.MethodGet, ts.URL+"/api/v1/levels/6/words", "", "")
		assert.Equal(t, http.StatusNotFound, r.StatusCode)
		assert.Equal(t, "words not found", body)
	})
	t.Run("invalid params", func(t *testing.T) {
		for _, path := range []string{"/api/v1/levels/one/words", "/api/v1/levels/1/words?limit=-1", "/api/v1/levels/1/words?offset=x"} {
			r, _ := doRequest(t, http.MethodGet, ts.URL+path, "", "")
			assert.Equal(t, http.StatusBadRequest, r.StatusCode, path)
		}
	})
	t.Run("storage error", func(t *testing.T) {
		ts, cancel := getTestServer(ErrorStorage{db.NewInMemoryStorage()})
		defer cancel()
		r, _ := doRequest(t, http.MethodGet, ts.URL+"/api/v1/levels/1/words", "", "")
		assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
	})
}
