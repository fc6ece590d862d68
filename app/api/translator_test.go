package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbhz/zh-dictionary/app/clients/mymemory"
	"github.com/rbhz/zh-dictionary/app/db"
)

// memoryCache keeps JSON encoded values in a map
type memoryCache map[string][]byte

func (c memoryCache) Get(_ context.Context, key string, dst any) error {
	data, ok := c[key]
	if !ok {
		return db.ErrNotFound
	}
	return json.Unmarshal(data, dst)
}

func (c memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c[key] = data
	return nil
}

func TestTranslate(t *testing.T) {
	translator := &fakeTranslator{}
	cache := memoryCache{}
	ts, cancel := getTestServerWith(nil, translator, cache)
	defer cancel()

	for i := 0; i < 2; i++ {
		r, body := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", `{"text": " hello "}`, "")
		require.Equal(t, http.StatusOK, r.StatusCode)
		var res TranslationResponse
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Equal(t, TranslationResponse{Text: "hello", Translation: "你好", Alternatives: []string{"您好"}}, res)
	}
	assert.Equal(t, 1, translator.calls)
	assert.Contains(t, cache, "translation:en:zh-CN:hello")
}

func TestTranslateWithoutCache(t *testing.T) {
	translator := &fakeTranslator{}
	ts, cancel := getTestServerWith(nil, translator, nil)
	defer cancel()

	for i := 0; i < 2; i++ {
		r, _ := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", `{"text": "hello"}`, "")
		require.Equal(t, http.StatusOK, r.StatusCode)
	}
	assert.Equal(t, 2, translator.calls)
}

func TestTranslateErrors(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		ts, cancel := getTestServerWith(nil, &fakeTranslator{err: mymemory.ErrUnknown}, memoryCache{})
		defer cancel()
		r, body := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", `{"text": "qwerty"}`, "")
		assert.Equal(t, http.StatusNotFound, r.StatusCode)
		assert.Equal(t, "translation not found", body)
	})
	t.Run("service error", func(t *testing.T) {
		cache := memoryCache{}
		ts, cancel := getTestServerWith(nil, &fakeTranslator{err: errors.New("timeout")}, cache)
		defer cancel()
		r, _ := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", `{"text": "hello"}`, "")
		assert.Equal(t, http.StatusBadGateway, r.StatusCode)
		assert.Empty(t, cache)
	})
	t.Run("invalid input", func(t *testing.T) {
		translator := &fakeTranslator{}
		ts, cancel := getTestServerWith(nil, translator, nil)
		defer cancel()
		bodies := []string{`{`, `{"text": ""}`, `{"text": "   "}`, `{"text": "` + strings.Repeat("a", 501) + `"}`}
		for _, body := range bodies {
			r, _ := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", body, "")
			assert.Equal(t, http.StatusBadRequest, r.StatusCode)
		}
		assert.Zero(t, translator.calls)
	})
	t.Run("disabled", func(t *testing.T) {
		ts, cancel := getTestServerWith(nil, nil, nil)
		defer cancel()
		r, _ := doRequest(t, http.MethodPost, ts.URL+"/api/v1/translator", `{"text": "hello"}`, "")
		assert.Equal(t, http.StatusNotFound, r.StatusCode)
	})
}
