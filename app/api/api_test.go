package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbhz/zh-dictionary/app/cedict"
	"github.com/rbhz/zh-dictionary/app/clients/mymemory"
	"github.com/rbhz/zh-dictionary/app/db"
	"github.com/rbhz/zh-dictionary/app/search"
)

const (
	testJWTSecret = "tokentokentokentoken"
	testUserID    = 1
)

// emptyHandler is a dummy handler for testing.
type emptyHandler struct{}

func (h *emptyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {}

// ErrorStorage is a dummy storage for testing storage error handling.
type ErrorStorage struct {
	*db.InMemoryStorage
}

func (d ErrorStorage) ListEntries(context.Context, int) ([]db.Entry, error) {
	return nil, errors.New("test")
}

func (d ErrorStorage) GetEntry(context.Context, int64) (db.Entry, error) {
	return db.Entry{}, errors.New("test")
}

func (d ErrorStorage) GetWordsByLevel(context.Context, int, int, int) ([]db.Word, error) {
	return nil, errors.New("test")
}

func (d ErrorStorage) GetSentences(context.Context, string, int, int) ([]db.Sentence, error) {
	return nil, errors.New("test")
}

func (d ErrorStorage) GetWordLists(context.Context, db.UserID) ([]db.WordList, error) {
	return nil, errors.New("test")
}

// fakeTranslator returns fixed translation
type fakeTranslator struct {
	calls int
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, q string, from string, to string) (mymemory.TranslationResponse, error) {
	f.calls++
	if f.err != nil {
		return mymemory.TranslationResponse{}, f.err
	}
	return mymemory.TranslationResponse{
		Result:  mymemory.TranslationResult{Text: "你好", Match: 1},
		Matches: []mymemory.TranslationMatch{{Translation: "你好"}, {Translation: "您好"}},
	}, nil
}

// getTestServer returns a test server.
func getTestServer(storage db.Storage) (*httptest.Server, func()) {
	return getTestServerWith(storage, &fakeTranslator{}, nil)
}

func getTestServerWith(storage db.Storage, translator Translator, cache db.Cache) (*httptest.Server, func()) {
	if storage == nil {
		storage = db.NewInMemoryStorage()
	}
	server := NewServer(storage, search.NewSearcher(storage), translator, cache, Options{
		JWTSecret:    testJWTSecret,
		DefaultLimit: 20,
		MaxLimit:     100,
		CORSOrigins:  []string{"http://localhost:3000"},
	})
	srv := httptest.NewServer(server.router)
	return srv, srv.Close
}

// getTestJWT returns a test JWT signed with testJWTSecret
func getTestJWT() string {
	return getUserJWT(testUserID)
}

func getUserJWT(userID int64) string {
	token, _ := (&authService{jwtSecret: []byte(testJWTSecret)}).createToken(userID)
	return "Bearer " + token
}

// fillDictionary saves parsed dictionary lines
func fillDictionary(t *testing.T, storage *db.InMemoryStorage, lines ...string) []db.Entry {
	entries := make([]db.Entry, 0, len(lines))
	for _, line := range lines {
		parsed, err := cedict.ParseLine(line)
		require.NoError(t, err)
		entries = append(entries, db.NewEntry(parsed))
	}
	require.NoError(t, storage.SaveEntries(context.Background(), entries))
	return entries
}

// doRequest executes request with optional JSON body and authorization header
func doRequest(t *testing.T, method string, url string, body string, auth string) (*http.Response, string) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return r, string(data)
}
