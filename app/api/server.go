package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/db"
	"github.com/rbhz/zh-dictionary/app/search"
)

type ctxKey string

const ctxUserIDKey ctxKey = "userID"

// Options configures API server
type Options struct {
	JWTSecret    string
	JWTTTL       time.Duration
	DefaultLimit int
	MaxLimit     int
	CORSOrigins  []string
	CacheTTL     time.Duration
}

type Server struct {
	router chi.Router
}

// Run serves API until ctx is cancelled
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setJsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func NewServer(storage db.Storage, searcher *search.Searcher, translator Translator, cache db.Cache, opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.JWTTTL <= 0 {
		opts.JWTTTL = 15 * time.Minute
	}
	s := &Server{}
	dict := dictionaryService{storage: storage, searcher: searcher, defaultLimit: opts.DefaultLimit, maxLimit: opts.MaxLimit}
	auth := authService{storage: storage, jwtSecret: []byte(opts.JWTSecret), ttl: opts.JWTTTL}
	hsk := hskService{storage: storage}
	sentences := sentenceService{storage: storage}
	lists := wordListService{storage: storage}
	trans := translatorService{translator: translator, cache: cache, ttl: opts.CacheTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.CORSOrigins))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.setJsonContentType)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", auth.SignUp)
			r.Post("/token", auth.Token)
		})
		r.Route("/dictionary", func(r chi.Router) {
			r.Get("/", dict.Search)
			r.Get("/{id}", dict.GetEntry)
		})
		r.Get("/levels/{level}/words", hsk.GetWords)
		r.Route("/sentences", func(r chi.Router) {
			r.Get("/", sentences.GetSentences)
			r.Get("/{id}", sentences.GetSentence)
		})
		r.Route("/wordlists", func(r chi.Router) {
			r.Use(auth.UserCtx)
			r.Get("/", lists.GetWordLists)
			r.Post("/", lists.CreateWordList)
			r.Get("/{id}", lists.GetWordList)
			r.Delete("/{id}", lists.DeleteWordList)
			r.Get("/entries/{entryID}", lists.GetEntryWordLists)
			r.Post("/entries/{entryID}", lists.AddEntry)
			r.Delete("/entries/{entryID}", lists.RemoveEntry)
		})
		if translator != nil {
			r.Post("/translator", trans.Translate)
		}
	})

	s.router = r
	return s
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("")
}

// writeError writes plain text error
func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if message == "" {
		return
	}
	if _, err := w.Write([]byte(message)); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// writeJSON writes JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	response, jerr := json.Marshal(data)
	if jerr != nil {
		log.Error().Err(jerr).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// intParam parses integer query parameter, def is used for missing values
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return value, nil
}

// idParam parses int64 URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// pagination parses limit and offset query parameters
func pagination(r *http.Request, defLimit int) (limit int, offset int, err error) {
	if limit, err = intParam(r, "limit", defLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit < 0 || offset < 0 {
		return 0, 0, errors.New("invalid pagination")
	}
	return limit, offset, nil
}
