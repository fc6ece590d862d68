package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	log "github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/rbhz/zh-dictionary/app/db"
)

// Opts holds options shared by all commands
type Opts struct {
	DatabaseURL string        `long:"database" env:"DATABASE_URL" description:"PostgreSQL DSN, in-memory storage is used when empty"`
	MaxConns    int32         `long:"max-conns" env:"DATABASE_MAX_CONNS" default:"10" description:"Maximum PostgreSQL connections"`
	RedisURL    string        `long:"redis" env:"REDIS_URL" description:"Redis cache URL"`
	BoltDB      string        `long:"boltdb" env:"BOLTDB" description:"Path to BoltDB cache, used when Redis is not set"`
	CacheTTL    time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"1h" description:"Cache entries TTL"`
	LogLevel    string        `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level"`
	LogJSON     bool          `long:"log-json" env:"LOG_JSON" description:"Write logs as JSON"`
}

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		setupLog(opts)
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	addCommands(parser, &opts)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return
		}
		log.Fatal().Err(err).Msg("command failed")
	}
}

// setupLog configures global zerolog logger
func setupLog(opts Opts) {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !opts.LogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if err != nil {
		log.Warn().Str("level", opts.LogLevel).Msg("unknown log level, using info")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// backend holds opened storage and cache
type backend struct {
	storage db.Storage
	pool    *pgxpool.Pool
	cache   db.Cache
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend opens storage and cache configured by options
func openBackend(ctx context.Context, opts Opts) (*backend, error) {
	b := &backend{}
	if opts.DatabaseURL != "" {
		pool, err := db.NewPostgresPool(ctx, opts.DatabaseURL, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.pool = pool
		b.storage = db.NewPostgresStorage(pool)
	} else {
		log.Warn().Msg("database is not configured, using in-memory storage")
		b.storage = db.NewInMemoryStorage()
	}

	switch {
	case opts.RedisURL != "":
		cache, err := db.NewRedisCache(ctx, opts.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := cache.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close redis client")
			}
		})
		b.cache = cache
	case opts.BoltDB != "":
		boltDB, err := bolt.Open(opts.BoltDB, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := boltDB.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close boltDB database")
			}
		})
		cache, err := db.NewBoltCache(boltDB)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.cache = cache
	}
	return b, nil
}

// cachedStorage wraps storage with cache when one is configured
func (b *backend) cachedStorage(ttl time.Duration) db.Storage {
	if b.cache == nil {
		return b.storage
	}
	return db.NewCachedStorage(b.storage, b.cache, ttl)
}
