package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jessevdk/go-flags"
	log "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rbhz/zh-dictionary/app/api"
	"github.com/rbhz/zh-dictionary/app/bot"
	"github.com/rbhz/zh-dictionary/app/clients/mymemory"
	"github.com/rbhz/zh-dictionary/app/db"
	"github.com/rbhz/zh-dictionary/app/importer"
	"github.com/rbhz/zh-dictionary/app/search"
)

// ImportFiles describes files to import, names are relative to data dir
type ImportFiles struct {
	DataDir    string `long:"data-dir" env:"DATA_DIR" default:"." description:"Directory with source files"`
	Dictionary string `long:"dictionary" env:"DICTIONARY_FILE" description:"CC-CEDICT file name"`
	HSKDir     string `long:"hsk-dir" env:"HSK_DIR" description:"Directory with hsk1.csv..hsk6.csv"`
	Sentences  string `long:"sentences" env:"SENTENCES_FILE" description:"Example sentences file name"`
	BatchSize  int    `long:"batch-size" env:"BATCH_SIZE" default:"3000" description:"Records saved at once"`
	SingleTx   bool   `long:"single-tx" env:"SINGLE_TX" description:"Run the whole import in one transaction"`
}

func (f ImportFiles) empty() bool {
	return f.Dictionary == "" && f.HSKDir == "" && f.Sentences == ""
}

// run imports configured files into storage
func (f ImportFiles) run(ctx context.Context, storage importer.Storage) error {
	_, err := importer.New(storage, importer.Options{BatchSize: f.BatchSize, SingleTx: f.SingleTx}).
		Run(ctx, importer.Files{
			FS:         os.DirFS(f.DataDir),
			Dictionary: f.Dictionary,
			HSKDir:     f.HSKDir,
			Sentences:  f.Sentences,
		})
	return err
}

// ServeCommand runs HTTP API
type ServeCommand struct {
	opts *Opts

	Port         int           `long:"port" env:"PORT" default:"8080" description:"Port to listen on"`
	JWTSecret    string        `long:"jwt" env:"JWT_SECRET" required:"true" description:"JWT secret"`
	JWTTTL       time.Duration `long:"jwt-ttl" env:"JWT_TTL" default:"15m" description:"JWT lifetime"`
	DefaultLimit int           `long:"default-limit" env:"DEFAULT_LIMIT" default:"20" description:"Search results limit when not set"`
	MaxLimit     int           `long:"max-limit" env:"MAX_LIMIT" default:"100" description:"Maximum search results limit"`
	CORSOrigins  []string      `long:"cors-origin" env:"CORS_ORIGINS" env-delim:"," description:"Allowed CORS origin"`
	Migrate      bool          `long:"migrate" env:"MIGRATE" description:"Apply migrations before start"`
	NoTranslator bool          `long:"no-translator" env:"NO_TRANSLATOR" description:"Disable translator endpoint"`
	MyMemoryMail string        `long:"mymemory-email" env:"MYMEMORY_EMAIL" description:"Contact email for MyMemory API quota"`
	BotToken     string        `long:"bot-token" env:"BOT_TOKEN" description:"Also run Telegram lookup bot with this token"`

	Import ImportFiles `group:"In-memory import" namespace:"import" env-namespace:"IMPORT"`
}

func (c *ServeCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackend(ctx, *c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.pool != nil && c.Migrate {
		if err := migrate(ctx, b.pool); err != nil {
			return err
		}
	}
	if b.pool == nil && !c.Import.empty() {
		if err := c.Import.run(ctx, b.storage); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	storage := b.cachedStorage(c.opts.CacheTTL)
	var translator api.Translator
	if !c.NoTranslator {
		translator = mymemory.NewClient(&http.Client{Timeout: 10 * time.Second}, c.MyMemoryMail)
	}
	searcher := search.NewSearcher(storage)
	server := api.NewServer(storage, searcher, translator, b.cache, api.Options{
		JWTSecret:    c.JWTSecret,
		JWTTTL:       c.JWTTTL,
		DefaultLimit: c.DefaultLimit,
		MaxLimit:     c.MaxLimit,
		CORSOrigins:  c.CORSOrigins,
		CacheTTL:     c.opts.CacheTTL,
	})

	var tg *bot.TelegramBot
	if c.BotToken != "" {
		if tg, err = bot.NewTelegramBot(c.BotToken, searcher, storage, bot.DefaultHandlers()); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, c.Port)
	})
	if tg != nil {
		g.Go(func() error {
			tg.Start(ctx)
			return nil
		})
	}
	return g.Wait()
}

// ImportCommand loads source files into storage
type ImportCommand struct {
	opts *Opts

	ImportFiles
}

func (c *ImportCommand) Execute([]string) error {
	if c.empty() {
		return errors.New("nothing to import, set --dictionary, --hsk-dir or --sentences")
	}
	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackend(ctx, *c.opts)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.pool == nil {
		log.Warn().Msg("imported data is lost on exit with in-memory storage")
	}
	return c.run(ctx, b.storage)
}

// MigrateCommand applies database migrations
type MigrateCommand struct {
	opts *Opts
}

func (c *MigrateCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if c.opts.DatabaseURL == "" {
		return errors.New("database is not configured")
	}
	b, err := openBackend(ctx, *c.opts)
	if err != nil {
		return err
	}
	defer b.Close()
	return migrate(ctx, b.pool)
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	results, err := db.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("duration", r.Duration).Msg("Migration applied")
	}
	return nil
}

// BotCommand runs Telegram lookup bot
type BotCommand struct {
	opts *Opts

	BotToken string `long:"bot-token" env:"BOT_TOKEN" required:"true" description:"Telegram bot token"`
}

func (c *BotCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackend(ctx, *c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	storage := b.cachedStorage(c.opts.CacheTTL)
	tg, err := bot.NewTelegramBot(c.BotToken, search.NewSearcher(storage), storage, bot.DefaultHandlers())
	if err != nil {
		return err
	}
	tg.Start(ctx)
	return nil
}

func addCommands(parser *flags.Parser, opts *Opts) {
	commands := []struct {
		name, short string
		data        any
	}{
		{"serve", "Run HTTP API", &ServeCommand{opts: opts}},
		{"import", "Import dictionary, HSK lists and sentences", &ImportCommand{opts: opts}},
		{"migrate", "Apply database migrations", &MigrateCommand{opts: opts}},
		{"bot", "Run Telegram lookup bot", &BotCommand{opts: opts}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.short, c.data); err != nil {
			log.Fatal().Err(err).Str("command", c.name).Msg("failed to add command")
		}
	}
}
