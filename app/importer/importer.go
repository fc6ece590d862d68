// Package importer loads dictionary, HSK word lists and example sentences
// from files into storage.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rbhz/zh-dictionary/app/cedict"
	"github.com/rbhz/zh-dictionary/app/db"
)

// DefaultBatchSize is a number of records saved at once
const DefaultBatchSize = 3000

// ErrNotEmpty is returned when dictionary already has entries
var ErrNotEmpty = errors.New("dictionary is not empty")

// Storage is the part of storage written by importer
type Storage interface {
	db.DictionaryStorage
	db.HSKStorage
	db.SentenceStorage
}

// Options configures importer
type Options struct {
	BatchSize int
	// SingleTx runs the whole import in one transaction
	SingleTx bool
}

// Files describes import sources inside FS, empty names are skipped
type Files struct {
	FS         fs.FS
	Dictionary string
	HSKDir     string
	Sentences  string
}

// Summary holds import counters
type Summary struct {
	Dictionary cedict.Stats
	Words      int
	Sentences  int
}

// Importer saves parsed records in batches
type Importer struct {
	storage   Storage
	batchSize int
	singleTx  bool
}

// New creates Importer
func New(storage Storage, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Importer{storage: storage, batchSize: opts.BatchSize, singleTx: opts.SingleTx}
}

// Run imports all configured files into an empty dictionary
func (i *Importer) Run(ctx context.Context, files Files) (Summary, error) {
	var summary Summary
	has, err := i.storage.HasEntries(ctx)
	if err != nil {
		return summary, fmt.Errorf("check dictionary: %w", err)
	}
	if has {
		return summary, ErrNotEmpty
	}

	started := time.Now()
	run := func(ctx context.Context) error {
		if files.HSKDir != "" {
			if summary.Words, err = i.ImportHSK(ctx, files.FS, files.HSKDir); err != nil {
				return err
			}
		}
		if files.Dictionary != "" {
			if summary.Dictionary, err = i.importFile(ctx, files.FS, files.Dictionary, i.ImportDictionary); err != nil {
				return err
			}
		}
		if files.Sentences != "" {
			var stats cedict.Stats
			stats, err = i.importFile(ctx, files.FS, files.Sentences, func(ctx context.Context, r io.Reader) (cedict.Stats, error) {
				n, err := i.ImportSentences(ctx, r)
				return cedict.Stats{Entries: n}, err
			})
			if err != nil {
				return err
			}
			summary.Sentences = stats.Entries
		}
		return nil
	}

	if i.singleTx {
		tx, ok := i.storage.(db.Transactor)
		if !ok {
			return summary, errors.New("single transaction import is not supported by storage")
		}
		err = tx.RunInTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return summary, err
	}
	log.Info().
		Int("entries", summary.Dictionary.Entries).
		Int("surnames", summary.Dictionary.Surnames).
		Int("words", summary.Words).
		Int("sentences", summary.Sentences).
		Dur("took", time.Since(started)).
		Msg("Import finished")
	return summary, nil
}

func (i *Importer) importFile(
	ctx context.Context, fsys fs.FS, name string,
	fn func(context.Context, io.Reader) (cedict.Stats, error),
) (cedict.Stats, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return cedict.Stats{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	stats, err := fn(ctx, f)
	if err != nil {
		return stats, fmt.Errorf("import %s: %w", name, err)
	}
	return stats, nil
}

// ImportDictionary parses dictionary file and saves its entries.
// A malformed line stops the import.
func (i *Importer) ImportDictionary(ctx context.Context, r io.Reader) (cedict.Stats, error) {
	reader := cedict.NewReader(r)
	batch := make([]db.Entry, 0, i.batchSize)
	saved := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.storage.SaveEntries(ctx, batch); err != nil {
			return fmt.Errorf("save entries: %w", err)
		}
		saved += len(batch)
		log.Debug().Int("saved", saved).Msg("Dictionary batch saved")
		batch = batch[:0]
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return reader.Stats(), err
		}
		parsed, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reader.Stats(), err
		}
		batch = append(batch, db.NewEntry(parsed))
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return reader.Stats(), err
			}
		}
	}
	if err := flush(); err != nil {
		return reader.Stats(), err
	}
	stats := reader.Stats()
	log.Info().
		Int("lines", stats.Lines).
		Int("entries", stats.Entries).
		Int("surnames", stats.Surnames).
		Msg("Dictionary imported")
	return stats, nil
}

// ImportHSK imports hsk1.csv..hsk6.csv from dir
func (i *Importer) ImportHSK(ctx context.Context, fsys fs.FS, dir string) (int, error) {
	total := 0
	for level := MinLevel; level <= MaxLevel; level++ {
		name := path.Join(dir, fmt.Sprintf("hsk%d.csv", level))
		stats, err := i.importFile(ctx, fsys, name, func(ctx context.Context, r io.Reader) (cedict.Stats, error) {
			n, err := i.ImportHSKLevel(ctx, level, r)
			return cedict.Stats{Entries: n}, err
		})
		if err != nil {
			return total, err
		}
		total += stats.Entries
	}
	log.Info().Int("words", total).Msg("HSK lists imported")
	return total, nil
}

// ImportHSKLevel imports words of single HSK level
func (i *Importer) ImportHSKLevel(ctx context.Context, level int, r io.Reader) (int, error) {
	words := NewWordReader(r, level)
	batch := make([]db.Word, 0, i.batchSize)
	saved := 0
	for {
		w, err := words.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return saved, err
		}
		batch = append(batch, w)
		if len(batch) >= i.batchSize {
			if err := i.storage.SaveWords(ctx, batch); err != nil {
				return saved, fmt.Errorf("save words: %w", err)
			}
			saved += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := i.storage.SaveWords(ctx, batch); err != nil {
			return saved, fmt.Errorf("save words: %w", err)
		}
		saved += len(batch)
	}
	log.Debug().Int("level", level).Int("words", saved).Msg("HSK level imported")
	return saved, nil
}

// ImportSentences imports one sentence per line, blank lines are skipped
func (i *Importer) ImportSentences(ctx context.Context, r io.Reader) (int, error) {
	scanner := newScanner(r)
	batch := make([]db.Sentence, 0, i.batchSize)
	saved := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.storage.SaveSentences(ctx, batch); err != nil {
			return fmt.Errorf("save sentences: %w", err)
		}
		saved += len(batch)
		batch = make([]db.Sentence, 0, i.batchSize)
		return nil
	}
	for scanner.Scan() {
		text := trimLine(scanner.Text())
		if text == "" {
			continue
		}
		batch = append(batch, db.Sentence{Text: text})
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return saved, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return saved, fmt.Errorf("read sentences: %w", err)
	}
	if err := flush(); err != nil {
		return saved, err
	}
	log.Info().Int("sentences", saved).Msg("Sentences imported")
	return saved, nil
}
