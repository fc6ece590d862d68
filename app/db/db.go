package db

import (
	"context"
	"errors"
	"time"

	"github.com/rbhz/zh-dictionary/app/cedict"
)

// UserID is a type for users ID
type UserID int64

// ErrNotFound is returned when object not found
var ErrNotFound error = errors.New("not found")

// ErrAlreadyExists is returned when a unique object already exists
var ErrAlreadyExists error = errors.New("already exists")

// DictionaryStorage defines methods for dictionary entries
type DictionaryStorage interface {
	// SaveEntries saves entries with their pronunciations and definitions.
	// A batch is saved atomically, IDs are assigned in place.
	SaveEntries(context.Context, []Entry) error
	// HasEntries reports whether any entry exists
	HasEntries(context.Context) (bool, error)
	// GetEntry returns entry by ID
	GetEntry(context.Context, int64) (Entry, error)
	// GetEntries returns entries by IDs ordered by ID
	GetEntries(context.Context, []int64) ([]Entry, error)
	// ListEntries returns first entries ordered by ID
	ListEntries(ctx context.Context, limit int) ([]Entry, error)
	// FindBySimplified returns entries whose simplified form contains keyword
	FindBySimplified(ctx context.Context, keyword string, limit int) ([]Entry, error)
	// MatchPinyin returns IDs of entries pronounced exactly as syllables
	MatchPinyin(ctx context.Context, syllables []string) ([]int64, error)
}

// HSKStorage defines methods for HSK word lists
type HSKStorage interface {
	// SaveWords saves HSK words
	SaveWords(context.Context, []Word) error
	// GetWordsByLevel returns words of HSK level
	GetWordsByLevel(ctx context.Context, level int, limit int, offset int) ([]Word, error)
}

// SentenceStorage defines methods for example sentences
type SentenceStorage interface {
	// SaveSentences saves sentences, IDs are assigned in place
	SaveSentences(context.Context, []Sentence) error
	// GetSentences returns sentences containing keyword, all if keyword is empty
	GetSentences(ctx context.Context, keyword string, limit int, offset int) ([]Sentence, error)
	// GetSentence returns sentence by ID
	GetSentence(context.Context, int64) (Sentence, error)
}

// UserStorage defines methods for users
type UserStorage interface {
	// CreateUser saves new user
	CreateUser(context.Context, User) (User, error)
	// GetUserByName returns user by username
	GetUserByName(context.Context, string) (User, error)
}

// WordListStorage defines methods for user word lists
type WordListStorage interface {
	// CreateWordList saves new word list
	CreateWordList(context.Context, WordList) (WordList, error)
	// GetWordList returns word list with its entries
	GetWordList(context.Context, int64) (WordList, error)
	// DeleteWordList removes word list
	DeleteWordList(context.Context, int64) error
	// GetWordLists returns user word lists without entries
	GetWordLists(context.Context, UserID) ([]WordList, error)
	// GetEntryWordLists returns IDs of user word lists containing entry
	GetEntryWordLists(ctx context.Context, entry int64, user UserID) ([]int64, error)
	// AddEntryToWordLists adds entry to user word lists, existing links are kept
	AddEntryToWordLists(ctx context.Context, entry int64, user UserID, lists []int64) error
	// RemoveEntryFromWordLists removes entry from user word lists
	RemoveEntryFromWordLists(ctx context.Context, entry int64, user UserID, lists []int64) error
}

// Storage defines method provided by database interfaces
type Storage interface {
	DictionaryStorage
	HSKStorage
	SentenceStorage
	UserStorage
	WordListStorage
}

// Transactor runs a function inside a single database transaction
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Entry holds a dictionary headword with its pronunciation and definitions
type Entry struct {
	ID             int64           `json:"id"`
	Simplified     string          `json:"simplified"`
	Traditional    string          `json:"traditional"`
	Pronunciations []Pronunciation `json:"pronunciations"`
	Definitions    []Definition    `json:"definitions"`
}

// Pronunciation is a single syllable of an entry at its position
type Pronunciation struct {
	EntryID  int64  `json:"-"`
	Pinyin   string `json:"pinyin"`
	Position int    `json:"position"`
}

// Definition is a single entry definition
type Definition struct {
	EntryID    int64  `json:"-"`
	Definition string `json:"definition"`
}

// NewEntry creates dictionary entry from parsed dictionary line
func NewEntry(parsed cedict.Entry) Entry {
	entry := Entry{
		Simplified:     parsed.Simplified,
		Traditional:    parsed.Traditional,
		Pronunciations: make([]Pronunciation, 0, len(parsed.Pronunciation)),
		Definitions:    make([]Definition, 0, len(parsed.Definitions)),
	}
	for i, syllable := range parsed.Pronunciation {
		entry.Pronunciations = append(entry.Pronunciations, Pronunciation{Pinyin: syllable, Position: i})
	}
	for _, d := range parsed.Definitions {
		entry.Definitions = append(entry.Definitions, Definition{Definition: d})
	}
	return entry
}

// setID assigns entry ID to entry and its children
func (e *Entry) setID(id int64) {
	e.ID = id
	for i := range e.Pronunciations {
		e.Pronunciations[i].EntryID = id
	}
	for i := range e.Definitions {
		e.Definitions[i].EntryID = id
	}
}

// Word holds a single HSK list word
type Word struct {
	ID          int64  `json:"id"`
	Simplified  string `json:"simplified"`
	Traditional string `json:"traditional"`
	Pinyin      string `json:"pinyin"`
	Definition  string `json:"definition"`
	Level       int    `json:"level_id"`
}

// Sentence holds an example sentence
type Sentence struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// User holds user data
type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Created      time.Time `json:"created"`
}

// WordList is a named user collection of dictionary entries
type WordList struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	User     UserID    `json:"user_id"`
	Created  time.Time `json:"time_created"`
	Modified time.Time `json:"time_modified"`
	Entries  []Entry   `json:"entries,omitempty"`
}
