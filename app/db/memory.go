package db

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rbhz/zh-dictionary/app/pinyin"
)

type InMemoryStorage struct {
	entries     map[int64]Entry
	entryIDs    []int64
	pinyinIndex map[pinyin.Key][]int64
	words       []Word
	sentences   []Sentence
	users       map[UserID]User
	wordLists   map[int64]WordList
	listEntries map[int64][]int64
	lastID      int64
	mx          sync.RWMutex
}

func (d *InMemoryStorage) nextID() int64 {
	d.lastID++
	return d.lastID
}

func (d *InMemoryStorage) SaveEntries(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Pronunciations) == 0 {
			return errors.New("entry without pronunciation")
		}
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	for i := range entries {
		entries[i].setID(d.nextID())
		e := entries[i]
		d.entries[e.ID] = e
		d.entryIDs = append(d.entryIDs, e.ID)
		for _, p := range e.Pronunciations {
			key := pinyin.Key{Position: p.Position, Pinyin: p.Pinyin}
			d.pinyinIndex[key] = append(d.pinyinIndex[key], e.ID)
		}
	}
	return nil
}

func (d *InMemoryStorage) HasEntries(context.Context) (bool, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return len(d.entryIDs) > 0, nil
}

func (d *InMemoryStorage) GetEntry(_ context.Context, id int64) (Entry, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	e, ok := d.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (d *InMemoryStorage) GetEntries(_ context.Context, ids []int64) ([]Entry, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return d.getEntries(ids), nil
}

func (d *InMemoryStorage) getEntries(ids []int64) []Entry {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	result := make([]Entry, 0, len(sorted))
	for _, id := range sorted {
		if e, ok := d.entries[id]; ok {
			result = append(result, e)
		}
	}
	return result
}

func (d *InMemoryStorage) ListEntries(_ context.Context, limit int) ([]Entry, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]Entry, 0)
	for _, id := range d.entryIDs {
		if len(result) >= limit {
			break
		}
		result = append(result, d.entries[id])
	}
	return result, nil
}

func (d *InMemoryStorage) FindBySimplified(_ context.Context, keyword string, limit int) ([]Entry, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]Entry, 0)
	for _, id := range d.entryIDs {
		if len(result) >= limit {
			break
		}
		if e := d.entries[id]; strings.Contains(e.Simplified, keyword) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (d *InMemoryStorage) MatchPinyin(_ context.Context, syllables []string) ([]int64, error) {
	if len(syllables) == 0 {
		return []int64{}, nil
	}
	d.mx.RLock()
	defer d.mx.RUnlock()
	// candidates must have the first syllable in place
	var rows []pinyin.Row
	for _, id := range d.pinyinIndex[pinyin.Key{Position: 0, Pinyin: syllables[0]}] {
		for _, p := range d.entries[id].Pronunciations {
			rows = append(rows, pinyin.Row{EntryID: id, Position: p.Position, Pinyin: p.Pinyin})
		}
	}
	return pinyin.Match(syllables, rows), nil
}

func (d *InMemoryStorage) SaveWords(_ context.Context, words []Word) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for _, w := range words {
		w.ID = d.nextID()
		d.words = append(d.words, w)
	}
	return nil
}

func (d *InMemoryStorage) GetWordsByLevel(_ context.Context, level int, limit int, offset int) ([]Word, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]Word, 0)
	skipped := 0
	for _, w := range d.words {
		if w.Level != level {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) >= limit {
			break
		}
		result = append(result, w)
	}
	return result, nil
}

func (d *InMemoryStorage) SaveSentences(_ context.Context, sentences []Sentence) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for i := range sentences {
		sentences[i].ID = d.nextID()
		d.sentences = append(d.sentences, sentences[i])
	}
	return nil
}

func (d *InMemoryStorage) GetSentences(_ context.Context, keyword string, limit int, offset int) ([]Sentence, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]Sentence, 0)
	skipped := 0
	for _, s := range d.sentences {
		if !strings.Contains(s.Text, keyword) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) >= limit {
			break
		}
		result = append(result, s)
	}
	return result, nil
}

func (d *InMemoryStorage) GetSentence(_ context.Context, id int64) (Sentence, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	for _, s := range d.sentences {
		if s.ID == id {
			return s, nil
		}
	}
	return Sentence{}, ErrNotFound
}

func (d *InMemoryStorage) CreateUser(_ context.Context, user User) (User, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	for _, u := range d.users {
		if u.Username == user.Username {
			return User{}, ErrAlreadyExists
		}
	}
	user.ID = UserID(d.nextID())
	user.Created = time.Now().UTC()
	d.users[user.ID] = user
	return user, nil
}

func (d *InMemoryStorage) GetUserByName(_ context.Context, username string) (User, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (d *InMemoryStorage) CreateWordList(_ context.Context, list WordList) (WordList, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if _, ok := d.users[list.User]; !ok {
		return WordList{}, ErrNotFound
	}
	now := time.Now().UTC()
	list.ID = d.nextID()
	list.Created, list.Modified = now, now
	list.Entries = nil
	d.wordLists[list.ID] = list
	return list, nil
}

func (d *InMemoryStorage) GetWordList(_ context.Context, id int64) (WordList, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	list, ok := d.wordLists[id]
	if !ok {
		return WordList{}, ErrNotFound
	}
	list.Entries = d.getEntries(d.listEntries[id])
	return list, nil
}

func (d *InMemoryStorage) DeleteWordList(_ context.Context, id int64) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if _, ok := d.wordLists[id]; !ok {
		return ErrNotFound
	}
	delete(d.wordLists, id)
	delete(d.listEntries, id)
	return nil
}

func (d *InMemoryStorage) GetWordLists(_ context.Context, user UserID) ([]WordList, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]WordList, 0)
	for _, list := range d.wordLists {
		if list.User == user {
			result = append(result, list)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *InMemoryStorage) GetEntryWordLists(_ context.Context, entry int64, user UserID) ([]int64, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	result := make([]int64, 0)
	for listID, entries := range d.listEntries {
		if d.wordLists[listID].User != user {
			continue
		}
		for _, e := range entries {
			if e == entry {
				result = append(result, listID)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (d *InMemoryStorage) AddEntryToWordLists(_ context.Context, entry int64, user UserID, lists []int64) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if _, ok := d.entries[entry]; !ok {
		return ErrNotFound
	}
	for _, listID := range lists {
		list, ok := d.wordLists[listID]
		if !ok || list.User != user || containsID(d.listEntries[listID], entry) {
			continue
		}
		d.listEntries[listID] = append(d.listEntries[listID], entry)
		list.Modified = time.Now().UTC()
		d.wordLists[listID] = list
	}
	return nil
}

func (d *InMemoryStorage) RemoveEntryFromWordLists(_ context.Context, entry int64, user UserID, lists []int64) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for _, listID := range lists {
		list, ok := d.wordLists[listID]
		if !ok || list.User != user {
			continue
		}
		entries := d.listEntries[listID][:0]
		for _, e := range d.listEntries[listID] {
			if e != entry {
				entries = append(entries, e)
			}
		}
		d.listEntries[listID] = entries
		list.Modified = time.Now().UTC()
		d.wordLists[listID] = list
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		entries:     make(map[int64]Entry),
		pinyinIndex: make(map[pinyin.Key][]int64),
		users:       make(map[UserID]User),
		wordLists:   make(map[int64]WordList),
		listEntries: make(map[int64][]int64),
	}
}
