package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gasolina/internal/core"
	"gasolina/internal/ports"
)

// ErrDuplicateID is returned by Append when the id is already stored.
var ErrDuplicateID = errors.New("duplicate entry id")

// Store keeps entries in memory. When created with NewFromFile every change
// is written back to disk as a JSON array, the same layout the browser app
// kept in local storage. The budget goes to a sibling ".budget" file.
//
// A file-backed store re-reads its files whenever they changed on disk, so a
// second process sharing DATA_FILE (the worker) sees the server's writes.
type Store struct {
	mu     sync.Mutex
	path   string
	items  []core.Entry
	budget float64

	entriesSeen stamp
	budgetSeen  stamp
}

// stamp identifies one version of a file. The zero stamp means "absent".
type stamp struct {
	mod  time.Time
	size int64
}

func (a stamp) same(b stamp) bool { return a.size == b.size && a.mod.Equal(b.mod) }

func statStamp(path string) (stamp, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return stamp{}, nil
	}
	if err != nil {
		return stamp{}, err
	}
	return stamp{mod: fi.ModTime(), size: fi.Size()}, nil
}

func New() *Store {
	return &Store{}
}

// NewFromFile loads the snapshot at path, if any, and persists changes to it.
// A missing file is an empty store.
func NewFromFile(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.syncLocked(); err != nil {
		return nil, err
	}
	slog.Info("Loaded memory store", "path", path, "entries", len(s.items))
	return s, nil
}

// syncLocked reloads whichever backing file changed since it was last read
// or written by this store.
func (s *Store) syncLocked() error {
	if s.path == "" {
		return nil
	}

	st, err := statStamp(s.path)
	if err != nil {
		return fmt.Errorf("stat data file: %w", err)
	}
	if !st.same(s.entriesSeen) {
		entries, err := readEntries(s.path)
		if err != nil {
			return err
		}
		s.items, s.entriesSeen = entries, st
	}

	bp := budgetPath(s.path)
	if st, err = statStamp(bp); err != nil {
		return fmt.Errorf("stat budget file: %w", err)
	}
	if !st.same(s.budgetSeen) {
		budget, err := readBudget(bp)
		if err != nil {
			return err
		}
		s.budget, s.budgetSeen = budget, st
	}
	return nil
}

func readEntries(path string) ([]core.Entry, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	case len(strings.TrimSpace(string(data))) == 0:
		return nil, nil
	}
	entries, err := core.DecodeLegacyEntries(data)
	if err != nil {
		return nil, fmt.Errorf("load data file %s: %w", path, err)
	}
	return entries, nil
}

func readBudget(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read budget file: %w", err)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse budget file: %w", err)
	}
	return d.InexactFloat64(), nil
}

// Append stores the entry.
func (s *Store) Append(_ context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return core.Entry{}, err
	}
	if slices.ContainsFunc(s.items, func(x core.Entry) bool { return x.ID == e.ID }) {
		return core.Entry{}, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
	}
	s.items = append(s.items, e)
	if err := s.flushEntries(); err != nil {
		s.items = s.items[:len(s.items)-1]
		return core.Entry{}, err
	}
	return e, nil
}

// ListEntries returns a copy of all entries, newest first.
func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return nil, err
	}
	return core.SortNewestFirst(s.items), nil
}

// DeleteEntry removes the entry with the given id.
func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	i := slices.IndexFunc(s.items, func(x core.Entry) bool { return x.ID == id })
	if i < 0 {
		return ports.ErrNotFound
	}
	removed := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	if err := s.flushEntries(); err != nil {
		s.items = slices.Insert(s.items, i, removed)
		return err
	}
	return nil
}

func (s *Store) Budget(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return 0, err
	}
	return s.budget, nil
}

func (s *Store) SetBudget(_ context.Context, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %v", core.ErrNegativeBudget, amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		value := decimal.NewFromFloat(amount).String()
		if err := writeAtomic(budgetPath(s.path), []byte(value+"\n")); err != nil {
			return err
		}
		s.budgetSeen, _ = statStamp(budgetPath(s.path))
	}
	s.budget = amount
	return nil
}

func (s *Store) flushEntries() error {
	if s.path == "" {
		return nil
	}
	data, err := core.EncodeEntries(s.items)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.entriesSeen, _ = statStamp(s.path)
	return nil
}

func budgetPath(path string) string { return path + ".budget" }

// writeAtomic replaces path via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
