// Package vocab implements the vocabulary store the induction loop operates
// on: an insertion-ordered set of surface forms with stable ids and
// observation frequencies.
package vocab

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tokenforge/subword-induction-platform/pkg/errors"
)

// SymbolSeparator joins the symbols of a surface form. It is an internal
// representation detail: a form like "l o w" is the three symbols l, o, w.
const SymbolSeparator = " "

// Entry is one vocabulary record. ID is assigned at first insertion and never
// reused or changed; Freq counts observations of the original word. Merges
// rewrite Form only.
type Entry struct {
	Form string
	ID   uint32
	Freq int
}

// Symbols splits the surface form into its symbol sequence.
func (e Entry) Symbols() []string {
	if e.Form == "" {
		return nil
	}
	return strings.Split(e.Form, SymbolSeparator)
}

// Store is an insertion-ordered mapping from surface form to (id, frequency).
// Surface forms are unique at any point in time; the first-seen form keeps the
// lowest id. Entries are never deleted, only rewritten.
//
// The byForm index mirrors the entries slice so Upsert is O(1) amortised
// instead of the reference's linear scan; ordering and tie-break behaviour
// are identical.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	byForm  map[string]int
	maxSize int
	logger  *slog.Logger
}

// NewStore creates an empty store. maxSize <= 0 means unbounded.
func NewStore(maxSize int) *Store {
	return &Store{
		byForm:  make(map[string]int),
		maxSize: maxSize,
		logger:  slog.Default().With("component", "vocab-store"),
	}
}

// Upsert increments the frequency of an existing form or appends a new entry
// with frequency 1 and id = current size. Inserting past maxSize is capped:
// the new form is dropped with a warning, matching the cap-and-continue
// policy for capacity limits.
func (s *Store) Upsert(form string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byForm[form]; ok {
		s.entries[i].Freq++
		return nil
	}
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.logger.Warn("vocabulary full, dropping form",
			"form", form,
			"max_size", s.maxSize,
		)
		return errors.Newf(errors.ErrCapacityExceeded,
			"vocabulary at %d entries, form %q dropped", s.maxSize, form)
	}
	s.entries = append(s.entries, Entry{
		Form: form,
		ID:   uint32(len(s.entries)),
		Freq: 1,
	})
	s.byForm[form] = len(s.entries) - 1
	return nil
}

// RewriteForm replaces entry i's surface form in place. ID and frequency are
// untouched. This is the only mutation path the merge pass uses.
func (s *Store) RewriteForm(i int, form string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.entries) {
		return
	}
	old := s.entries[i].Form
	if old == form {
		return
	}
	delete(s.byForm, old)
	s.entries[i].Form = form
	s.byForm[form] = i
}

// Size returns the number of entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// EntryAt returns the entry at index i in insertion order.
func (s *Store) EntryAt(i int) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[i]
}

// Entries returns a snapshot of all entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clone returns a deep copy of the store with identical ordering, ids, and
// frequencies.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := NewStore(s.maxSize)
	c.entries = make([]Entry, len(s.entries))
	copy(c.entries, s.entries)
	for i, e := range c.entries {
		c.byForm[e.Form] = i
	}
	return c
}

// SymbolTotal returns the sum over all entries of the symbol count of their
// surface forms.
func (s *Store) SymbolTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, e := range s.entries {
		total += len(e.Symbols())
	}
	return total
}

// SeedSubwords converts every surface form from a bare word into a
// space-separated sequence of single-rune symbols. Run once before the first
// induction iteration. Forms longer than maxSymbols runes are truncated with
// a warning.
func (s *Store) SeedSubwords(maxSymbols int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		runes := []rune(s.entries[i].Form)
		if maxSymbols > 0 && len(runes) > maxSymbols {
			s.logger.Warn("form exceeds symbol limit, truncating",
				"form", s.entries[i].Form,
				"symbols", len(runes),
				"max_symbols", maxSymbols,
			)
			runes = runes[:maxSymbols]
		}
		parts := make([]string, len(runes))
		for j, r := range runes {
			parts[j] = string(r)
		}
		seeded := strings.Join(parts, SymbolSeparator)
		delete(s.byForm, s.entries[i].Form)
		s.entries[i].Form = seeded
		s.byForm[seeded] = i
	}
}
