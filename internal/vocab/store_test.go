package vocab

import (
	stderrors "errors"
	"testing"

	"github.com/tokenforge/subword-induction-platform/pkg/errors"
)

func TestUpsertAssignsStableIDs(t *testing.T) {
	s := NewStore(0)
	words := []string{"low", "lower", "low", "newest", "low", "lower"}
	for _, w := range words {
		if err := s.Upsert(w); err != nil {
			t.Fatalf("Upsert(%q) returned error: %v", w, err)
		}
	}

	if got := s.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}
	want := []Entry{
		{Form: "low", ID: 0, Freq: 3},
		{Form: "lower", ID: 1, Freq: 2},
		{Form: "newest", ID: 2, Freq: 1},
	}
	for i, w := range want {
		got := s.EntryAt(i)
		if got != w {
			t.Errorf("EntryAt(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestUpsertCapacity(t *testing.T) {
	s := NewStore(2)
	if err := s.Upsert("a"); err != nil {
		t.Fatalf("Upsert(a): %v", err)
	}
	if err := s.Upsert("b"); err != nil {
		t.Fatalf("Upsert(b): %v", err)
	}
	err := s.Upsert("c")
	if !stderrors.Is(err, errors.ErrCapacityExceeded) {
		t.Fatalf("Upsert over capacity = %v, want ErrCapacityExceeded", err)
	}
	// Existing forms still increment past the cap.
	if err := s.Upsert("a"); err != nil {
		t.Fatalf("Upsert(a) after cap: %v", err)
	}
	if got := s.EntryAt(0).Freq; got != 2 {
		t.Errorf("freq after capped upsert = %d, want 2", got)
	}
	if got := s.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
}

func TestRewriteFormPreservesIDAndFreq(t *testing.T) {
	s := NewStore(0)
	s.Upsert("low")
	s.Upsert("low")

	s.RewriteForm(0, "l o w")
	e := s.EntryAt(0)
	if e.Form != "l o w" {
		t.Errorf("Form = %q, want %q", e.Form, "l o w")
	}
	if e.ID != 0 || e.Freq != 2 {
		t.Errorf("ID/Freq = %d/%d, want 0/2", e.ID, e.Freq)
	}

	// Out-of-range rewrites are ignored.
	s.RewriteForm(5, "x")
	s.RewriteForm(-1, "x")
	if got := s.Size(); got != 1 {
		t.Errorf("Size() after bad rewrites = %d, want 1", got)
	}
}

func TestSeedSubwords(t *testing.T) {
	s := NewStore(0)
	s.Upsert("low")
	s.Upsert("a")

	s.SeedSubwords(0)
	if got := s.EntryAt(0).Form; got != "l o w" {
		t.Errorf("seeded form = %q, want %q", got, "l o w")
	}
	if got := s.EntryAt(1).Form; got != "a" {
		t.Errorf("seeded form = %q, want %q", got, "a")
	}
	if got := len(s.EntryAt(0).Symbols()); got != 3 {
		t.Errorf("symbol count = %d, want 3", got)
	}
}

func TestSeedSubwordsTruncates(t *testing.T) {
	s := NewStore(0)
	s.Upsert("abcdef")
	s.SeedSubwords(3)
	if got := s.EntryAt(0).Form; got != "a b c" {
		t.Errorf("truncated form = %q, want %q", got, "a b c")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore(0)
	s.Upsert("low")
	s.Upsert("low")
	s.Upsert("wide")

	c := s.Clone()
	c.SeedSubwords(0)
	c.RewriteForm(0, "lo w")

	if got := s.EntryAt(0).Form; got != "low" {
		t.Errorf("original mutated by clone rewrite: %q", got)
	}
	if got := c.EntryAt(0).Form; got != "lo w" {
		t.Errorf("clone form = %q, want %q", got, "lo w")
	}
	if got := c.EntryAt(0).Freq; got != 2 {
		t.Errorf("clone freq = %d, want 2", got)
	}
}

func TestSymbolTotal(t *testing.T) {
	s := NewStore(0)
	s.Upsert("low")
	s.Upsert("wide")
	s.SeedSubwords(0)
	if got := s.SymbolTotal(); got != 7 {
		t.Errorf("SymbolTotal() = %d, want 7", got)
	}
}

func TestEmptyFormSymbols(t *testing.T) {
	e := Entry{Form: ""}
	if got := e.Symbols(); got != nil {
		t.Errorf("Symbols() of empty form = %v, want nil", got)
	}
}
