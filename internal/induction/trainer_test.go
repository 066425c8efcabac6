package induction

import (
	"context"
	"reflect"
	"testing"

	"github.com/tokenforge/subword-induction-platform/internal/pairtable"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
)

func trainerCfg(maxMerges, workers int) config.TrainerConfig {
	return config.TrainerConfig{
		MaxMerges:      maxMerges,
		PartitionCount: 128,
		WorkerCount:    workers,
	}
}

type wordCount struct {
	word string
	n    int
}

// buildStore upserts each word the given number of times and seeds subwords.
func buildStore(t *testing.T, counts []wordCount) *vocab.Store {
	t.Helper()
	s := vocab.NewStore(0)
	for _, wc := range counts {
		for i := 0; i < wc.n; i++ {
			if err := s.Upsert(wc.word); err != nil {
				t.Fatalf("Upsert(%q): %v", wc.word, err)
			}
		}
	}
	s.SeedSubwords(0)
	return s
}

func referenceCorpus(t *testing.T) *vocab.Store {
	return buildStore(t, []wordCount{
		{"low", 5},
		{"lower", 2},
		{"newest", 6},
		{"widest", 3},
	})
}

func TestTrainReferenceScenario(t *testing.T) {
	store := referenceCorpus(t)

	result, err := New(trainerCfg(1, 1), nil).Train(context.Background(), store)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	wantMerges := []Merge{{Iteration: 0, Left: "e", Right: "s", Count: 9}}
	if !reflect.DeepEqual(result.Merges, wantMerges) {
		t.Errorf("Merges = %+v, want %+v", result.Merges, wantMerges)
	}

	wantForms := []string{"l o w", "l o w e r", "n e w es t", "w i d es t"}
	wantFreqs := []int{5, 2, 6, 3}
	if store.Size() != len(wantForms) {
		t.Fatalf("Size() = %d, want %d", store.Size(), len(wantForms))
	}
	for i, form := range wantForms {
		e := store.EntryAt(i)
		if e.Form != form {
			t.Errorf("entry %d form = %q, want %q", i, e.Form, form)
		}
		if e.Freq != wantFreqs[i] {
			t.Errorf("entry %d freq = %d, want %d", i, e.Freq, wantFreqs[i])
		}
		if e.ID != uint32(i) {
			t.Errorf("entry %d id = %d, want %d", i, e.ID, i)
		}
	}
}

func TestCountingIsIdempotent(t *testing.T) {
	store := referenceCorpus(t)

	first := pairtable.New(64)
	second := pairtable.New(64)
	if err := countPairs(context.Background(), store, first, 1); err != nil {
		t.Fatalf("countPairs: %v", err)
	}
	if err := countPairs(context.Background(), store, second, 4); err != nil {
		t.Fatalf("countPairs: %v", err)
	}

	if !reflect.DeepEqual(first.Counts(), second.Counts()) {
		t.Errorf("repeated counting passes disagree:\n%v\n%v",
			first.Counts(), second.Counts())
	}

	// Spot-check the weighted aggregates.
	counts := first.Counts()
	if got := counts[pairtable.MakeKey("e", "s")]; got != 9 {
		t.Errorf("count(e,s) = %d, want 9", got)
	}
	if got := counts[pairtable.MakeKey("l", "o")]; got != 7 {
		t.Errorf("count(l,o) = %d, want 7", got)
	}
}

func TestMergeConservation(t *testing.T) {
	store := referenceCorpus(t)
	sizeBefore := store.Size()
	symbolsBefore := store.SymbolTotal()
	entriesBefore := store.Entries()

	rewritten := applyMerge(store, "e", "s")

	if rewritten != 2 {
		t.Errorf("rewritten = %d, want 2", rewritten)
	}
	if store.Size() != sizeBefore {
		t.Errorf("Size changed: %d -> %d", sizeBefore, store.Size())
	}
	// One fusion per firing entry, each removing exactly one symbol.
	if got := store.SymbolTotal(); got != symbolsBefore-rewritten {
		t.Errorf("SymbolTotal = %d, want %d", got, symbolsBefore-rewritten)
	}
	for i, before := range entriesBefore {
		after := store.EntryAt(i)
		if after.ID != before.ID || after.Freq != before.Freq {
			t.Errorf("entry %d id/freq changed: %+v -> %+v", i, before, after)
		}
	}

	// Re-applying a merge whose pair no longer occurs is a no-op.
	forms := make([]string, store.Size())
	for i := range forms {
		forms[i] = store.EntryAt(i).Form
	}
	if again := applyMerge(store, "e", "s"); again != 0 {
		t.Errorf("second applyMerge rewrote %d entries, want 0", again)
	}
	for i, form := range forms {
		if got := store.EntryAt(i).Form; got != form {
			t.Errorf("entry %d changed on no-op merge: %q -> %q", i, form, got)
		}
	}
}

func TestMergeNonOverlapping(t *testing.T) {
	store := vocab.NewStore(0)
	if err := store.Upsert("abab"); err != nil {
		t.Fatal(err)
	}
	store.RewriteForm(0, "a b a b")

	applyMerge(store, "a", "b")
	if got := store.EntryAt(0).Form; got != "ab ab" {
		t.Errorf("merged form = %q, want %q", got, "ab ab")
	}
}

func TestMergeSkipsShortAndEmptyForms(t *testing.T) {
	store := vocab.NewStore(0)
	store.Upsert("x")
	store.Upsert("placeholder")
	store.RewriteForm(1, "")

	if rewritten := applyMerge(store, "a", "b"); rewritten != 0 {
		t.Errorf("rewritten = %d, want 0", rewritten)
	}
}

func TestTrainStopsWhenUnproductive(t *testing.T) {
	// Every pair occurs exactly once, so no merge reaches the threshold.
	store := buildStore(t, []wordCount{
		{"ab", 1},
		{"cd", 1},
	})

	result, err := New(trainerCfg(50, 1), nil).Train(context.Background(), store)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Merges) != 0 {
		t.Errorf("Merges = %+v, want none", result.Merges)
	}
}

func TestTrainRespectsMaxMerges(t *testing.T) {
	store := referenceCorpus(t)
	result, err := New(trainerCfg(3, 1), nil).Train(context.Background(), store)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Merges) != 3 {
		t.Errorf("merges = %d, want 3", len(result.Merges))
	}
	for i, m := range result.Merges {
		if m.Iteration != i {
			t.Errorf("merge %d iteration = %d", i, m.Iteration)
		}
		if m.Count < 2 {
			t.Errorf("merge %d count = %d, below threshold", i, m.Count)
		}
	}
}

func TestTrainEmptyStore(t *testing.T) {
	store := vocab.NewStore(0)
	result, err := New(trainerCfg(50, 1), nil).Train(context.Background(), store)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Merges) != 0 || result.VocabSize != 0 {
		t.Errorf("result = %+v, want zero merges and empty vocab", result)
	}
}

func TestTrainZeroBudget(t *testing.T) {
	store := referenceCorpus(t)
	result, err := New(trainerCfg(0, 1), nil).Train(context.Background(), store)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Merges) != 0 {
		t.Errorf("merges = %d, want 0", len(result.Merges))
	}
	if got := store.EntryAt(0).Form; got != "l o w" {
		t.Errorf("store mutated with zero budget: %q", got)
	}
}

func TestTrainDeterministicAcrossWorkerCounts(t *testing.T) {
	type outcome struct {
		forms  []string
		merges []Merge
	}
	run := func(workers int) outcome {
		store := referenceCorpus(t)
		result, err := New(trainerCfg(20, workers), nil).Train(context.Background(), store)
		if err != nil {
			t.Fatalf("Train(workers=%d): %v", workers, err)
		}
		forms := make([]string, store.Size())
		for i := range forms {
			forms[i] = store.EntryAt(i).Form
		}
		return outcome{forms: forms, merges: result.Merges}
	}

	base := run(1)
	for _, workers := range []int{2, 4, 8} {
		for rep := 0; rep < 5; rep++ {
			got := run(workers)
			if !reflect.DeepEqual(got, base) {
				t.Fatalf("workers=%d rep=%d diverged:\n got %+v\nwant %+v",
					workers, rep, got, base)
			}
		}
	}
}

func TestTrainCancelledContext(t *testing.T) {
	store := referenceCorpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(trainerCfg(50, 1), nil).Train(ctx, store); err == nil {
		t.Error("Train with cancelled context returned nil error")
	}
}
