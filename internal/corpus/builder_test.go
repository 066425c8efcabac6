package corpus

import (
	"sync"
	"testing"

	"github.com/tokenforge/subword-induction-platform/internal/segmenter"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
)

func newBuilder(t *testing.T, maxVocab int) *Builder {
	t.Helper()
	seg, err := segmenter.New(config.SegmenterConfig{Mode: "delimiter"})
	if err != nil {
		t.Fatalf("segmenter.New: %v", err)
	}
	return NewBuilder(seg, maxVocab, nil)
}

func TestAddTextAccumulatesFrequencies(t *testing.T) {
	b := newBuilder(t, 0)
	if got := b.AddText("the cat and the hat."); got != 5 {
		t.Errorf("AddText words = %d, want 5", got)
	}

	store := b.Store()
	if got := store.Size(); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}
	e := store.EntryAt(0)
	if e.Form != "the" || e.Freq != 2 {
		t.Errorf("first entry = %+v, want the/2", e)
	}
	if got := b.WordCount(); got != 5 {
		t.Errorf("WordCount() = %d, want 5", got)
	}
}

func TestAddTextCapsVocabulary(t *testing.T) {
	b := newBuilder(t, 2)
	b.AddText("one two three four one")

	store := b.Store()
	if got := store.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
	if got := store.EntryAt(0).Freq; got != 2 {
		t.Errorf("freq(one) = %d, want 2", got)
	}
}

func TestSnapshotIsolatesTraining(t *testing.T) {
	b := newBuilder(t, 0)
	b.AddText("alpha beta")

	snap := b.Snapshot()
	snap.SeedSubwords(0)

	// The live store still holds bare words, so further ingestion keeps
	// incrementing the same entries.
	b.AddText("alpha")
	live := b.Store()
	if got := live.EntryAt(0).Form; got != "alpha" {
		t.Errorf("live form = %q, want %q", got, "alpha")
	}
	if got := live.EntryAt(0).Freq; got != 2 {
		t.Errorf("live freq = %d, want 2", got)
	}
	if got := snap.EntryAt(0).Form; got != "a l p h a" {
		t.Errorf("snapshot form = %q, want %q", got, "a l p h a")
	}
}

func TestAddTextConcurrent(t *testing.T) {
	b := newBuilder(t, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.AddText("shared word")
			}
		}()
	}
	wg.Wait()

	store := b.Store()
	if got := store.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	if got := store.EntryAt(0).Freq; got != 400 {
		t.Errorf("freq = %d, want 400", got)
	}
}
