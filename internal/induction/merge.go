package induction

import (
	"strings"

	"github.com/tokenforge/subword-induction-platform/internal/vocab"
)

// applyMerge rewrites every store entry, fusing each non-overlapping adjacent
// occurrence of (left, right) into the single symbol left+right, greedily
// left to right. Once a pair is consumed the fused symbol cannot pair with
// the symbol after it in the same pass. Ids, frequencies, and store size are
// untouched; entries without the pair are left as they are.
//
// Returns the number of entries whose form changed.
func applyMerge(store *vocab.Store, left, right string) int {
	rewritten := 0
	size := store.Size()
	for i := 0; i < size; i++ {
		e := store.EntryAt(i)
		symbols := e.Symbols()
		if len(symbols) < 2 {
			continue
		}
		out := make([]string, 0, len(symbols))
		fired := false
		for j := 0; j < len(symbols); {
			if j+1 < len(symbols) && symbols[j] == left && symbols[j+1] == right {
				out = append(out, left+right)
				j += 2
				fired = true
				continue
			}
			out = append(out, symbols[j])
			j++
		}
		if !fired {
			continue
		}
		store.RewriteForm(i, strings.Join(out, vocab.SymbolSeparator))
		rewritten++
	}
	return rewritten
}
