// Package pairtable implements the concurrency-safe pair-count table used by
// the counting pass. Pairs are hashed across independently locked partitions
// so multiple counting workers can aggregate without a global lock.
package pairtable

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/tokenforge/subword-induction-platform/internal/vocab"
)

// Key is the comparable form of an adjacent symbol pair: the two symbols
// joined by the symbol separator.
type Key string

// MakeKey builds the table key for the adjacent symbols (left, right).
func MakeKey(left, right string) Key {
	return Key(left + vocab.SymbolSeparator + right)
}

// Split returns the two symbols of the key. Only valid for keys built by
// MakeKey over single-space-free symbols.
func (k Key) Split() (left, right string) {
	s := string(k)
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// Entry is one aggregated pair count. Tag is an opaque associated value (the
// id of the first entry that produced the pair); it plays no part in
// correctness.
type Entry struct {
	Key   Key
	Count int
	Tag   uint32
}

// partition is one lockable shard of the table. Its chain is kept sorted by
// key so table layout is a pure function of the key set: traversal order, and
// therefore FindMax's tie-break, cannot depend on how concurrent producers
// interleaved their inserts.
type partition struct {
	mu    sync.Mutex
	chain []Entry
}

// Table is a partitioned pair-count map. Create one per induction iteration
// and discard it after selection; counts never carry across iterations.
type Table struct {
	partitions []partition
}

// New creates an empty table with partitionCount independent partitions.
func New(partitionCount int) *Table {
	if partitionCount < 1 {
		partitionCount = 1
	}
	return &Table{
		partitions: make([]partition, partitionCount),
	}
}

// Add increments the count for key by weight, inserting the entry with the
// given tag if the key is new. Safe for concurrent use; updates to keys in
// the same partition are serialised by that partition's lock, which is held
// only for the duration of the single update.
func (t *Table) Add(key Key, weight int, tag uint32) {
	if weight <= 0 {
		return
	}
	p := &t.partitions[t.index(key)]
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.chain), func(i int) bool {
		return p.chain[i].Key >= key
	})
	if i < len(p.chain) && p.chain[i].Key == key {
		p.chain[i].Count += weight
		return
	}
	p.chain = append(p.chain, Entry{})
	copy(p.chain[i+1:], p.chain[i:])
	p.chain[i] = Entry{Key: key, Count: weight, Tag: tag}
}

// FindMax returns the entry with the greatest count, scanning partitions in
// index order and each chain in key order. Ties go to the lexicographically
// smaller key, so the selection depends only on the aggregated counts, never
// on partition layout or worker scheduling. ok is false when the table holds
// no entry with a positive count.
//
// FindMax assumes the counting pass has finished; it takes no locks.
func (t *Table) FindMax() (best Entry, ok bool) {
	for pi := range t.partitions {
		p := &t.partitions[pi]
		for _, e := range p.chain {
			if e.Count <= 0 {
				continue
			}
			if !ok || e.Count > best.Count || (e.Count == best.Count && e.Key < best.Key) {
				best = e
				ok = true
			}
		}
	}
	return best, ok
}

// Len returns the number of distinct pairs in the table.
func (t *Table) Len() int {
	n := 0
	for pi := range t.partitions {
		n += len(t.partitions[pi].chain)
	}
	return n
}

// Counts returns a plain map snapshot of all pair counts, for tests and
// diagnostics.
func (t *Table) Counts() map[Key]int {
	out := make(map[Key]int, t.Len())
	for pi := range t.partitions {
		for _, e := range t.partitions[pi].chain {
			out[e.Key] = e.Count
		}
	}
	return out
}

// index hashes the key to a partition. FNV-1a over the key bytes; any
// well-distributed string hash would do, the choice is a performance detail.
func (t *Table) index(key Key) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(t.partitions)))
}
