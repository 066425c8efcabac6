// Package benchmark contains Go benchmarks for the pair table, the counting
// pass, and the full induction loop, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/tokenforge/subword-induction-platform/internal/induction"
	"github.com/tokenforge/subword-induction-platform/internal/pairtable"
	"github.com/tokenforge/subword-induction-platform/internal/vocab"
	"github.com/tokenforge/subword-induction-platform/pkg/config"
)

// syntheticStore builds a seeded vocabulary of n pseudo-words with a skewed
// frequency distribution, deterministic across runs.
func syntheticStore(n int) *vocab.Store {
	rng := rand.New(rand.NewSource(42))
	letters := []rune("abcdefghijklmnopqrstuvwxyz")
	store := vocab.NewStore(0)
	for i := 0; i < n; i++ {
		length := 3 + rng.Intn(8)
		word := make([]rune, length)
		for j := range word {
			word[j] = letters[rng.Intn(len(letters))]
		}
		freq := 1 + rng.Intn(20)
		for k := 0; k < freq; k++ {
			store.Upsert(string(word))
		}
	}
	store.SeedSubwords(0)
	return store
}

func BenchmarkPairTableAdd(b *testing.B) {
	keys := make([]pairtable.Key, 256)
	for i := range keys {
		keys[i] = pairtable.MakeKey(fmt.Sprintf("s%d", i), fmt.Sprintf("t%d", i))
	}
	tbl := pairtable.New(1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Add(keys[i%len(keys)], 1, 0)
	}
}

func BenchmarkPairTableAddParallel(b *testing.B) {
	keys := make([]pairtable.Key, 256)
	for i := range keys {
		keys[i] = pairtable.MakeKey(fmt.Sprintf("s%d", i), fmt.Sprintf("t%d", i))
	}
	tbl := pairtable.New(1024)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			tbl.Add(keys[i%len(keys)], 1, 0)
			i++
		}
	})
}

func BenchmarkTrain(b *testing.B) {
	for _, size := range []int{100, 1000, 5000} {
		b.Run(fmt.Sprintf("vocab_%d", size), func(b *testing.B) {
			cfg := config.TrainerConfig{
				MaxMerges:      20,
				PartitionCount: 4096,
				WorkerCount:    1,
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store := syntheticStore(size)
				b.StartTimer()
				if _, err := induction.New(cfg, nil).Train(context.Background(), store); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkTrainWorkers(b *testing.B) {
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			cfg := config.TrainerConfig{
				MaxMerges:      10,
				PartitionCount: 4096,
				WorkerCount:    workers,
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store := syntheticStore(2000)
				b.StartTimer()
				if _, err := induction.New(cfg, nil).Train(context.Background(), store); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
