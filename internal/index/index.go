// Package index holds the in-memory nearest-neighbor structure over stored
// answer vectors. It is a rebuildable cache over the backing store, never a
// source of truth: after a restart (or any bulk mutation) Rebuild restores it
// from the persisted entries.
//
// At the target corpus size (hundreds to low thousands of entries) an exact
// brute-force cosine scan beats approximate indexing on both correctness and
// simplicity. Implementations of a graph-based index can replace this one
// behind the same method set.
package index

import (
	"math"
	"sort"
	"sync"
)

// Match is a scored entry returned by Search, ordered strictly descending by
// score. Equal scores preserve insertion order, so results are reproducible.
type Match struct {
	ID    string
	Score float64
}

type vectorEntry struct {
	vector []float32
	seq    uint64
}

// CosineIndex is an exact cosine-similarity index. Search and Snapshot take a
// read lock; Add, Remove and Rebuild take the write lock, so a rebuild is
// exclusive with respect to every other operation.
type CosineIndex struct {
	mu      sync.RWMutex
	entries map[string]vectorEntry
	nextSeq uint64
}

func NewCosineIndex() *CosineIndex {
	return &CosineIndex{
		entries: make(map[string]vectorEntry),
	}
}

// Add inserts the vector for id, or replaces it. A replaced entry keeps its
// original insertion order so repeated upserts do not shuffle tie-breaks.
func (idx *CosineIndex) Add(id string, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seq := idx.nextSeq
	if prev, ok := idx.entries[id]; ok {
		seq = prev.seq
	} else {
		idx.nextSeq++
	}
	idx.entries[id] = vectorEntry{vector: vector, seq: seq}
}

// Remove deletes the vector for id. Removing an absent id is a no-op.
func (idx *CosineIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, id)
}

// Rebuild discards the current contents and reconstructs the index from the
// full (id, vector) set, re-numbering insertion order by the given slice
// order. Used at startup and after bulk deletions to restore consistency with
// the backing store.
func (idx *CosineIndex) Rebuild(ids []string, vectors [][]float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = make(map[string]vectorEntry, len(ids))
	idx.nextSeq = 0
	for i, id := range ids {
		idx.entries[id] = vectorEntry{vector: vectors[i], seq: idx.nextSeq}
		idx.nextSeq++
	}
}

// Search returns up to k nearest entries by cosine similarity, strictly
// descending by score, ties broken by ascending insertion order.
func (idx *CosineIndex) Search(query []float32, k int) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.entries) == 0 {
		return nil
	}

	type scored struct {
		Match
		seq uint64
	}

	results := make([]scored, 0, len(idx.entries))
	for id, e := range idx.entries {
		results = append(results, scored{
			Match: Match{ID: id, Score: cosineSimilarity(query, e.vector)},
			seq:   e.seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > k {
		results = results[:k]
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = r.Match
	}
	return matches
}

// Len reports the number of indexed vectors.
func (idx *CosineIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// IDs returns the currently indexed ids in no particular order.
func (idx *CosineIndex) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	return ids
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
