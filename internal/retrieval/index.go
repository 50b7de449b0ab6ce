package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultExamples is the seed corpus of reference ads indexed at
// startup for similarity retrieval.
func DefaultExamples() []string {
	return []string{
		"Shop now for our summer sale! #SummerVibes #Discounts",
		"Boost your career with our professional courses. Enroll today!",
		"Join our community! Discover amazing products now. #ShopSmart",
		"Limited offer: Get 20% off today! Click here to save. #Sale",
	}
}

type document struct {
	text string
	vec  Vector
}

// Index is an in-memory similarity index over a small text corpus.
type Index struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     []document
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds and indexes the given texts.
func (x *Index) Add(ctx context.Context, texts ...string) error {
	for _, text := range texts {
		vec, err := x.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed example: %w", err)
		}
		x.mu.Lock()
		x.docs = append(x.docs, document{text: text, vec: vec})
		x.mu.Unlock()
	}
	return nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Similar returns up to k indexed texts ordered by descending cosine
// similarity to the query. Ties keep insertion order.
func (x *Index) Similar(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}
	qv, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type match struct {
		text string
		sim  float64
	}
	matches := make([]match, 0, len(x.docs))
	for _, doc := range x.docs {
		matches = append(matches, match{text: doc.text, sim: CosineSimilarity(qv, doc.vec)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].sim > matches[j].sim })

	if k > len(matches) {
		k = len(matches)
	}
	out := make([]string, 0, k)
	for _, m := range matches[:k] {
		out = append(out, m.text)
	}
	return out, nil
}
