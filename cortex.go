package sentience

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Cortex defines the interface to the persistent associative memory.
// Implementations own indexing, similarity search, and eviction; this
// package only commits accepted tokens and reads the recent-token window.
// A Commit that returns an id must be visible to subsequent Recall calls
// within the same session.
type Cortex interface {
	// Commit persists a token with its embedding and returns the stored id.
	Commit(ctx context.Context, token Token, embedding Vector) (string, error)

	// AddRelation persists an edge between two committed tokens.
	AddRelation(ctx context.Context, edge Edge) error

	// Recall returns up to k tokens most similar to the query embedding.
	Recall(ctx context.Context, query Vector, k int) ([]Token, error)

	// Window returns the n most recently committed token refs, oldest first.
	Window(ctx context.Context, n int) ([]TokenRef, error)

	// Stats reports store-level counters (token count, edge count, ...).
	Stats(ctx context.Context) (map[string]float64, error)
}

// InMemoryCortex is a map-backed Cortex with a bounded short-term-memory
// ring. It provides exact cosine recall over everything it holds and is the
// store the pipeline is wired to in tests and demos.
type InMemoryCortex struct {
	mu      sync.RWMutex
	tokens  map[string]Token
	vectors map[string]Vector
	edges   []Edge
	stm     []string
	stmSize int
}

// NewInMemoryCortex creates an in-memory cortex whose STM ring holds at
// most stmSize token ids.
func NewInMemoryCortex(stmSize int) *InMemoryCortex {
	if stmSize <= 0 {
		stmSize = DefaultWindowSize
	}
	return &InMemoryCortex{
		tokens:  make(map[string]Token),
		vectors: make(map[string]Vector),
		stmSize: stmSize,
	}
}

// Commit stores the token and embedding and pushes the id onto the STM ring.
func (c *InMemoryCortex) Commit(_ context.Context, token Token, embedding Vector) (string, error) {
	if token.ID == "" {
		return "", fmt.Errorf("cannot commit token without id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[token.ID] = token
	c.vectors[token.ID] = embedding

	c.stm = append(c.stm, token.ID)
	if len(c.stm) > c.stmSize {
		c.stm = c.stm[len(c.stm)-c.stmSize:]
	}

	return token.ID, nil
}

// AddRelation stores an edge. Both endpoints must already be committed.
func (c *InMemoryCortex) AddRelation(_ context.Context, edge Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tokens[edge.SourceID]; !ok {
		return fmt.Errorf("relation source not committed: %s", edge.SourceID)
	}
	if _, ok := c.tokens[edge.TargetID]; !ok {
		return fmt.Errorf("relation target not committed: %s", edge.TargetID)
	}

	c.edges = append(c.edges, edge)
	return nil
}

// Recall returns the k committed tokens most similar to the query.
func (c *InMemoryCortex) Recall(_ context.Context, query Vector, k int) ([]Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		id    string
		score float32
	}

	candidates := make([]scored, 0, len(c.vectors))
	for id, vec := range c.vectors {
		candidates = append(candidates, scored{id: id, score: query.Cosine(vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	result := make([]Token, 0, k)
	for _, cand := range candidates[:k] {
		result = append(result, c.tokens[cand.id])
	}
	return result, nil
}

// Window returns the most recent token refs, oldest first.
func (c *InMemoryCortex) Window(_ context.Context, n int) ([]TokenRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.stm
	if n > 0 && n < len(ids) {
		ids = ids[len(ids)-n:]
	}

	refs := make([]TokenRef, 0, len(ids))
	for _, id := range ids {
		token, ok := c.tokens[id]
		if !ok {
			continue
		}
		refs = append(refs, TokenRef{
			ID:        id,
			Kind:      token.Kind,
			Embedding: c.vectors[id],
		})
	}
	return refs, nil
}

// Stats reports token, edge, and STM counts.
func (c *InMemoryCortex) Stats(_ context.Context) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]float64{
		"tokens":     float64(len(c.tokens)),
		"edges":      float64(len(c.edges)),
		"stm_window": float64(len(c.stm)),
	}, nil
}

var _ Cortex = (*InMemoryCortex)(nil)
