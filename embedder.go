package sentience

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Embedder generates vector embeddings from canonical token text.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimensions produced by this embedder.
	Dimensions() int
}

// ErrNoEmbedder is returned when no embedder can be resolved.
var ErrNoEmbedder = fmt.Errorf("no embedder configured")

// Global embedder state.
var (
	globalEmbedder   Embedder
	globalEmbedderMu sync.RWMutex
)

// SetEmbedder sets the global embedder instance.
func SetEmbedder(e Embedder) {
	globalEmbedderMu.Lock()
	defer globalEmbedderMu.Unlock()
	globalEmbedder = e
}

// GetEmbedder returns the global embedder instance.
func GetEmbedder() Embedder {
	globalEmbedderMu.RLock()
	defer globalEmbedderMu.RUnlock()
	return globalEmbedder
}

// embedderKey is the context key for embedder.
type embedderKey struct{}

// WithEmbedder returns a context carrying the given embedder.
func WithEmbedder(ctx context.Context, e Embedder) context.Context {
	return context.WithValue(ctx, embedderKey{}, e)
}

// EmbedderFromContext retrieves an embedder from context.
func EmbedderFromContext(ctx context.Context) (Embedder, bool) {
	e, ok := ctx.Value(embedderKey{}).(Embedder)
	return e, ok
}

// ResolveEmbedder finds an embedder using the resolution hierarchy:
// 1. Explicit embedder parameter (if non-nil)
// 2. Context embedder
// 3. Global embedder.
func ResolveEmbedder(ctx context.Context, explicit Embedder) (Embedder, error) {
	if explicit != nil {
		return explicit, nil
	}
	if e, ok := EmbedderFromContext(ctx); ok {
		return e, nil
	}
	if e := GetEmbedder(); e != nil {
		return e, nil
	}
	return nil, ErrNoEmbedder
}

// HashEmbedder derives embeddings from a collision-resistant digest of the
// input text. The same text always yields a bit-identical vector, across
// processes and architectures, which makes caching and replay testing
// reliable. This is a placeholder strategy, not a learned representation:
// the contract is determinism and fixed dimensionality, not semantic
// fidelity.
type HashEmbedder struct {
	dimensions int
	amplitude  float64
}

// HashEmbedderOption configures a HashEmbedder.
type HashEmbedderOption func(*HashEmbedder)

// WithHashDimensions sets the output dimensionality.
func WithHashDimensions(dims int) HashEmbedderOption {
	return func(e *HashEmbedder) {
		e.dimensions = dims
	}
}

// WithAmplitude sets the magnitude bound of each coordinate.
func WithAmplitude(a float64) HashEmbedderOption {
	return func(e *HashEmbedder) {
		e.amplitude = a
	}
}

// NewHashEmbedder creates a deterministic hash-based embedder.
func NewHashEmbedder(opts ...HashEmbedderOption) *HashEmbedder {
	e := &HashEmbedder{
		dimensions: EmbeddingDimensions,
		amplitude:  EmbeddingAmplitude,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed generates an embedding for the given text. The leading 32 bits of
// the sha256 digest seed a periodic expansion over the coordinate index:
// vec[i] = sin(digest * (i+1)) * amplitude. Never fails.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	digest := binary.BigEndian.Uint32(sum[:4])

	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(digest)*float64(i+1)) * e.amplitude)
	}
	return vec, nil
}

// Dimensions returns the vector dimensions for this embedder.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

var _ Embedder = (*HashEmbedder)(nil)

// embedToken derives the embedding for a canonical token.
func embedToken(ctx context.Context, e Embedder, t Token) (Vector, error) {
	vec, err := e.Embed(ctx, t.CanonicalText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed token %s: %w", t.ID, err)
	}
	return Vector(vec), nil
}
