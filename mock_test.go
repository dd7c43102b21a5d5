package sentience

import (
	"context"
	"fmt"
	"sync"
)

// stubEvaluator implements Evaluator with a fixed outcome.
type stubEvaluator struct {
	metrics Metrics
	err     error

	mu    sync.Mutex
	calls int
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ []TokenRef, _ []Vector) (Metrics, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return Metrics{}, s.err
	}
	return s.metrics, nil
}

func (s *stubEvaluator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// countingEmbedder wraps HashEmbedder and counts Embed invocations.
type countingEmbedder struct {
	inner Embedder

	mu    sync.Mutex
	calls int
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: NewHashEmbedder()}
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// failingCortex rejects commits for selected token ids and delegates the
// rest to an in-memory cortex.
type failingCortex struct {
	*InMemoryCortex
	failIDs map[string]bool
}

func newFailingCortex(failIDs ...string) *failingCortex {
	ids := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		ids[id] = true
	}
	return &failingCortex{
		InMemoryCortex: NewInMemoryCortex(DefaultWindowSize),
		failIDs:        ids,
	}
}

func (c *failingCortex) Commit(ctx context.Context, token Token, embedding Vector) (string, error) {
	if c.failIDs[token.ID] {
		return "", fmt.Errorf("simulated store rejection")
	}
	return c.InMemoryCortex.Commit(ctx, token, embedding)
}

// stubExecutor returns a fixed execution for any DSL source.
type stubExecutor struct {
	execution *Execution
	err       error

	mu      sync.Mutex
	lastDSL string
}

func (s *stubExecutor) Execute(_ context.Context, dsl string) (*Execution, error) {
	s.mu.Lock()
	s.lastDSL = dsl
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.execution, nil
}

func (s *stubExecutor) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDSL
}

var (
	_ Evaluator = (*stubEvaluator)(nil)
	_ Embedder  = (*countingEmbedder)(nil)
	_ Cortex    = (*failingCortex)(nil)
	_ Executor  = (*stubExecutor)(nil)
)
