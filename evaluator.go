package sentience

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/capitan"
)

// Evaluator scores a token window. Implementations wrap the statistical
// quality-evaluation model; this package treats them as a black box with
// exactly one success or failure outcome per call.
type Evaluator interface {
	// Evaluate scores the given short-term-memory window against the
	// embedding batch of the current token set.
	Evaluate(ctx context.Context, window []TokenRef, embeddings []Vector) (Metrics, error)
}

// ErrNoEvaluator is returned when no evaluator can be resolved.
var ErrNoEvaluator = fmt.Errorf("no evaluator configured")

// Global evaluator state.
var (
	globalEvaluator   Evaluator
	globalEvaluatorMu sync.RWMutex
)

// SetEvaluator sets the global evaluator instance.
func SetEvaluator(e Evaluator) {
	globalEvaluatorMu.Lock()
	defer globalEvaluatorMu.Unlock()
	globalEvaluator = e
}

// GetEvaluator returns the global evaluator instance.
func GetEvaluator() Evaluator {
	globalEvaluatorMu.RLock()
	defer globalEvaluatorMu.RUnlock()
	return globalEvaluator
}

// evaluatorKey is the context key for evaluator.
type evaluatorKey struct{}

// WithEvaluator returns a context carrying the given evaluator.
func WithEvaluator(ctx context.Context, e Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorKey{}, e)
}

// EvaluatorFromContext retrieves an evaluator from context.
func EvaluatorFromContext(ctx context.Context) (Evaluator, bool) {
	e, ok := ctx.Value(evaluatorKey{}).(Evaluator)
	return e, ok
}

// ResolveEvaluator finds an evaluator using the resolution hierarchy:
// 1. Explicit evaluator parameter (if non-nil)
// 2. Context evaluator
// 3. Global evaluator.
func ResolveEvaluator(ctx context.Context, explicit Evaluator) (Evaluator, error) {
	if explicit != nil {
		return explicit, nil
	}
	if e, ok := EvaluatorFromContext(ctx); ok {
		return e, nil
	}
	if e := GetEvaluator(); e != nil {
		return e, nil
	}
	return nil, ErrNoEvaluator
}

// evaluateBatch packages a token batch for the evaluator: one embedding per
// token (memoized by token id in cache, when provided), then a single
// window-level evaluation call. An empty batch short-circuits to the neutral
// default without touching the evaluator.
func evaluateBatch(ctx context.Context, evaluator Evaluator, embedder Embedder, cache *sync.Map, window []TokenRef, tokens []Token) (Metrics, error) {
	if len(tokens) == 0 {
		return NeutralMetrics(), nil
	}

	embeddings := make([]Vector, len(tokens))
	for i, token := range tokens {
		if cache != nil {
			if cached, ok := cache.Load(token.ID); ok {
				if vec, ok := cached.(Vector); ok {
					embeddings[i] = vec
					continue
				}
			}
		}

		vec, err := embedToken(ctx, embedder, token)
		if err != nil {
			return Metrics{}, &EvaluationError{Err: err}
		}
		embeddings[i] = vec
		if cache != nil {
			cache.Store(token.ID, vec)
		}
	}

	metrics, err := evaluator.Evaluate(ctx, window, embeddings)
	if err != nil {
		return Metrics{}, &EvaluationError{Err: err}
	}

	capitan.Emit(ctx, WindowEvaluated,
		FieldTokenCount.Field(len(tokens)),
		FieldWindowSize.Field(len(window)),
		FieldQuality.Field(metrics.Quality),
		FieldValence.Field(metrics.Valence),
		FieldNextAction.Field(metrics.NextAction),
	)

	return metrics, nil
}
