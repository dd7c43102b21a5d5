package sentiencetest

import (
	"context"
	"testing"

	"github.com/nbursa/sentience"
)

func TestStaticEvaluator(t *testing.T) {
	ctx := context.Background()

	t.Run("accepting evaluator passes the default gate", func(t *testing.T) {
		metrics, err := AcceptingEvaluator().Evaluate(ctx, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if metrics.Quality < sentience.DefaultQualityThreshold {
			t.Errorf("expected passing quality, got %f", metrics.Quality)
		}
	})

	t.Run("rejecting evaluator fails the default gate", func(t *testing.T) {
		metrics, err := RejectingEvaluator().Evaluate(ctx, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if metrics.Quality >= sentience.DefaultQualityThreshold {
			t.Errorf("expected failing quality, got %f", metrics.Quality)
		}
	})
}

func TestScriptedExecutor(t *testing.T) {
	ctx := context.Background()

	tokens := []sentience.RawToken{{ID: "t1", Kind: "Percept"}}
	executor := NewScriptedExecutor(tokens, nil)

	execution, err := executor.Execute(ctx, "first step")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if execution.TokenID == "" {
		t.Error("expected execution to carry a step token id")
	}
	if len(execution.Tokens) != 1 {
		t.Errorf("expected scripted batch, got %d tokens", len(execution.Tokens))
	}

	if _, err := executor.Execute(ctx, "second step"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sources := executor.Sources()
	if len(sources) != 2 || sources[0] != "first step" || sources[1] != "second step" {
		t.Errorf("unexpected recorded sources %v", sources)
	}
}

func TestNewTestPipeline(t *testing.T) {
	ctx := context.Background()

	pipeline, cortex := NewTestPipeline(t)

	raw := []sentience.RawToken{{ID: "t1", Kind: "Percept", Fields: map[string]any{"text": "hello"}}}
	result, err := pipeline.Run(ctx, raw, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	RequireCommitted(t, result, "t1")
	RequireNotCommitted(t, result, "ghost")

	stats, err := cortex.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats["tokens"] != 1 {
		t.Errorf("expected 1 token in cortex, got %f", stats["tokens"])
	}
}

func TestNewTestPipelineOverrides(t *testing.T) {
	ctx := context.Background()

	pipeline, _ := NewTestPipeline(t,
		sentience.WithPipelineEvaluator(RejectingEvaluator()),
	)

	raw := []sentience.RawToken{{ID: "t1", Kind: "Percept"}}
	result, err := pipeline.Run(ctx, raw, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	RequireNotCommitted(t, result, "t1")
}
