package sentience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	rawTokens := []RawToken{
		{ID: "t1", Kind: "Percept", Fields: map[string]any{"text": "hello"}},
		{ID: "t2", Kind: "Reflection", Fields: map[string]any{"ops": []any{"consolidate"}}},
	}
	rawEdges := []RawEdge{
		{SourceID: "t1", TargetID: "t2", Kind: "SUPPORTS", Weight: 0.9},
		{SourceID: "t1", TargetID: "missing", Kind: "CAUSES", Weight: 0.5},
	}

	t.Run("high quality batch is accepted and committed", func(t *testing.T) {
		cortex := NewInMemoryCortex(10)
		pipeline := NewPipeline(cortex,
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Valence: 0.6, SMD: 0.2, Quality: 0.9, NextAction: "consolidate"}}),
		)

		result, err := pipeline.Run(ctx, rawTokens, rawEdges, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Tokens) != 2 {
			t.Errorf("expected 2 canonical tokens, got %d", len(result.Tokens))
		}
		if len(result.Accepted) != 2 {
			t.Errorf("expected 2 accepted tokens, got %d", len(result.Accepted))
		}
		if len(result.AcceptedEdges) != 1 {
			t.Errorf("expected 1 accepted edge, got %d", len(result.AcceptedEdges))
		}
		if len(result.CommittedIDs) != 2 {
			t.Errorf("expected 2 committed ids, got %d", len(result.CommittedIDs))
		}
		if !result.Committed("t1") || !result.Committed("t2") {
			t.Errorf("expected both tokens committed, got %v", result.CommittedIDs)
		}

		stats, _ := cortex.Stats(ctx)
		if stats["tokens"] != 2 || stats["edges"] != 1 {
			t.Errorf("unexpected cortex stats %v", stats)
		}
	})

	t.Run("accepted tokens carry full-dimension embeddings", func(t *testing.T) {
		cortex := NewInMemoryCortex(10)
		pipeline := NewPipeline(cortex,
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.9}}),
		)

		if _, err := pipeline.Run(ctx, rawTokens[:1], nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		window, _ := cortex.Window(ctx, 1)
		if len(window) != 1 {
			t.Fatalf("expected 1 window entry, got %d", len(window))
		}
		if len(window[0].Embedding) != 256 {
			t.Errorf("expected 256-dimension embedding, got %d", len(window[0].Embedding))
		}
	})

	t.Run("low quality batch is rejected with its edges", func(t *testing.T) {
		cortex := NewInMemoryCortex(10)
		pipeline := NewPipeline(cortex,
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.3}}),
		)

		result, err := pipeline.Run(ctx, rawTokens, rawEdges, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Accepted) != 0 {
			t.Errorf("expected empty accepted set, got %d", len(result.Accepted))
		}
		if len(result.AcceptedEdges) != 0 {
			t.Errorf("expected no accepted edges, got %d", len(result.AcceptedEdges))
		}
		if len(result.CommittedIDs) != 0 {
			t.Errorf("expected nothing committed, got %v", result.CommittedIDs)
		}
		// Pre-gate lists still report the full batch.
		if len(result.Tokens) != 2 {
			t.Errorf("expected pre-gate tokens retained, got %d", len(result.Tokens))
		}
	})

	t.Run("evaluation failure aborts with no partial result", func(t *testing.T) {
		pipeline := NewPipeline(NewInMemoryCortex(10),
			WithPipelineEvaluator(&stubEvaluator{err: fmt.Errorf("model offline")}),
		)

		result, err := pipeline.Run(ctx, rawTokens, rawEdges, nil)
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}

		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) {
			t.Fatalf("expected EvaluationError, got %v", err)
		}
	})

	t.Run("empty batch uses neutral metrics without evaluator", func(t *testing.T) {
		evaluator := &stubEvaluator{err: fmt.Errorf("must not be called")}
		pipeline := NewPipeline(NewInMemoryCortex(10), WithPipelineEvaluator(evaluator))

		result, err := pipeline.Run(ctx, nil, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if evaluator.callCount() != 0 {
			t.Error("expected evaluator to stay untouched")
		}
		if result.Metrics != NeutralMetrics() {
			t.Errorf("expected neutral metrics, got %+v", result.Metrics)
		}
	})

	t.Run("individual commit failure does not abort the batch", func(t *testing.T) {
		cortex := newFailingCortex("t1")
		pipeline := NewPipeline(cortex,
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.9}}),
		)

		result, err := pipeline.Run(ctx, rawTokens, rawEdges, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Committed("t1") {
			t.Error("expected t1 commit to fail")
		}
		if !result.Committed("t2") {
			t.Error("expected t2 to commit despite t1 failure")
		}
		if len(result.Failures) != 1 || result.Failures[0].TokenID != "t1" {
			t.Errorf("expected one failure for t1, got %+v", result.Failures)
		}
		// The t1->t2 edge cannot be persisted with t1 missing.
		stats, _ := cortex.Stats(ctx)
		if stats["edges"] != 0 {
			t.Errorf("expected no edges persisted, got %f", stats["edges"])
		}
	})

	t.Run("nil cortex fails before any work", func(t *testing.T) {
		pipeline := NewPipeline(nil)
		_, err := pipeline.Run(ctx, rawTokens, nil, nil)
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("expected upstream unavailability, got %v", err)
		}
	})

	t.Run("step counter advances per run", func(t *testing.T) {
		pipeline := NewPipeline(NewInMemoryCortex(10),
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.9}}),
		)

		if _, err := pipeline.Run(ctx, rawTokens, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := pipeline.Run(ctx, nil, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pipeline.Steps() != 2 {
			t.Errorf("expected 2 steps, got %d", pipeline.Steps())
		}
	})

	t.Run("raising threshold never increases acceptance", func(t *testing.T) {
		metrics := Metrics{Quality: 0.65}
		prev := len(rawTokens) + 1
		for _, threshold := range []float32{0.2, 0.6, 0.65, 0.8} {
			pipeline := NewPipeline(NewInMemoryCortex(10),
				WithPipelineEvaluator(&stubEvaluator{metrics: metrics}),
				WithThreshold(threshold),
			)
			result, err := pipeline.Run(ctx, rawTokens, nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Accepted) > prev {
				t.Fatalf("threshold %f grew accepted set", threshold)
			}
			prev = len(result.Accepted)
		}
	})
}

func TestPipelineRunStep(t *testing.T) {
	ctx := context.Background()

	execution := &Execution{
		TokenID:   "step-1",
		Embedding: Vector{0.1, 0.2},
		Tokens:    []RawToken{{ID: "t1", Kind: "Percept", Fields: map[string]any{"text": "hello"}}},
		Edges:     nil,
	}

	t.Run("composes executor and pipeline", func(t *testing.T) {
		executor := &stubExecutor{execution: execution}
		pipeline := NewPipeline(NewInMemoryCortex(10),
			WithExecutor(executor),
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.9}}),
		)

		result, err := pipeline.RunStep(ctx, `embed "hello" -> percept.text`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.TokenID != "step-1" {
			t.Errorf("expected step token id carried over, got %q", result.TokenID)
		}
		if len(result.Embedding) != 2 {
			t.Errorf("expected step embedding carried over, got %v", result.Embedding)
		}
		if !result.Committed("t1") {
			t.Errorf("expected t1 committed, got %v", result.CommittedIDs)
		}
	})

	t.Run("missing executor surfaces upstream unavailability", func(t *testing.T) {
		pipeline := NewPipeline(NewInMemoryCortex(10))
		_, err := pipeline.RunStep(ctx, "noop")
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("expected upstream unavailability, got %v", err)
		}
	})

	t.Run("executor failure surfaces as UpstreamError", func(t *testing.T) {
		executor := &stubExecutor{err: fmt.Errorf("parse error")}
		pipeline := NewPipeline(NewInMemoryCortex(10), WithExecutor(executor))

		_, err := pipeline.RunStep(ctx, "broken {")
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}
		if upstreamErr.Component != "executor" {
			t.Errorf("expected executor component, got %q", upstreamErr.Component)
		}
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Error("expected errors.Is match on ErrUpstreamUnavailable")
		}
	})

	t.Run("window comes from the cortex", func(t *testing.T) {
		cortex := NewInMemoryCortex(10)
		evaluator := &stubEvaluator{metrics: Metrics{Quality: 0.9}}
		pipeline := NewPipeline(cortex,
			WithExecutor(&stubExecutor{execution: execution}),
			WithPipelineEvaluator(evaluator),
			WithWindowSize(3),
		)

		// First step populates the STM; second step evaluates against it.
		if _, err := pipeline.RunStep(ctx, "step one"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second := &Execution{Tokens: []RawToken{{ID: "t2", Kind: "Concept"}}}
		pipeline.executor = &stubExecutor{execution: second}
		if _, err := pipeline.RunStep(ctx, "step two"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if evaluator.callCount() != 2 {
			t.Errorf("expected 2 evaluations, got %d", evaluator.callCount())
		}
	})
}

func TestPipelineMemoryStats(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through to the cortex", func(t *testing.T) {
		cortex := NewInMemoryCortex(10)
		pipeline := NewPipeline(cortex,
			WithPipelineEvaluator(&stubEvaluator{metrics: Metrics{Quality: 0.9}}),
		)

		raw := []RawToken{{ID: "t1", Kind: "Percept"}}
		if _, err := pipeline.Run(ctx, raw, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stats, err := pipeline.MemoryStats(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats["tokens"] != 1 {
			t.Errorf("expected 1 token in stats, got %f", stats["tokens"])
		}
	})

	t.Run("nil cortex errors", func(t *testing.T) {
		pipeline := NewPipeline(nil)
		if _, err := pipeline.MemoryStats(ctx); !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("expected upstream unavailability, got %v", err)
		}
	})
}

func TestPipelineOptions(t *testing.T) {
	t.Run("file options configure gate and embedder", func(t *testing.T) {
		opts := Options{
			QualityThreshold: 0.8,
			WindowSize:       5,
			Dimensions:       128,
			Amplitude:        0.2,
		}
		pipeline := NewPipeline(NewInMemoryCortex(10), WithPipelineOptions(opts))

		if pipeline.Threshold() != 0.8 {
			t.Errorf("expected threshold 0.8, got %f", pipeline.Threshold())
		}
		if pipeline.embedder.Dimensions() != 128 {
			t.Errorf("expected 128 dimensions, got %d", pipeline.embedder.Dimensions())
		}
	})
}
