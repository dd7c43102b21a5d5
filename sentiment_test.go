package sentience

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSentimentEvaluatorResolution(t *testing.T) {
	t.Run("no provider anywhere returns ErrNoProvider", func(t *testing.T) {
		SetProvider(nil)
		evaluator := NewSentimentEvaluator()

		_, err := evaluator.Evaluate(context.Background(), nil, nil)
		if !errors.Is(err, ErrNoProvider) {
			t.Errorf("expected ErrNoProvider, got %v", err)
		}
	})
}

func TestMeanDivergence(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		if d := meanDivergence(nil); d != 0 {
			t.Errorf("expected 0, got %f", d)
		}
	})

	t.Run("single vector sits on its centroid", func(t *testing.T) {
		if d := meanDivergence([]Vector{{0.3, -0.1}}); d != 0 {
			t.Errorf("expected 0, got %f", d)
		}
	})

	t.Run("identical vectors have zero divergence", func(t *testing.T) {
		v := Vector{0.5, 0.5}
		if d := meanDivergence([]Vector{v, v, v}); d != 0 {
			t.Errorf("expected 0, got %f", d)
		}
	})

	t.Run("symmetric pair", func(t *testing.T) {
		// Centroid of (0,0) and (2,0) is (1,0); both sit at distance 1.
		d := meanDivergence([]Vector{{0, 0}, {2, 0}})
		if math.Abs(float64(d)-1) > 1e-6 {
			t.Errorf("expected divergence 1, got %f", d)
		}
	})
}

func TestNextActionFor(t *testing.T) {
	cases := map[string]string{
		"positive": "consolidate",
		"Positive": "consolidate",
		"negative": "reframe",
		"mixed":    "reflect",
		"neutral":  "recall",
		"":         "recall",
	}
	for overall, want := range cases {
		if got := nextActionFor(overall); got != want {
			t.Errorf("nextActionFor(%q) = %q, want %q", overall, got, want)
		}
	}
}

func TestRenderWindow(t *testing.T) {
	window := []TokenRef{
		{ID: "a", Kind: KindPercept},
		{ID: "b", Kind: KindReflection},
	}

	out := renderWindow(window, 3)
	if !strings.Contains(out, "batch of 3 tokens") {
		t.Errorf("expected batch size in summary:\n%s", out)
	}
	if !strings.Contains(out, "window of 2 recent tokens") {
		t.Errorf("expected window size in summary:\n%s", out)
	}
	if !strings.Contains(out, "percept a") || !strings.Contains(out, "reflection b") {
		t.Errorf("expected window entries:\n%s", out)
	}
}
