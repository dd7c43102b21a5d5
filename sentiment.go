package sentience

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/zoobzio/zyn"
)

// SentimentEvaluator derives window Metrics from an LLM sentiment synapse.
// Valence and quality come from the synapse; SMD is computed locally from
// the embedding batch, since dispersion is a property of the vectors rather
// than the text. Each Evaluate call is independent: a fresh zyn session is
// used per call.
type SentimentEvaluator struct {
	provider    Provider
	temperature float32
}

// NewSentimentEvaluator creates an evaluator backed by a zyn sentiment
// synapse. The provider is resolved per call via the usual hierarchy when
// not set explicitly.
func NewSentimentEvaluator() *SentimentEvaluator {
	return &SentimentEvaluator{
		temperature: zyn.DefaultTemperatureDeterministic,
	}
}

// WithProvider sets the provider for this evaluator.
func (e *SentimentEvaluator) WithProvider(p Provider) *SentimentEvaluator {
	e.provider = p
	return e
}

// WithTemperature sets the synapse temperature.
func (e *SentimentEvaluator) WithTemperature(temp float32) *SentimentEvaluator {
	e.temperature = temp
	return e
}

// Evaluate implements Evaluator.
func (e *SentimentEvaluator) Evaluate(ctx context.Context, window []TokenRef, embeddings []Vector) (Metrics, error) {
	provider, err := ResolveProvider(ctx, e.provider)
	if err != nil {
		return Metrics{}, fmt.Errorf("sentiment evaluator: %w", err)
	}

	synapse, err := zyn.NewSentiment("cognitive tone of the recent token window", provider)
	if err != nil {
		return Metrics{}, fmt.Errorf("sentiment evaluator: failed to create synapse: %w", err)
	}

	resp, err := synapse.FireWithInput(ctx, zyn.NewSession(), zyn.SentimentInput{
		Text:        renderWindow(window, len(embeddings)),
		Temperature: e.temperature,
	})
	if err != nil {
		return Metrics{}, fmt.Errorf("sentiment evaluator: synapse execution failed: %w", err)
	}

	return Metrics{
		Valence:    (float32(resp.Scores.Positive) - float32(resp.Scores.Negative) + 1) / 2,
		SMD:        meanDivergence(embeddings),
		Quality:    float32(resp.Confidence),
		NextAction: nextActionFor(resp.Overall),
	}, nil
}

// renderWindow summarizes the STM window for the synapse. TokenRefs carry
// ids and kinds only; content stays in the cortex.
func renderWindow(window []TokenRef, batchSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incoming batch of %d tokens against a window of %d recent tokens.\n", batchSize, len(window))
	for _, ref := range window {
		b.WriteString(string(ref.Kind))
		b.WriteString(" ")
		b.WriteString(ref.ID)
		b.WriteString("\n")
	}
	return b.String()
}

// meanDivergence is the mean Euclidean distance of the batch embeddings
// from their centroid.
func meanDivergence(embeddings []Vector) float32 {
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return 0
	}

	dims := len(embeddings[0])
	centroid := make([]float64, dims)
	for _, vec := range embeddings {
		for i, f := range vec {
			centroid[i] += float64(f)
		}
	}
	for i := range centroid {
		centroid[i] /= float64(len(embeddings))
	}

	var total float64
	for _, vec := range embeddings {
		var dist float64
		for i, f := range vec {
			d := float64(f) - centroid[i]
			dist += d * d
		}
		total += math.Sqrt(dist)
	}
	return float32(total / float64(len(embeddings)))
}

// nextActionFor maps the overall tone onto a reflection action.
func nextActionFor(overall string) string {
	switch strings.ToLower(overall) {
	case "positive":
		return "consolidate"
	case "negative":
		return "reframe"
	case "mixed":
		return "reflect"
	default:
		return "recall"
	}
}

var _ Evaluator = (*SentimentEvaluator)(nil)
