package sentience

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Gate applies the alignment policy that decides which tokens reach the
// cortex. Quality is evaluated at the window level, so within one step the
// whole batch shares a single accept/reject outcome. Each Apply call is
// independent; the gate holds no state across steps.
type Gate struct {
	// Threshold is the minimum window quality for acceptance.
	Threshold float32
}

// NewGate creates a gate with the default quality threshold.
func NewGate() *Gate {
	return &Gate{Threshold: DefaultQualityThreshold}
}

// Apply filters tokens and edges by the window quality. Every token is
// accepted iff metrics.Quality >= Threshold. An edge survives only when
// both endpoints are in the accepted set; edges referencing rejected or
// unknown token ids are dropped without error. Rejected tokens are reported
// via TokenBlocked signals but are not retried or queued — the caller may
// resubmit.
func (g *Gate) Apply(ctx context.Context, tokens []Token, edges []Edge, metrics Metrics) ([]Token, []Edge) {
	accepted := make([]Token, 0, len(tokens))
	acceptedIDs := make(map[string]struct{}, len(tokens))

	for _, token := range tokens {
		if metrics.Quality >= g.Threshold {
			accepted = append(accepted, token)
			acceptedIDs[token.ID] = struct{}{}
			continue
		}
		capitan.Emit(ctx, TokenBlocked,
			FieldTokenID.Field(token.ID),
			FieldTokenKind.Field(string(token.Kind)),
			FieldQuality.Field(metrics.Quality),
			FieldThreshold.Field(g.Threshold),
		)
	}

	acceptedEdges := make([]Edge, 0, len(edges))
	for _, edge := range edges {
		if _, ok := acceptedIDs[edge.SourceID]; !ok {
			continue
		}
		if _, ok := acceptedIDs[edge.TargetID]; !ok {
			continue
		}
		acceptedEdges = append(acceptedEdges, edge)
	}

	capitan.Emit(ctx, BatchGated,
		FieldTokenCount.Field(len(tokens)),
		FieldAcceptedCount.Field(len(accepted)),
		FieldEdgeCount.Field(len(edges)),
		FieldAcceptedEdges.Field(len(acceptedEdges)),
		FieldQuality.Field(metrics.Quality),
		FieldThreshold.Field(g.Threshold),
	)

	return accepted, acceptedEdges
}
