package sentience

// Result is the complete output of one pipeline step. It is assembled once
// and returned to the caller; the pipeline retains nothing from it beyond
// the embedding memo cache.
type Result struct {
	// TokenID and Embedding describe the step token produced by the
	// upstream executor, when the step originated from DSL source.
	TokenID   string
	Embedding Vector

	// Metrics is the window-level evaluation for this step.
	Metrics Metrics

	// Tokens and Edges are the full canonical batch, before gating.
	Tokens []Token
	Edges  []Edge

	// Accepted and AcceptedEdges are the gate's output.
	Accepted      []Token
	AcceptedEdges []Edge

	// CommittedIDs lists tokens the cortex actually persisted. With partial
	// commit failures this may be a strict subset of Accepted.
	CommittedIDs []string

	// Failures enumerates per-token (and per-relation) commit errors.
	Failures []*CommitError
}

// Committed reports whether the given token id reached the cortex.
func (r *Result) Committed(id string) bool {
	for _, committed := range r.CommittedIDs {
		if committed == id {
			return true
		}
	}
	return false
}
