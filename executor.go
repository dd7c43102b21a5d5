package sentience

import "context"

// Executor is the DSL collaborator: it parses and runs reflection-language
// source and hands back the raw tokens and edges of that step. Grammar and
// execution semantics live entirely on the other side of this interface.
type Executor interface {
	// Execute parses and runs one step of DSL source.
	Execute(ctx context.Context, dsl string) (*Execution, error)
}

// Execution is the executor's output for one step: the step token and its
// embedding as derived upstream, plus the raw token/edge batch for the
// pipeline to canonicalize.
type Execution struct {
	TokenID   string
	Embedding Vector
	Tokens    []RawToken
	Edges     []RawEdge
}
