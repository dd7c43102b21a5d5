package sentience

import (
	"context"
	"fmt"
)

// Agent is a high-level wrapper for running reflection steps against a
// configured pipeline.
type Agent struct {
	pipeline *Pipeline
}

// NewAgent creates an agent over the given pipeline.
func NewAgent(pipeline *Pipeline) *Agent {
	return &Agent{pipeline: pipeline}
}

// Think executes one thinking step of DSL source.
func (a *Agent) Think(ctx context.Context, dsl string) (*Result, error) {
	return a.pipeline.RunStep(ctx, dsl)
}

// ReflectOnInput runs a canned reflection step over free-form input text:
// embed the text as a percept, recall similar long-term tokens, reframe,
// and consolidate.
func (a *Agent) ReflectOnInput(ctx context.Context, input string) (*Result, error) {
	dsl := fmt.Sprintf(`embed %q -> percept.text
reflect {
    recall ltm[similar: %q, k=5]
    reframe "analyze_and_synthesize"
    consolidate
}
`, input, input)

	return a.Think(ctx, dsl)
}

// MemoryStats reports the cortex store counters.
func (a *Agent) MemoryStats(ctx context.Context) (map[string]float64, error) {
	return a.pipeline.MemoryStats(ctx)
}

// Steps returns the number of thinking steps executed so far.
func (a *Agent) Steps() int64 {
	return a.pipeline.Steps()
}
