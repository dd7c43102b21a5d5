// Package sentiencetest provides test utilities for sentience.
package sentiencetest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nbursa/sentience"
)

// StaticEvaluator implements sentience.Evaluator with a fixed outcome,
// so tests can steer the gate without an LLM provider.
type StaticEvaluator struct {
	Metrics sentience.Metrics
	Err     error
}

// Evaluate returns the configured metrics or error regardless of input.
func (e *StaticEvaluator) Evaluate(_ context.Context, _ []sentience.TokenRef, _ []sentience.Vector) (sentience.Metrics, error) {
	if e.Err != nil {
		return sentience.Metrics{}, e.Err
	}
	return e.Metrics, nil
}

// AcceptingEvaluator returns an evaluator whose quality passes the default
// gate threshold.
func AcceptingEvaluator() *StaticEvaluator {
	return &StaticEvaluator{Metrics: sentience.Metrics{
		Valence:    0.5,
		SMD:        0.2,
		Quality:    0.9,
		NextAction: "consolidate",
	}}
}

// RejectingEvaluator returns an evaluator whose quality fails the default
// gate threshold.
func RejectingEvaluator() *StaticEvaluator {
	return &StaticEvaluator{Metrics: sentience.Metrics{
		Valence:    0.5,
		SMD:        0.8,
		Quality:    0.2,
		NextAction: "reframe",
	}}
}

// ScriptedExecutor implements sentience.Executor by returning a fixed batch
// for any source, recording what it was asked to execute.
type ScriptedExecutor struct {
	Execution *sentience.Execution
	Err       error

	mu      sync.Mutex
	sources []string
}

// NewScriptedExecutor creates an executor that yields the given raw batch.
// Each execution carries a fresh step token id.
func NewScriptedExecutor(tokens []sentience.RawToken, edges []sentience.RawEdge) *ScriptedExecutor {
	return &ScriptedExecutor{
		Execution: &sentience.Execution{
			TokenID: uuid.New().String(),
			Tokens:  tokens,
			Edges:   edges,
		},
	}
}

// Execute implements sentience.Executor.
func (e *ScriptedExecutor) Execute(_ context.Context, dsl string) (*sentience.Execution, error) {
	e.mu.Lock()
	e.sources = append(e.sources, dsl)
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	return e.Execution, nil
}

// Sources returns every DSL source passed to Execute, in order.
func (e *ScriptedExecutor) Sources() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sources...)
}

// Verify the helpers satisfy the package interfaces.
var (
	_ sentience.Evaluator = (*StaticEvaluator)(nil)
	_ sentience.Executor  = (*ScriptedExecutor)(nil)
)

// NewTestPipeline creates a pipeline over a fresh in-memory cortex with an
// accepting evaluator. Additional options override the defaults.
func NewTestPipeline(t *testing.T, opts ...sentience.PipelineOption) (*sentience.Pipeline, *sentience.InMemoryCortex) {
	t.Helper()

	cortex := sentience.NewInMemoryCortex(sentience.DefaultWindowSize)
	base := []sentience.PipelineOption{
		sentience.WithPipelineEvaluator(AcceptingEvaluator()),
	}
	return sentience.NewPipeline(cortex, append(base, opts...)...), cortex
}

// RequireCommitted asserts that the result records the token id as committed.
func RequireCommitted(t *testing.T, result *sentience.Result, id string) {
	t.Helper()
	if !result.Committed(id) {
		t.Fatalf("expected token %q committed, got %v", id, result.CommittedIDs)
	}
}

// RequireNotCommitted asserts that the token id is absent from the result.
func RequireNotCommitted(t *testing.T, result *sentience.Result, id string) {
	t.Helper()
	if result.Committed(id) {
		t.Fatalf("expected token %q not committed, got %v", id, result.CommittedIDs)
	}
}
