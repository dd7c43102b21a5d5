package sentience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// stepState flows through the pipeline stages of one run.
type stepState struct {
	window    []TokenRef
	rawTokens []RawToken
	rawEdges  []RawEdge
	result    *Result
}

// Pipeline sequences canonicalization, evaluation, gating, and persistence
// into one synchronous step. It owns the step counter and a token-id keyed
// embedding memo cache; the cache is an optimization only and may be empty
// at any time.
type Pipeline struct {
	cortex    Cortex
	executor  Executor
	embedder  Embedder
	evaluator Evaluator
	gate      *Gate

	windowSize int
	steps      atomic.Int64
	cache      sync.Map // token id -> Vector

	sequence *pipz.Sequence[*stepState]
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithExecutor sets the DSL executor used by RunStep.
func WithExecutor(e Executor) PipelineOption {
	return func(p *Pipeline) {
		p.executor = e
	}
}

// WithPipelineEmbedder sets the embedder, overriding the deterministic
// hash default.
func WithPipelineEmbedder(e Embedder) PipelineOption {
	return func(p *Pipeline) {
		p.embedder = e
	}
}

// WithPipelineEvaluator sets an explicit evaluator. When unset, the
// evaluator is resolved per run from context or the global default.
func WithPipelineEvaluator(e Evaluator) PipelineOption {
	return func(p *Pipeline) {
		p.evaluator = e
	}
}

// WithThreshold sets the gate quality threshold.
func WithThreshold(threshold float32) PipelineOption {
	return func(p *Pipeline) {
		p.gate.Threshold = threshold
	}
}

// WithWindowSize sets how many recent tokens RunStep requests from the
// cortex for evaluation.
func WithWindowSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.windowSize = n
		}
	}
}

// WithPipelineOptions applies a file-loaded Options set.
func WithPipelineOptions(opts Options) PipelineOption {
	return func(p *Pipeline) {
		p.gate.Threshold = opts.QualityThreshold
		if opts.WindowSize > 0 {
			p.windowSize = opts.WindowSize
		}
		p.embedder = NewHashEmbedder(
			WithHashDimensions(opts.Dimensions),
			WithAmplitude(opts.Amplitude),
		)
	}
}

// NewPipeline creates a pipeline committing into the given cortex.
func NewPipeline(cortex Cortex, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cortex:     cortex,
		embedder:   NewHashEmbedder(),
		gate:       NewGate(),
		windowSize: DefaultWindowSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.sequence = pipz.NewSequence(pipz.NewIdentity("sentience-step", ""),
		pipz.Apply(pipz.NewIdentity("canonicalize", ""), p.canonicalizeStage),
		pipz.Apply(pipz.NewIdentity("evaluate", ""), p.evaluateStage),
		pipz.Apply(pipz.NewIdentity("gate", ""), p.gateStage),
		pipz.Apply(pipz.NewIdentity("commit", ""), p.commitStage),
	)

	return p
}

// Threshold returns the gate quality threshold.
func (p *Pipeline) Threshold() float32 {
	return p.gate.Threshold
}

// Steps returns the number of runs executed so far.
func (p *Pipeline) Steps() int64 {
	return p.steps.Load()
}

// Run executes one pipeline step over an already-parsed batch. A failure in
// evaluation aborts the whole run with no partial Result; individual commit
// failures are recorded in the Result and do not abort the rest of the
// batch.
func (p *Pipeline) Run(ctx context.Context, rawTokens []RawToken, rawEdges []RawEdge, window []TokenRef) (*Result, error) {
	if p.cortex == nil {
		return nil, ErrNoCortex
	}

	step := p.steps.Add(1)
	start := time.Now()

	capitan.Emit(ctx, StepStarted,
		FieldStep.Field(int(step)),
		FieldTokenCount.Field(len(rawTokens)),
		FieldEdgeCount.Field(len(rawEdges)),
		FieldWindowSize.Field(len(window)),
	)

	state := &stepState{
		window:    window,
		rawTokens: rawTokens,
		rawEdges:  rawEdges,
		result:    &Result{},
	}

	state, err := p.sequence.Process(ctx, state)
	duration := time.Since(start)

	if err != nil {
		capitan.Error(ctx, StepFailed,
			FieldStep.Field(int(step)),
			FieldStepDuration.Field(duration),
			FieldError.Field(err),
		)
		return nil, err
	}

	capitan.Emit(ctx, StepCompleted,
		FieldStep.Field(int(step)),
		FieldStepDuration.Field(duration),
		FieldAcceptedCount.Field(len(state.result.Accepted)),
		FieldCommittedCount.Field(len(state.result.CommittedIDs)),
		FieldQuality.Field(state.result.Metrics.Quality),
	)

	return state.result, nil
}

// RunStep parses and executes DSL source through the configured executor,
// then runs the resulting batch against the cortex STM window.
func (p *Pipeline) RunStep(ctx context.Context, dsl string) (*Result, error) {
	if p.executor == nil {
		return nil, ErrNoExecutor
	}
	if p.cortex == nil {
		return nil, ErrNoCortex
	}

	execution, err := p.executor.Execute(ctx, dsl)
	if err != nil {
		return nil, &UpstreamError{Component: "executor", Err: err}
	}

	window, err := p.cortex.Window(ctx, p.windowSize)
	if err != nil {
		return nil, &UpstreamError{Component: "cortex", Err: err}
	}

	result, err := p.Run(ctx, execution.Tokens, execution.Edges, window)
	if err != nil {
		return nil, err
	}

	result.TokenID = execution.TokenID
	result.Embedding = execution.Embedding
	return result, nil
}

// MemoryStats passes through to the cortex.
func (p *Pipeline) MemoryStats(ctx context.Context) (map[string]float64, error) {
	if p.cortex == nil {
		return nil, ErrNoCortex
	}
	return p.cortex.Stats(ctx)
}

// canonicalizeStage converts the raw batch into canonical tokens and edges.
// Unconvertible edges (missing endpoint ids) are dropped here; kind
// fallbacks never fail the batch.
func (p *Pipeline) canonicalizeStage(ctx context.Context, s *stepState) (*stepState, error) {
	s.result.Tokens = make([]Token, 0, len(s.rawTokens))
	for _, raw := range s.rawTokens {
		s.result.Tokens = append(s.result.Tokens, CanonicalizeToken(ctx, raw))
	}

	s.result.Edges = make([]Edge, 0, len(s.rawEdges))
	for _, raw := range s.rawEdges {
		if edge, ok := CanonicalizeEdge(ctx, raw); ok {
			s.result.Edges = append(s.result.Edges, edge)
		}
	}

	return s, nil
}

// evaluateStage scores the canonical batch against the supplied window.
func (p *Pipeline) evaluateStage(ctx context.Context, s *stepState) (*stepState, error) {
	if len(s.result.Tokens) == 0 {
		s.result.Metrics = NeutralMetrics()
		return s, nil
	}

	evaluator, err := ResolveEvaluator(ctx, p.evaluator)
	if err != nil {
		return s, &EvaluationError{Err: err}
	}

	embedder, err := ResolveEmbedder(ctx, p.embedder)
	if err != nil {
		return s, &EvaluationError{Err: err}
	}

	metrics, err := evaluateBatch(ctx, evaluator, embedder, &p.cache, s.window, s.result.Tokens)
	if err != nil {
		return s, err
	}

	s.result.Metrics = metrics
	return s, nil
}

// gateStage applies the quality policy.
func (p *Pipeline) gateStage(ctx context.Context, s *stepState) (*stepState, error) {
	s.result.Accepted, s.result.AcceptedEdges = p.gate.Apply(ctx, s.result.Tokens, s.result.Edges, s.result.Metrics)
	return s, nil
}

// commitStage persists accepted tokens and edges with partial-success
// semantics: a failed token commit is recorded and the remaining tokens
// still commit. Relations are only attempted when both endpoints committed.
func (p *Pipeline) commitStage(ctx context.Context, s *stepState) (*stepState, error) {
	embedder, err := ResolveEmbedder(ctx, p.embedder)
	if err != nil {
		return s, &EvaluationError{Err: err}
	}

	committed := make(map[string]struct{}, len(s.result.Accepted))
	for _, token := range s.result.Accepted {
		embedding, embErr := p.embeddingFor(ctx, embedder, token)
		if embErr != nil {
			s.recordFailure(ctx, &CommitError{TokenID: token.ID, Err: embErr})
			continue
		}

		id, commitErr := p.cortex.Commit(ctx, token, embedding)
		if commitErr != nil {
			s.recordFailure(ctx, &CommitError{TokenID: token.ID, Err: commitErr})
			continue
		}

		committed[id] = struct{}{}
		s.result.CommittedIDs = append(s.result.CommittedIDs, id)
		capitan.Emit(ctx, TokenCommitted,
			FieldTokenID.Field(id),
			FieldTokenKind.Field(string(token.Kind)),
		)
	}

	for _, edge := range s.result.AcceptedEdges {
		if _, ok := committed[edge.SourceID]; !ok {
			continue
		}
		if _, ok := committed[edge.TargetID]; !ok {
			continue
		}
		if relErr := p.cortex.AddRelation(ctx, edge); relErr != nil {
			s.recordFailure(ctx, &CommitError{
				TokenID: edge.SourceID + "->" + edge.TargetID,
				Err:     relErr,
			})
		}
	}

	return s, nil
}

// embeddingFor returns the memoized embedding for a token, deriving and
// caching it when absent.
func (p *Pipeline) embeddingFor(ctx context.Context, embedder Embedder, token Token) (Vector, error) {
	if cached, ok := p.cache.Load(token.ID); ok {
		if vec, ok := cached.(Vector); ok {
			return vec, nil
		}
	}

	vec, err := embedToken(ctx, embedder, token)
	if err != nil {
		return nil, err
	}
	p.cache.Store(token.ID, vec)
	return vec, nil
}

// recordFailure appends a commit failure and reports it.
func (s *stepState) recordFailure(ctx context.Context, failure *CommitError) {
	s.result.Failures = append(s.result.Failures, failure)
	capitan.Error(ctx, CommitFailed,
		FieldTokenID.Field(failure.TokenID),
		FieldError.Field(failure.Err),
	)
}
