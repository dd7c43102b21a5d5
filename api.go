// Package sentience converts raw cognitive tokens into a canonical graph
// representation, scores them for quality, and commits the accepted subset
// into a persistent associative memory.
//
// # Pipeline
//
// One step runs as a synchronous sequence:
//
//	RawToken/RawEdge -> canonicalize -> evaluate -> gate -> commit
//
// [CanonicalizeToken] and [CanonicalizeEdge] normalize executor output onto
// the closed [TokenKind] and [EdgeKind] enumerations through explicit
// mapping tables; unknown kinds degrade to defaults rather than failing the
// batch. [HashEmbedder] derives deterministic fixed-dimension embeddings
// from canonical token text. The window-level [Evaluator] produces
// [Metrics], and [Gate] accepts or rejects the whole batch against a
// quality threshold before [Pipeline] persists the survivors into a
// [Cortex].
//
// # Collaborators
//
// External capabilities are consumed through interfaces:
//
//   - [Executor] - parses and runs reflection-language source
//   - [Cortex] - the persistent associative memory ([InMemoryCortex] for
//     tests and demos, [SoyCortex] for Postgres with pgvector)
//   - [Evaluator] - the statistical quality model ([SentimentEvaluator]
//     derives metrics from a zyn sentiment synapse)
//   - [Embedder] - vector derivation ([HashEmbedder] is the deterministic
//     default)
//
// Embedder, Evaluator, and Provider access use a resolution hierarchy:
//
//  1. Explicit parameter (WithPipelineEmbedder(e))
//  2. Context value (sentience.WithEmbedder(ctx, e))
//  3. Global default (sentience.SetEmbedder(e))
//
// # Running steps
//
//	cortex := sentience.NewInMemoryCortex(10)
//	pipeline := sentience.NewPipeline(cortex,
//	    sentience.WithExecutor(executor),
//	    sentience.WithThreshold(0.6),
//	)
//	result, err := pipeline.RunStep(ctx, dslSource)
//
// A failed evaluation aborts the step with no partial result; individual
// commit failures are recorded in [Result.Failures] without aborting the
// remaining batch.
//
// # Observability
//
// The package emits capitan signals throughout execution. See signals.go
// for the catalog, including StepStarted, StepCompleted, StepFailed,
// ConversionDegraded, WindowEvaluated, TokenBlocked, and TokenCommitted.
package sentience
