package sentience

import "github.com/zoobzio/capitan"

// Signal definitions for pipeline events.
// Signals follow the pattern: sentience.<entity>.<event>.
var (
	// Step lifecycle signals.
	StepStarted = capitan.NewSignal(
		"sentience.step.started",
		"Pipeline step began execution",
	)
	StepCompleted = capitan.NewSignal(
		"sentience.step.completed",
		"Pipeline step finished successfully",
	)
	StepFailed = capitan.NewSignal(
		"sentience.step.failed",
		"Pipeline step encountered a fatal error",
	)

	// Conversion signals.
	ConversionDegraded = capitan.NewSignal(
		"sentience.conversion.degraded",
		"Unknown raw kind defaulted during canonicalization",
	)

	// Evaluation signals.
	WindowEvaluated = capitan.NewSignal(
		"sentience.window.evaluated",
		"Token window scored by the evaluator",
	)

	// Gate signals.
	TokenBlocked = capitan.NewSignal(
		"sentience.token.blocked",
		"Token rejected by the quality gate",
	)
	BatchGated = capitan.NewSignal(
		"sentience.batch.gated",
		"Gate outcome recorded for a token batch",
	)

	// Commit signals.
	TokenCommitted = capitan.NewSignal(
		"sentience.token.committed",
		"Accepted token persisted to the cortex",
	)
	CommitFailed = capitan.NewSignal(
		"sentience.commit.failed",
		"Persistence failed for an individual accepted token",
	)
)

// Field keys for pipeline event data.
var (
	// Token metadata.
	FieldTokenID   = capitan.NewStringKey("token_id")
	FieldTokenKind = capitan.NewStringKey("token_kind")
	FieldRawKind   = capitan.NewStringKey("raw_kind")
	FieldEdgeKind  = capitan.NewStringKey("edge_kind")

	// Batch metrics.
	FieldTokenCount     = capitan.NewIntKey("token_count")
	FieldEdgeCount      = capitan.NewIntKey("edge_count")
	FieldAcceptedCount  = capitan.NewIntKey("accepted_count")
	FieldAcceptedEdges  = capitan.NewIntKey("accepted_edges")
	FieldCommittedCount = capitan.NewIntKey("committed_count")
	FieldWindowSize     = capitan.NewIntKey("window_size")

	// Evaluation metrics.
	FieldQuality    = capitan.NewFloat32Key("quality")
	FieldValence    = capitan.NewFloat32Key("valence")
	FieldThreshold  = capitan.NewFloat32Key("threshold")
	FieldNextAction = capitan.NewStringKey("next_action")

	// Step metadata.
	FieldStep         = capitan.NewIntKey("step")
	FieldStepDuration = capitan.NewDurationKey("step_duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
