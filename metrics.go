package sentience

// Metrics is the evaluation result for one token window.
// Valence and Quality live in [0,1]; SMD (semantic mean divergence) is an
// unbounded dispersion signal. NextAction is an open vocabulary chosen by
// the evaluator, not enumerated here.
type Metrics struct {
	Valence    float32 `json:"valence"`
	SMD        float32 `json:"smd"`
	Quality    float32 `json:"quality"`
	NextAction string  `json:"next_action"`
}

// NeutralMetrics is the fixed default returned when there is nothing to
// evaluate. Keeps empty-input behavior defined and deterministic without
// invoking the external evaluator.
func NeutralMetrics() Metrics {
	return Metrics{
		Valence:    NeutralValence,
		SMD:        NeutralSMD,
		Quality:    NeutralQuality,
		NextAction: NeutralNextAction,
	}
}
