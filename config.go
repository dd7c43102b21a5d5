package sentience

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default configuration for the pipeline. These can be overridden per
// pipeline via options or an Options file.
const (
	// DefaultQualityThreshold is the minimum window quality the gate
	// requires before a batch reaches the cortex.
	DefaultQualityThreshold float32 = 0.6

	// DefaultWindowSize is the number of recent tokens supplied to
	// evaluation when the caller does not specify one.
	DefaultWindowSize = 10

	// EmbeddingDimensions is the fixed dimensionality of hash embeddings.
	EmbeddingDimensions = 256

	// EmbeddingAmplitude bounds the magnitude of each hash-embedding
	// coordinate.
	EmbeddingAmplitude = 0.1
)

// Neutral metrics returned for an empty evaluation batch.
const (
	NeutralValence    float32 = 0.5
	NeutralSMD        float32 = 0.3
	NeutralQuality    float32 = 0.7
	NeutralNextAction         = "consolidate"
)

// Options is the file-loadable subset of pipeline configuration.
type Options struct {
	QualityThreshold float32 `yaml:"quality_threshold"`
	WindowSize       int     `yaml:"window_size"`
	Dimensions       int     `yaml:"embedding_dimensions"`
	Amplitude        float64 `yaml:"embedding_amplitude"`
}

// DefaultOptions returns the package defaults.
func DefaultOptions() Options {
	return Options{
		QualityThreshold: DefaultQualityThreshold,
		WindowSize:       DefaultWindowSize,
		Dimensions:       EmbeddingDimensions,
		Amplitude:        EmbeddingAmplitude,
	}
}

// LoadOptions reads Options from a YAML file. Unset fields keep their
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options file: %w", err)
	}

	if opts.QualityThreshold <= 0 {
		opts.QualityThreshold = DefaultQualityThreshold
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = EmbeddingDimensions
	}
	if opts.Amplitude <= 0 {
		opts.Amplitude = EmbeddingAmplitude
	}

	return opts, nil
}
