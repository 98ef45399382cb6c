package colour

import (
	"fmt"
	"image"
)

// Extractor defines the interface for dominant colour algorithms.
type Extractor interface {
	// Dominant returns the dominant colour of a sampled image.
	// The second return value is false when the image yields no usable colour.
	Dominant(img *image.NRGBA) (RGB, bool)
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmHistogram finds the most frequent filtered colour.
	AlgorithmHistogram Algorithm = "histogram"

	// AlgorithmProminent uses k-means clustering from prominentcolor and
	// returns the most populated cluster.
	AlgorithmProminent Algorithm = "prominent"

	// AlgorithmKMeans uses the dominantcolor k-means implementation.
	AlgorithmKMeans Algorithm = "kmeans"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmHistogram,
		AlgorithmProminent,
		AlgorithmKMeans,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// NewExtractor creates a new Extractor based on the configuration.
// Returns an error if the algorithm is not recognized.
func NewExtractor(cfg ExtractorConfig) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Algorithm {
	case AlgorithmHistogram:
		return NewHistogrammer(cfg.Filter), nil
	case AlgorithmProminent:
		return NewProminentExtractor(cfg.Filter), nil
	case AlgorithmKMeans:
		return NewKMeansExtractor(cfg.Filter), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", cfg.Algorithm, ValidAlgorithms())
	}
}

// ExtractorConfig holds configuration for colour extraction.
type ExtractorConfig struct {
	Algorithm Algorithm
	Filter    FilterConfig
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm: AlgorithmHistogram,
		Filter:    DefaultFilterConfig(),
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if !IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("invalid algorithm: %s", c.Algorithm)
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}
