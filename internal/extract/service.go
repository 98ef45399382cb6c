// Package extract orchestrates sampling and colour extraction for image sources.
package extract

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/dextint/internal/colour"
)

// DefaultFallback is returned when no colour can be extracted.
var DefaultFallback = colour.MustParse("#b20072")

// Reason explains why a Result holds the fallback colour.
type Reason string

const (
	// ReasonNone means the colour was extracted from the image.
	ReasonNone Reason = ""
	// ReasonLoadFailed means the image could not be fetched or decoded.
	ReasonLoadFailed Reason = "load-failed"
	// ReasonNoQualifyingPixel means every sampled pixel was filtered out.
	ReasonNoQualifyingPixel Reason = "no-qualifying-pixel"
)

// Result is the outcome of one extraction. It always carries a colour.
type Result struct {
	Source   string        `json:"source"`
	Colour   colour.Colour `json:"colour"`
	Fallback bool          `json:"fallback"`
	Reason   Reason        `json:"reason,omitempty"`
	// Err is the load error behind ReasonLoadFailed.
	Err      error         `json:"-"`
	Duration time.Duration `json:"-"`
}

// Sampler produces the pixel buffer for a source.
type Sampler interface {
	Sample(ctx context.Context, source string) (*image.NRGBA, error)
}

// Option configures a Service.
type Option func(*Service)

// WithFallback sets the colour returned when extraction fails.
func WithFallback(c colour.Colour) Option {
	return func(s *Service) { s.fallback = c }
}

// WithLogger sets the service logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs Sampler then Extractor for each request. Requests are
// independent: concurrent calls for the same source are not coalesced.
type Service struct {
	sampler   Sampler
	extractor colour.Extractor
	fallback  colour.Colour
	logger    hclog.Logger
}

// NewService creates a Service.
func NewService(sampler Sampler, extractor colour.Extractor, opts ...Option) (*Service, error) {
	if sampler == nil {
		return nil, errors.New("sampler cannot be nil")
	}
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	s := &Service{
		sampler:   sampler,
		extractor: extractor,
		fallback:  DefaultFallback,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fallback returns the configured fallback colour.
func (s *Service) Fallback() colour.Colour {
	return s.fallback
}

// Extract returns the dominant colour of source, or the fallback.
// It never fails; load errors are reported in Result.Err.
func (s *Service) Extract(ctx context.Context, source string) Result {
	start := time.Now()
	res := Result{Source: source}

	buf, err := s.sampler.Sample(ctx, source)
	switch {
	case err != nil:
		res.Colour, res.Fallback, res.Reason, res.Err = s.fallback, true, ReasonLoadFailed, err
		s.logger.Warn("image unavailable, using fallback", "source", source, "fallback", s.fallback.String(), "error", err)
	default:
		if rgb, ok := s.extractor.Dominant(buf); ok {
			res.Colour = colour.FromRGB(rgb)
		} else {
			res.Colour, res.Fallback, res.Reason = s.fallback, true, ReasonNoQualifyingPixel
			s.logger.Debug("no qualifying pixel, using fallback", "source", source)
		}
	}

	res.Duration = time.Since(start)
	s.logger.Debug("extracted colour", "source", source, "colour", res.Colour.String(), "fallback", res.Fallback, "duration", res.Duration)
	return res
}

// ExtractAsync runs Extract in its own goroutine. The channel receives
// exactly one Result and is then closed.
func (s *Service) ExtractAsync(ctx context.Context, source string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- s.Extract(ctx, source)
	}()
	return out
}

// ExtractAll extracts every source concurrently and returns results in input order.
func (s *Service) ExtractAll(ctx context.Context, sources []string) []Result {
	results := make([]Result, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Extract(ctx, src)
		}()
	}
	wg.Wait()
	return results
}
