// Package theme propagates extracted colours to the UI regions that are
// themed by them.
package theme

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/dextint/internal/eventbus"
	"github.com/jmylchreest/dextint/internal/extract"
)

// DefaultDelay is the pause between extraction and publishing, giving
// listeners mounted in the same render pass time to subscribe.
const DefaultDelay = 100 * time.Millisecond

// Publisher is the part of the bus the propagator needs.
type Publisher interface {
	Publish(e eventbus.Event) int
}

// Extractor resolves a source to a colour.
type Extractor interface {
	Extract(ctx context.Context, source string) extract.Result
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithDelay sets the wait between extraction and publishing.
func WithDelay(d time.Duration) Option {
	return func(p *Propagator) {
		if d >= 0 {
			p.delay = d
		}
	}
}

// WithDebounce collapses bursts of propagations into the last one. The
// publish happens one delay after the final call of the burst.
func WithDebounce(enabled bool) Option {
	return func(p *Propagator) { p.debounce = enabled }
}

// WithLogger sets the propagator logger.
func WithLogger(logger hclog.Logger) Option {
	return func(p *Propagator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Propagator extracts a detail image's colour and announces it on the bus.
type Propagator struct {
	extractor Extractor
	bus       Publisher
	delay     time.Duration
	debounce  bool
	logger    hclog.Logger

	once      sync.Once
	debounced func(func())
}

// NewPropagator creates a Propagator.
func NewPropagator(extractor Extractor, bus Publisher, opts ...Option) (*Propagator, error) {
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	if bus == nil {
		return nil, errors.New("bus cannot be nil")
	}
	p := &Propagator{
		extractor: extractor,
		bus:       bus,
		delay:     DefaultDelay,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Delay returns the configured propagation delay.
func (p *Propagator) Delay() time.Duration {
	return p.delay
}

// Propagate extracts the colour of source, waits the delay and publishes a
// ColourChanged event. Cancelling ctx during the wait skips the publish.
// In debounce mode the publish is scheduled and Propagate returns once the
// colour is known.
func (p *Propagator) Propagate(ctx context.Context, source string) extract.Result {
	res := p.extractor.Extract(ctx, source)
	event := eventbus.ColourChanged{Colour: res.Colour, Source: res.Source, Fallback: res.Fallback}

	if p.debounce {
		p.once.Do(func() { p.debounced = debounce.New(p.delay) })
		p.debounced(func() {
			if ctx.Err() != nil {
				p.logger.Debug("propagation cancelled", "source", source)
				return
			}
			p.publish(event)
		})
		return res
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			p.logger.Debug("propagation cancelled", "source", source, "error", ctx.Err())
			return res
		case <-timer.C:
		}
	}

	p.publish(event)
	return res
}

// PropagateAsync runs Propagate in its own goroutine. The channel receives
// the extraction result once the event has been published (or skipped) and
// is then closed.
func (p *Propagator) PropagateAsync(ctx context.Context, source string) <-chan extract.Result {
	out := make(chan extract.Result, 1)
	go func() {
		defer close(out)
		out <- p.Propagate(ctx, source)
	}()
	return out
}

// RegisterCard extracts the colour for a card thumbnail and publishes a
// CardColourRegistered event straight away.
func (p *Propagator) RegisterCard(ctx context.Context, id, source string, element any) extract.Result {
	res := p.extractor.Extract(ctx, source)
	n := p.bus.Publish(eventbus.CardColourRegistered{ID: id, Colour: res.Colour, Element: element})
	p.logger.Debug("registered card colour", "id", id, "colour", res.Colour.String(), "listeners", n)
	return res
}

func (p *Propagator) publish(e eventbus.ColourChanged) {
	n := p.bus.Publish(e)
	p.logger.Debug("propagated colour", "source", e.Source, "colour", e.Colour.String(), "fallback", e.Fallback, "listeners", n)
}
