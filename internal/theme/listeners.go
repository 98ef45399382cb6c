package theme

import (
	"sort"
	"sync"

	"github.com/jmylchreest/dextint/internal/colour"
	"github.com/jmylchreest/dextint/internal/eventbus"
)

// Painter applies a colour to a named UI region.
type Painter func(region string, c colour.Colour)

// Navbar regions.
const (
	RegionNavbarBackground = "navbar.background"
	RegionNavbarForeground = "navbar.foreground"
	RegionNavbarBorder     = "navbar.border"
)

// Navbar themes the navigation bar from ColourChanged events and returns to
// its default colour on NavbarReset.
type Navbar struct {
	scope *eventbus.Scope
	def   colour.Colour
	paint Painter

	mu      sync.Mutex
	current colour.Colour
	themed  bool
}

// NewNavbar mounts a navbar listener on bus.
func NewNavbar(bus *eventbus.Bus, def colour.Colour, paint Painter) *Navbar {
	n := &Navbar{scope: bus.NewScope(), def: def, paint: paint, current: def}
	eventbus.On(n.scope, func(e eventbus.ColourChanged) { n.apply(e.Colour, true) })
	eventbus.On(n.scope, func(eventbus.NavbarReset) { n.apply(n.def, false) })
	return n
}

func (n *Navbar) apply(c colour.Colour, themed bool) {
	if !n.scope.Alive() {
		return
	}
	n.mu.Lock()
	n.current, n.themed = c, themed
	n.mu.Unlock()

	if n.paint == nil {
		return
	}
	n.paint(RegionNavbarBackground, c)
	n.paint(RegionNavbarForeground, colour.ReadableForeground(c))
	n.paint(RegionNavbarBorder, colour.Shade(c, -0.12))
}

// Current returns the colour the navbar is painted with and whether it came
// from a ColourChanged event.
func (n *Navbar) Current() (colour.Colour, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.themed
}

// Alive reports whether the navbar is still mounted.
func (n *Navbar) Alive() bool {
	return n.scope.Alive()
}

// Close unmounts the navbar.
func (n *Navbar) Close() {
	n.scope.Close()
}

// CardAccents records the accent colour registered for each card.
type CardAccents struct {
	scope *eventbus.Scope
	paint Painter

	mu      sync.RWMutex
	colours map[string]colour.Colour
}

// NewCardAccents mounts a card accent listener on bus.
func NewCardAccents(bus *eventbus.Bus, paint Painter) *CardAccents {
	c := &CardAccents{scope: bus.NewScope(), paint: paint, colours: make(map[string]colour.Colour)}
	eventbus.On(c.scope, c.register)
	return c
}

func (c *CardAccents) register(e eventbus.CardColourRegistered) {
	if !c.scope.Alive() {
		return
	}
	c.mu.Lock()
	c.colours[e.ID] = e.Colour
	c.mu.Unlock()

	if c.paint != nil {
		c.paint(CardRegion(e.ID), e.Colour)
	}
}

// CardRegion names the region painted for a card.
func CardRegion(id string) string {
	return "card/" + id
}

// Colour returns the accent registered for id.
func (c *CardAccents) Colour(id string) (colour.Colour, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.colours[id]
	return col, ok
}

// IDs returns the registered card ids, sorted.
func (c *CardAccents) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.colours))
	for id := range c.colours {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close unmounts the listener.
func (c *CardAccents) Close() {
	c.scope.Close()
}
