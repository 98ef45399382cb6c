package eventbus

import "github.com/jmylchreest/dextint/internal/colour"

// Topic names a category of notification on the bus.
type Topic string

// Known topics. The string values match the names used by the catalog UI.
const (
	TopicColourChanged        Topic = "detail-page-color-change"
	TopicCardColourRegistered Topic = "register-pokemon-color"
	TopicSessionExpired       Topic = "session-expired"
	TopicNavbarReset          Topic = "force-navbar-reset"
)

// Event is the closed set of payloads the bus carries. Only types in this
// package implement it.
type Event interface {
	// Topic returns the topic the event is delivered on.
	Topic() Topic
	event()
}

// ColourChanged announces the detail view's new theme colour.
type ColourChanged struct {
	Colour colour.Colour
	// Source is the image the colour was extracted from.
	Source string
	// Fallback is set when Colour is the configured default rather than
	// an extracted colour.
	Fallback bool
}

func (ColourChanged) Topic() Topic { return TopicColourChanged }
func (ColourChanged) event()       {}

// CardColourRegistered associates a card with its accent colour.
type CardColourRegistered struct {
	ID     string
	Colour colour.Colour
	// Element is an opaque reference to the UI element to repaint.
	Element any
}

func (CardColourRegistered) Topic() Topic { return TopicCardColourRegistered }
func (CardColourRegistered) event()       {}

// SessionExpired signals that the backend rejected the session.
type SessionExpired struct {
	Message string
}

func (SessionExpired) Topic() Topic { return TopicSessionExpired }
func (SessionExpired) event()       {}

// NavbarReset asks the navigation bar to drop any theming.
type NavbarReset struct {
	// Route is the name of the route that requested the reset.
	Route string
}

func (NavbarReset) Topic() Topic { return TopicNavbarReset }
func (NavbarReset) event()       {}

// Topics returns every known topic.
func Topics() []Topic {
	return []Topic{
		TopicColourChanged,
		TopicCardColourRegistered,
		TopicSessionExpired,
		TopicNavbarReset,
	}
}
