// Package browser is the rendering capability the dashboard scrapers
// depend on: render a url, wait for it to finish drawing, then query the
// resulting DOM.
package browser

import (
	"context"
	"time"
)

// Element is a borrowed reference to one rendered element. it is only
// valid for the lifetime of the Session it came from.
type Element interface {
	// Text is the element's text content with surrounding whitespace
	// trimmed.
	Text() string
	InnerHTML() string
	Attr(name string) (string, bool)
	FindByClass(name string) []Element
	FindByTag(name string) []Element
	FindBySelector(selector string) []Element
}

type Session interface {
	// WaitUntilTextPresent blocks until an element matching selector
	// contains text, or fails with a transport error after timeout.
	WaitUntilTextPresent(ctx context.Context, selector, text string, timeout time.Duration) error
	// FindElementsByClass returns the matching elements in document order.
	FindElementsByClass(ctx context.Context, name string) ([]Element, error)
	// Close releases the session, it is safe to call more than once.
	Close() error
}

type Renderer interface {
	Render(ctx context.Context, url string) (Session, error)
}
