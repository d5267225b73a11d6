package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"covid19-scrapers/lib/htmlutil"
	"covid19-scrapers/lib/transport"

	"github.com/PuerkitoBio/goquery"
)

type domElement struct {
	sel *goquery.Selection
}

func wrapSelection(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, domElement{sel: s})
	})
	return elements
}

func (e domElement) Text() string {
	return htmlutil.NormalizedText(e.sel.Nodes...)
}

func (e domElement) InnerHTML() string {
	inner, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return inner
}

func (e domElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e domElement) FindByClass(name string) []Element {
	return wrapSelection(e.sel.Find("." + name))
}

func (e domElement) FindByTag(name string) []Element {
	return wrapSelection(e.sel.Find(name))
}

func (e domElement) FindBySelector(selector string) []Element {
	return wrapSelection(e.sel.Find(selector))
}

// DocumentSession answers queries against a static snapshot of a rendered
// page. nothing in it can go stale since the snapshot never changes.
type DocumentSession struct {
	url string
	doc *goquery.Document
}

func NewDocumentSession(url string, doc *goquery.Document) *DocumentSession {
	return &DocumentSession{url: url, doc: doc}
}

// there is nothing left to render in a snapshot, so the text is either
// present already or never will be.
func (s *DocumentSession) WaitUntilTextPresent(_ context.Context, selector, text string, _ time.Duration) error {
	found := false
	s.doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), text) {
			found = true
		}
		return !found
	})
	if !found {
		return &transport.Error{
			Op:  "wait",
			URL: s.url,
			Err: fmt.Errorf("%q never appeared in %s", text, selector),
		}
	}
	return nil
}

func (s *DocumentSession) FindElementsByClass(_ context.Context, name string) ([]Element, error) {
	return wrapSelection(s.doc.Find("." + name)), nil
}

func (s *DocumentSession) Close() error {
	return nil
}

// StaticRenderer fetches a page without executing any scripts. it serves
// saved snapshots of a dashboard and tests.
type StaticRenderer struct {
	Client *transport.Client
}

func (r StaticRenderer) Render(ctx context.Context, url string) (Session, error) {
	doc, err := r.Client.GetHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewDocumentSession(url, doc), nil
}
