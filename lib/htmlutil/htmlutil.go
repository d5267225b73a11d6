package htmlutil

import (
	"bytes"
	"context"
	"net/url"

	"covid19-scrapers/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("covid19.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// NormalizedText is the text of the given nodes with non-printable
// characters removed and whitespace collapsed, roughly what a browser
// would report as the visible text.
func NormalizedText(nodes ...*html.Node) string {
	var buffer bytes.Buffer
	for _, n := range nodes {
		getTextRecursive(n, &buffer)
	}
	return textutil.Clean(buffer.String())
}

type Frame struct {
	Title string
	Src   string
}

// GetFrames reads the title and src of every iframe in sel, keeping
// document order. frames with an unparseable src keep the raw value so
// that they still count towards any structural checks.
func GetFrames(ctx context.Context, sel *goquery.Selection) []Frame {
	_, span := tracer.Start(ctx, "GetFrames")
	defer span.End()

	frames := []Frame{}
	sel.Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		link, err := url.Parse(src)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing iframe src")
		} else {
			src = link.String()
		}

		title := textutil.Clean(s.AttrOr("title", ""))
		frames = append(frames, Frame{
			Title: title,
			Src:   src,
		})
		span.AddEvent("iframe", trace.WithAttributes(
			attribute.String("title", title),
			attribute.String("src", src),
		))
	})

	return frames
}
