package sanmateo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/drift"
	"covid19-scrapers/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// each bar of the timeseries charts carries its value in an aria-label of
// the form:
//
//	Date <Weekday>, <Month> <Day>, <Year>. <New|Total> Cases by Day <Count>.
const (
	DailyMarker      = "New"
	CumulativeMarker = "Total"
	casesMarker      = "Cases"
)

const barDateLayout = "January 2 2006"

// Bar is one bar of a timeseries chart.
type Bar struct {
	Date  time.Time
	Count int
}

func barSelector(marker string) string {
	return fmt.Sprintf("rect[aria-label~=%s][aria-label~=%s]", marker, casesMarker)
}

var weekdays = map[string]bool{
	"Monday":    true,
	"Tuesday":   true,
	"Wednesday": true,
	"Thursday":  true,
	"Friday":    true,
	"Saturday":  true,
	"Sunday":    true,
}

// commas are kept inside words so that a thousands separator doesn't split
// a count, trailing commas are trimmed off afterwards. minus signs are kept
// so a negative count reaches parseCount instead of losing its sign.
var wordSeparator = regexp.MustCompile(`[^\w,-]+`)

func labelWords(label string) []string {
	var words []string
	for _, w := range wordSeparator.Split(label, -1) {
		w = strings.Trim(w, ",")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// ParseBarLabel reads the date and count out of a bar's aria-label.
// everything up to and including the weekday is discarded, the next three
// words are the month, day and year, the last word is the count.
//
// a label missing its weekday or too short to hold a date and a count
// means the format changed and is reported as drift. a date or count that
// doesn't parse is a ParseError.
func ParseBarLabel(label string) (Bar, error) {
	words := labelWords(label)

	weekday := -1
	for i, w := range words {
		if weekdays[w] {
			weekday = i
			break
		}
	}
	if weekday < 0 {
		return Bar{}, &drift.Error{
			Context: "timeseries bar label format",
			Detail:  fmt.Sprintf("no weekday in %q", label),
		}
	}

	rest := words[weekday+1:]
	if len(rest) < 4 {
		return Bar{}, &drift.Error{
			Context: "timeseries bar label format",
			Detail:  fmt.Sprintf("expected a date and a count after the weekday in %q", label),
		}
	}

	rawDate := strings.Join(rest[:3], " ")
	date, err := time.ParseInLocation(barDateLayout, rawDate, timezone.Location)
	if err != nil {
		return Bar{}, &ParseError{Field: "bar date", Value: rawDate, Err: err}
	}

	count, err := parseCount("bar count", rest[len(rest)-1])
	if err != nil {
		return Bar{}, err
	}

	return Bar{Date: date, Count: count}, nil
}

// ExtractBars parses every bar of chart labeled with marker, in the order
// they were rendered.
func ExtractBars(ctx context.Context, chart browser.Element, marker string) ([]Bar, error) {
	_, span := tracer.Start(ctx, "ExtractBars")
	defer span.End()
	span.SetAttributes(attribute.String("marker", marker))

	rects := chart.FindBySelector(barSelector(marker))
	bars := make([]Bar, 0, len(rects))
	for _, rect := range rects {
		label, _ := rect.Attr("aria-label")
		bar, err := ParseBarLabel(label)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse bar")
			return nil, err
		}
		bars = append(bars, bar)
	}
	span.SetAttributes(attribute.Int("bars", len(bars)))

	return bars, nil
}
