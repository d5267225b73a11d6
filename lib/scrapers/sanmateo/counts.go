package sanmateo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/drift"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CountRecord maps a semantic key to a count.
type CountRecord map[string]int

// ParseError is a single malformed value on an otherwise well shaped
// chart.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from %q: %s", e.Field, e.Value, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseCount reads a non-negative integer as the dashboard prints it,
// thousands separators included.
func parseCount(field, text string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0, &ParseError{Field: field, Value: text, Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Field: field, Value: text, Err: fmt.Errorf("count is negative")}
	}
	return n, nil
}

// titleHint names the first title that isn't its expected age group label
// and the label it most resembles.
func titleHint(titles []string) string {
	for i, title := range titles {
		if i < len(ageGroupLabels) && title == ageGroupLabels[i] {
			continue
		}
		closest, _ := ClosestLabel(title)
		return fmt.Sprintf("title %q is closest to %q", title, closest)
	}
	return ""
}

func checkAgeTitles(chart browser.Element) error {
	titles := titleTexts(chart)
	err := drift.SequenceEquals(titles, ageGroupLabels, "age group titles of chart")
	if err == nil {
		return nil
	}
	if hint := titleHint(titles); hint != "" {
		return fmt.Errorf("%w (%s)", err, hint)
	}
	return err
}

// ExtractCounts reads the per age group counts off of chart, keyed by
// the age group keys with keyPrefix prepended. the chart's titles must
// match the age group labels exactly before any value is read.
func ExtractCounts(ctx context.Context, chart browser.Element, keyPrefix string) (CountRecord, error) {
	_, span := tracer.Start(ctx, "ExtractCounts")
	defer span.End()
	span.SetAttributes(attribute.String("key_prefix", keyPrefix))

	err := checkAgeTitles(chart)
	if err != nil {
		span.SetStatus(codes.Error, "age titles changed")
		return nil, err
	}

	labels := chart.FindByClass("label")
	err = drift.Count(len(labels), len(ageGroupKeys), "age group value labels of chart")
	if err != nil {
		span.SetStatus(codes.Error, "label count changed")
		return nil, err
	}

	record := make(CountRecord, len(ageGroupKeys))
	for i, label := range labels {
		key := keyPrefix + ageGroupKeys[i]
		// compared as text for the same reason as titleTexts
		n, err := parseCount(key, label.Text())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "malformed count")
			return nil, err
		}
		record[key] = n
	}

	return record, nil
}
