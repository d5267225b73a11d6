package sanmateo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/drift"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// every chart on the dashboard is drawn inside an element with this class
	ChartClass         = "svgScrollable"
	ExpectedChartCount = 8
)

// Layout is where each chart sits in the dashboard's render order.
type Layout struct {
	Cases           int
	DailyCases      int
	CumulativeCases int
	Deaths          int
}

// DefaultLayout is the order the dashboard has historically rendered its
// charts in.
var DefaultLayout = Layout{
	Cases:           0,
	DailyCases:      2,
	CumulativeCases: 3,
	Deaths:          4,
}

// Charts are the charts the scraper reads, resolved from a dashboard.
type Charts struct {
	Cases           browser.Element
	DailyCases      browser.Element
	CumulativeCases browser.Element
	Deaths          browser.Element
	Layout          Layout
}

// LocateCharts lists the dashboard's charts in render order and checks
// that there are as many as expected.
func LocateCharts(ctx context.Context, session browser.Session, expected int) ([]browser.Element, error) {
	ctx, span := tracer.Start(ctx, "LocateCharts")
	defer span.End()

	charts, err := session.FindElementsByClass(ctx, ChartClass)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enumerate charts")
		return nil, err
	}
	span.SetAttributes(attribute.Int("charts", len(charts)))

	err = drift.Count(len(charts), expected, fmt.Sprintf("number of charts (elements of class %s) on the dashboard", ChartClass))
	if err != nil {
		span.SetStatus(codes.Error, "chart count changed")
		return nil, err
	}
	return charts, nil
}

// titles and value labels only hold text, so their normalized text is their
// inner html without entity escaping or layout whitespace.
func titleTexts(chart browser.Element) []string {
	titles := chart.FindByTag("title")
	texts := make([]string, len(titles))
	for i, t := range titles {
		texts[i] = t.Text()
	}
	return texts
}

func hasBars(chart browser.Element, marker string) bool {
	return len(chart.FindBySelector(barSelector(marker))) > 0
}

func matchingCharts(charts []browser.Element, match func(browser.Element) bool) []int {
	var indices []int
	for i, c := range charts {
		if match(c) {
			indices = append(indices, i)
		}
	}
	return indices
}

// ageChartsHint adds which title changed to err when a chart has as many
// titles as there are age groups but not the expected ones.
func ageChartsHint(charts []browser.Element, err error) error {
	for _, c := range charts {
		titles := titleTexts(c)
		if len(titles) != len(ageGroupLabels) || slices.Equal(titles, ageGroupLabels) {
			continue
		}
		if hint := titleHint(titles); hint != "" {
			return fmt.Errorf("%w (%s)", err, hint)
		}
	}
	return err
}

// ResolveCharts picks out the charts the scraper reads by what they show
// rather than where they are. the case and death age charts have the same
// titles, so between the two the first rendered is taken as cases.
func ResolveCharts(ctx context.Context, charts []browser.Element) (Charts, error) {
	ctx, span := tracer.Start(ctx, "ResolveCharts")
	defer span.End()

	ageCharts := matchingCharts(charts, func(c browser.Element) bool {
		return slices.Equal(titleTexts(c), ageGroupLabels)
	})
	err := drift.Count(len(ageCharts), 2, "charts titled with every age group (cases, deaths)")
	if err != nil {
		span.SetStatus(codes.Error, "age charts not found")
		return Charts{}, ageChartsHint(charts, err)
	}

	daily := matchingCharts(charts, func(c browser.Element) bool {
		return hasBars(c, DailyMarker)
	})
	err = drift.Count(len(daily), 1, fmt.Sprintf("charts with %q case bars", DailyMarker))
	if err != nil {
		span.SetStatus(codes.Error, "daily case chart not found")
		return Charts{}, err
	}

	cumulative := matchingCharts(charts, func(c browser.Element) bool {
		return hasBars(c, CumulativeMarker)
	})
	err = drift.Count(len(cumulative), 1, fmt.Sprintf("charts with %q case bars", CumulativeMarker))
	if err != nil {
		span.SetStatus(codes.Error, "cumulative case chart not found")
		return Charts{}, err
	}

	layout := Layout{
		Cases:           ageCharts[0],
		DailyCases:      daily[0],
		CumulativeCases: cumulative[0],
		Deaths:          ageCharts[1],
	}
	if layout != DefaultLayout {
		slog.WarnContext(
			ctx, "dashboard charts have been rearranged",
			"expected", DefaultLayout,
			"observed", layout,
		)
	}

	return Charts{
		Cases:           charts[layout.Cases],
		DailyCases:      charts[layout.DailyCases],
		CumulativeCases: charts[layout.CumulativeCases],
		Deaths:          charts[layout.Deaths],
		Layout:          layout,
	}, nil
}
