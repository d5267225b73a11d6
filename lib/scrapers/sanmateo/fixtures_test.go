package sanmateo

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"testing"

	"covid19-scrapers/lib/browser"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/dashboard.html
var dashboardPage string

//go:embed testdata/landing.html
var landingPage string

func parseSession(t testing.TB, page string) *browser.DocumentSession {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return browser.NewDocumentSession("https://app.powerbigov.us/view?r=test", doc)
}

func dashboardCharts(t testing.TB) []browser.Element {
	t.Helper()
	charts, err := parseSession(t, dashboardPage).FindElementsByClass(context.Background(), ChartClass)
	require.NoError(t, err)
	require.Len(t, charts, ExpectedChartCount)
	return charts
}

// ageChart renders a chart with one title and one value label per entry.
func ageChart(t testing.TB, titles []string, values []string) browser.Element {
	t.Helper()
	var page strings.Builder
	page.WriteString(`<html><body><svg class="svgScrollable">`)
	for _, title := range titles {
		fmt.Fprintf(&page, `<g class="tick"><title>%s</title></g>`, title)
	}
	for _, v := range values {
		fmt.Fprintf(&page, `<text class="label">%s</text>`, v)
	}
	page.WriteString(`</svg></body></html>`)

	charts, err := parseSession(t, page.String()).FindElementsByClass(context.Background(), ChartClass)
	require.NoError(t, err)
	require.Len(t, charts, 1)
	return charts[0]
}

// barChart renders a chart with one rect per aria-label.
func barChart(t testing.TB, labels ...string) browser.Element {
	t.Helper()
	var page strings.Builder
	page.WriteString(`<html><body><svg class="svgScrollable">`)
	for _, label := range labels {
		fmt.Fprintf(&page, `<rect aria-label="%s"></rect>`, label)
	}
	page.WriteString(`</svg></body></html>`)

	charts, err := parseSession(t, page.String()).FindElementsByClass(context.Background(), ChartClass)
	require.NoError(t, err)
	require.Len(t, charts, 1)
	return charts[0]
}

var fixtureCases = CountRecord{
	"Age_LT20":  58,
	"Age_20_29": 196,
	"Age_30_39": 197,
	"Age_40_49": 206,
	"Age_50_59": 189,
	"Age_60_69": 126,
	"Age_70_79": 70,
	"Age_80_89": 51,
	"Age_90_Up": 18,
}

var fixtureDeaths = CountRecord{
	"Death_Age_LT20":  0,
	"Death_Age_20_29": 0,
	"Death_Age_30_39": 1,
	"Death_Age_40_49": 1,
	"Death_Age_50_59": 2,
	"Death_Age_60_69": 4,
	"Death_Age_70_79": 6,
	"Death_Age_80_89": 11,
	"Death_Age_90_Up": 9,
}
