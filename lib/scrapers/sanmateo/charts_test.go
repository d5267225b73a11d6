package sanmateo

import (
	"context"
	"strings"
	"testing"

	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/drift"

	"github.com/stretchr/testify/require"
)

func TestLocateCharts(t *testing.T) {
	session := parseSession(t, dashboardPage)

	charts, err := LocateCharts(context.Background(), session, ExpectedChartCount)
	require.NoError(t, err)
	require.Len(t, charts, 8)

	_, err = LocateCharts(context.Background(), session, 7)
	require.ErrorIs(t, err, drift.ErrStructuralDrift)
}

func TestLocateChartsNewChart(t *testing.T) {
	extra := strings.Replace(
		dashboardPage,
		`<div class="reportCanvas">`,
		`<div class="reportCanvas"><svg class="svgScrollable"></svg>`,
		1,
	)
	_, err := LocateCharts(context.Background(), parseSession(t, extra), ExpectedChartCount)
	require.ErrorIs(t, err, drift.ErrStructuralDrift)
	require.Contains(t, err.Error(), "expected 8, observed 9")
}

func TestResolveCharts(t *testing.T) {
	charts := dashboardCharts(t)

	resolved, err := ResolveCharts(context.Background(), charts)
	require.NoError(t, err)
	require.Equal(t, DefaultLayout, resolved.Layout)
}

func TestResolveChartsReordered(t *testing.T) {
	charts := dashboardCharts(t)
	// swap the daily and cumulative charts and move the gender chart to the end
	reordered := []browser.Element{
		charts[0], charts[3], charts[2], charts[4], charts[5], charts[6], charts[7], charts[1],
	}

	resolved, err := ResolveCharts(context.Background(), reordered)
	require.NoError(t, err)
	require.Equal(t, Layout{Cases: 0, DailyCases: 2, CumulativeCases: 1, Deaths: 3}, resolved.Layout)

	daily, err := ExtractBars(context.Background(), resolved.DailyCases, DailyMarker)
	require.NoError(t, err)
	require.Equal(t, 41, daily[0].Count)
}

func TestResolveChartsDrift(t *testing.T) {
	charts := dashboardCharts(t)

	testCases := []struct {
		name   string
		charts []browser.Element
	}{
		{
			name:   "death chart missing",
			charts: []browser.Element{charts[0], charts[1], charts[2], charts[3], charts[5], charts[6], charts[7]},
		},
		{
			name:   "third age chart",
			charts: append(append([]browser.Element{}, charts...), charts[0]),
		},
		{
			name:   "daily chart missing",
			charts: []browser.Element{charts[0], charts[1], charts[3], charts[4], charts[5], charts[6], charts[7]},
		},
		{
			name:   "cumulative chart duplicated",
			charts: append(append([]browser.Element{}, charts...), charts[3]),
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := ResolveCharts(context.Background(), test.charts)
			require.ErrorIs(t, err, drift.ErrStructuralDrift)
		})
	}
}
