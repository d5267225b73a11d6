package sanmateo

import (
	"context"
	"log/slog"
	"time"

	"covid19-scrapers/lib/dataset"
	"covid19-scrapers/lib/drift"
)

const seriesDateLayout = "2006-01-02"

func barDates(bars []Bar) []string {
	dates := make([]string, len(bars))
	for i, b := range bars {
		dates[i] = b.Date.Format(seriesDateLayout)
	}
	return dates
}

// MergeSeries zips the cumulative and daily bars into one series. both
// must cover exactly the same dates in the same order, otherwise a day's
// new cases could be paired with another day's total.
func MergeSeries(cumulative, daily []Bar) ([]dataset.SeriesPoint, error) {
	err := drift.SequenceEquals(
		barDates(cumulative),
		barDates(daily),
		"dates of the cumulative and daily case charts",
	)
	if err != nil {
		return nil, err
	}

	points := make([]dataset.SeriesPoint, len(daily))
	for i := range daily {
		points[i] = dataset.SeriesPoint{
			Date:       daily[i].Date.Format(seriesDateLayout),
			Cases:      daily[i].Count,
			CumulCases: cumulative[i].Count,
		}
	}
	return points, nil
}

// ValidateSeries checks that a merged series runs day by day in order
// with no day missing. cumulative counts going down are only logged since
// the county does revise totals.
func ValidateSeries(ctx context.Context, points []dataset.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	dates := make([]time.Time, len(points))
	for i, p := range points {
		date, err := time.Parse(seriesDateLayout, p.Date)
		if err != nil {
			return &ParseError{Field: "series date", Value: p.Date, Err: err}
		}
		dates[i] = date
	}

	err := drift.Ascending(dates, func(a, b time.Time) bool {
		return a.Before(b)
	}, "chronological order of timeseries bars")
	if err != nil {
		return err
	}

	observed := make([]string, len(points))
	consecutive := make([]string, len(points))
	for i, p := range points {
		observed[i] = p.Date
		consecutive[i] = dates[0].AddDate(0, 0, i).Format(seriesDateLayout)
	}
	err = drift.SequenceEquals(observed, consecutive, "consecutive days of timeseries")
	if err != nil {
		return err
	}

	for i := 1; i < len(points); i++ {
		if points[i].CumulCases < points[i-1].CumulCases {
			slog.WarnContext(
				ctx, "cumulative cases decreased",
				"date", points[i].Date,
				"previous", points[i-1].CumulCases,
				"current", points[i].CumulCases,
			)
		}
	}

	return nil
}
