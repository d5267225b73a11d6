package sanmateo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/dataset"
	"covid19-scrapers/lib/drift"
	"covid19-scrapers/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const CountyName = "San Mateo County"

const (
	// the age group axis is drawn last, once its first label shows up the
	// dashboard is done rendering
	renderedSelector     = ".setFocusRing"
	renderedText         = "0 to 19"
	DefaultRenderTimeout = 30 * time.Second
)

type Options struct {
	// defaults to LandingPage
	LandingUrl string
	// defaults to DefaultRenderTimeout
	RenderTimeout time.Duration
	// defaults to dataset.DefaultTemplate()
	Template *dataset.Document
	// defaults to timezone.Now
	Now func() time.Time
}

type Scraper struct {
	fetcher  PageFetcher
	renderer browser.Renderer
	opts     Options
}

func NewScraper(fetcher PageFetcher, renderer browser.Renderer, opts Options) *Scraper {
	if opts.LandingUrl == "" {
		opts.LandingUrl = LandingPage
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = DefaultRenderTimeout
	}
	if opts.Template == nil {
		template := dataset.DefaultTemplate()
		opts.Template = &template
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return &Scraper{
		fetcher:  fetcher,
		renderer: renderer,
		opts:     opts,
	}
}

type extraction struct {
	cases  CountRecord
	deaths CountRecord
	series []dataset.SeriesPoint
}

// Scrape runs the whole extraction. it either returns a complete document
// or an error, never a partially filled document.
func (s *Scraper) Scrape(ctx context.Context) (dataset.Document, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("county", CountyName))

	start := time.Now()
	result, err := s.scrape(ctx)
	runDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		if drift.Is(err) {
			driftCounter.Add(ctx, 1)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		return dataset.Document{}, err
	}

	doc := s.opts.Template.
		WithSource(CountyName, s.opts.LandingUrl, s.opts.Now().Format(time.RFC3339)).
		WithAgeGroups(result.cases, result.deaths).
		WithSeries(result.series)
	return doc, nil
}

func (s *Scraper) scrape(ctx context.Context) (extraction, error) {
	dashboardUrl, err := ResolveDashboard(ctx, s.fetcher, s.opts.LandingUrl)
	if err != nil {
		return extraction{}, fmt.Errorf("resolve dashboard: %w", err)
	}
	logger := slog.With("dashboard", dashboardUrl)
	logger.InfoContext(ctx, "resolved dashboard")

	session, err := s.renderer.Render(ctx, dashboardUrl)
	if err != nil {
		return extraction{}, fmt.Errorf("render dashboard: %w", err)
	}
	defer func() {
		err := session.Close()
		if err != nil {
			logger.WarnContext(ctx, "failed to close render session", "err", err)
		}
	}()

	err = session.WaitUntilTextPresent(ctx, renderedSelector, renderedText, s.opts.RenderTimeout)
	if err != nil {
		return extraction{}, fmt.Errorf("wait for dashboard: %w", err)
	}

	all, err := LocateCharts(ctx, session, ExpectedChartCount)
	if err != nil {
		return extraction{}, fmt.Errorf("locate charts: %w", err)
	}
	charts, err := ResolveCharts(ctx, all)
	if err != nil {
		return extraction{}, fmt.Errorf("resolve charts: %w", err)
	}

	cases, err := ExtractCounts(ctx, charts.Cases, "")
	if err != nil {
		return extraction{}, fmt.Errorf("case counts: %w", err)
	}
	deaths, err := ExtractCounts(ctx, charts.Deaths, DeathKeyPrefix)
	if err != nil {
		return extraction{}, fmt.Errorf("death counts: %w", err)
	}

	daily, err := ExtractBars(ctx, charts.DailyCases, DailyMarker)
	if err != nil {
		return extraction{}, fmt.Errorf("daily cases: %w", err)
	}
	cumulative, err := ExtractBars(ctx, charts.CumulativeCases, CumulativeMarker)
	if err != nil {
		return extraction{}, fmt.Errorf("cumulative cases: %w", err)
	}

	series, err := MergeSeries(cumulative, daily)
	if err != nil {
		return extraction{}, fmt.Errorf("merge timeseries: %w", err)
	}
	err = ValidateSeries(ctx, series)
	if err != nil {
		return extraction{}, fmt.Errorf("validate timeseries: %w", err)
	}

	logger.InfoContext(ctx, "extracted dashboard", "series_points", len(series))
	return extraction{
		cases:  cases,
		deaths: deaths,
		series: series,
	}, nil
}
