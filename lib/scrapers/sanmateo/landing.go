package sanmateo

import (
	"context"
	"strings"

	"covid19-scrapers/lib/drift"
	"covid19-scrapers/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	LandingPage = "https://www.smchealth.org/post/san-mateo-county-covid-19-data-1"
	// every dashboard embedded on the landing page is served from here
	DashboardProvider      = "https://app.powerbigov.us"
	ExpectedFrameCount     = 5
	ExpectedDashboardCount = 4
)

type PageFetcher interface {
	GetHTML(ctx context.Context, url string) (*goquery.Document, error)
}

func isDashboard(frame htmlutil.Frame) bool {
	return strings.Contains(frame.Src, DashboardProvider)
}

// ResolveDashboard finds the url of the case dashboard embedded on the
// landing page. fetch failures are returned as they are, a landing page
// with a different set of embeds is drift.
func ResolveDashboard(ctx context.Context, fetcher PageFetcher, landingUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "ResolveDashboard")
	defer span.End()
	span.SetAttributes(attribute.String("url", landingUrl))

	doc, err := fetcher.GetHTML(ctx, landingUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return "", err
	}

	frames := htmlutil.GetFrames(ctx, doc.Find("iframe"))

	err = drift.Count(len(frames), ExpectedFrameCount, "number of embedded frames on the landing page")
	if err != nil {
		span.SetStatus(codes.Error, "frame count changed")
		return "", err
	}

	dashboard := ""
	for _, f := range frames {
		if isDashboard(f) {
			dashboard = f.Src
			break
		}
	}
	err = drift.SubsetPattern(
		frames, isDashboard, ExpectedDashboardCount,
		"number of landing page frames embedding "+DashboardProvider,
	)
	if err != nil {
		span.SetStatus(codes.Error, "dashboard frames changed")
		return "", err
	}

	span.SetAttributes(attribute.String("dashboard", dashboard))
	return dashboard, nil
}
