package sanmateo

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("covid19.lib.scrapers.sanmateo")
var meter = otel.Meter("covid19.lib.scrapers.sanmateo")

var driftCounter, _ = meter.Int64Counter("scrape_structural_drift")
var runDuration, _ = meter.Float64Histogram("scrape_duration_seconds")
