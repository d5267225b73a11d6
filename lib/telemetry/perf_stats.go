package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

type PerfStats struct {
	// percent of all cpus over the sampling interval
	CpuPercent  float64
	AllocatedMb int64
	LiveObjects int64
	Goroutines  int64
}

func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("cpu_percent", s.CpuPercent),
		slog.Int64("allocated_mb", s.AllocatedMb),
		slog.Int64("live_objects", s.LiveObjects),
		slog.Int64("goroutines", s.Goroutines),
	)
}

// SamplePerfStats measures cpu usage over interval, an interval of 0
// compares against the last call.
func SamplePerfStats(interval time.Duration) (PerfStats, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := PerfStats{
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		LiveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	usage, err := cpu.Percent(interval, false)
	if err != nil {
		return stats, err
	}
	if len(usage) > 0 {
		stats.CpuPercent = usage[0]
	}
	return stats, nil
}

// RecordPerfStats samples the process once, reporting the result to the
// global meter provider and the log.
func RecordPerfStats(ctx context.Context) {
	meter := otel.Meter("covid19.lib.telemetry")
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	liveObjectsGauge, _ := meter.Int64Gauge("live_objects")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	stats, err := SamplePerfStats(time.Second)
	if err != nil {
		slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
	} else {
		cpuGauge.Record(ctx, stats.CpuPercent)
	}
	memoryGauge.Record(ctx, stats.AllocatedMb)
	liveObjectsGauge.Record(ctx, stats.LiveObjects)
	goroutineGauge.Record(ctx, stats.Goroutines)

	slog.DebugContext(ctx, "perf stats", "stats", stats)
}
