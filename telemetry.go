package windowpager

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zhangzqs/windowpager-go"

var (
	tracer = otel.Tracer(instrumentationName)

	pagesLoaded        metric.Int64Counter
	loadFailures       metric.Int64Counter
	loadsCancelled     metric.Int64Counter
	pagesEvicted       metric.Int64Counter
	snapshotsPublished metric.Int64Counter
	loadDuration       metric.Float64Histogram
)

func init() {
	meter := otel.Meter(instrumentationName)

	var err error

	pagesLoaded, err = meter.Int64Counter(
		"windowpager.pages.loaded",
		metric.WithDescription("Number of pages merged into a window"),
	)
	if err != nil {
		log.Fatalf("failed to create pages.loaded counter: %v", err)
	}

	loadFailures, err = meter.Int64Counter(
		"windowpager.load.failures",
		metric.WithDescription("Number of page loads that failed"),
	)
	if err != nil {
		log.Fatalf("failed to create load.failures counter: %v", err)
	}

	loadsCancelled, err = meter.Int64Counter(
		"windowpager.loads.cancelled",
		metric.WithDescription("Number of in-flight page loads cancelled by eviction, invalidation or destroy"),
	)
	if err != nil {
		log.Fatalf("failed to create loads.cancelled counter: %v", err)
	}

	pagesEvicted, err = meter.Int64Counter(
		"windowpager.pages.evicted",
		metric.WithDescription("Number of pages evicted from a window"),
	)
	if err != nil {
		log.Fatalf("failed to create pages.evicted counter: %v", err)
	}

	snapshotsPublished, err = meter.Int64Counter(
		"windowpager.snapshots.published",
		metric.WithDescription("Number of window snapshots published to subscribers"),
	)
	if err != nil {
		log.Fatalf("failed to create snapshots.published counter: %v", err)
	}

	loadDuration, err = meter.Float64Histogram(
		"windowpager.load.duration",
		metric.WithDescription("Duration of data source calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Fatalf("failed to create load.duration histogram: %v", err)
	}
}

func pagerAttr(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("pager", kind))
}

func recordLoadDuration(kind string, started time.Time) {
	loadDuration.Record(context.Background(), float64(time.Since(started).Microseconds())/1000, pagerAttr(kind))
}

func count(c metric.Int64Counter, kind string, n int) {
	if n > 0 {
		c.Add(context.Background(), int64(n), pagerAttr(kind))
	}
}
