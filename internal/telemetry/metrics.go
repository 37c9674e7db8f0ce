package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgviz"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Directory API metrics
	DirectoryRequestsTotal   metric.Int64Counter
	DirectoryErrorsTotal     metric.Int64Counter
	DirectoryThrottlesTotal  metric.Int64Counter
	DirectoryRetriesTotal    metric.Int64Counter
	DirectoryRequestDuration metric.Float64Histogram

	// Organization metrics
	NodesDiscoveredTotal metric.Int64Counter
	AccountsPrunedTotal  metric.Int64Counter

	// Snapshot store metrics
	SnapshotsSavedTotal   metric.Int64Counter
	SnapshotPayloadBytes  metric.Int64Histogram
	SnapshotChecksumFails metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Directory API metrics
	m.DirectoryRequestsTotal, _ = meter.Int64Counter(
		"orgviz.directory.requests.total",
		metric.WithDescription("Total number of organization API requests"),
		metric.WithUnit("{request}"),
	)

	m.DirectoryErrorsTotal, _ = meter.Int64Counter(
		"orgviz.directory.errors.total",
		metric.WithDescription("Total number of organization API requests that failed after retries"),
		metric.WithUnit("{error}"),
	)

	m.DirectoryThrottlesTotal, _ = meter.Int64Counter(
		"orgviz.directory.throttles.total",
		metric.WithDescription("Total number of throttled organization API responses"),
		metric.WithUnit("{throttle}"),
	)

	m.DirectoryRetriesTotal, _ = meter.Int64Counter(
		"orgviz.directory.retries.total",
		metric.WithDescription("Total number of organization API request retries"),
		metric.WithUnit("{retry}"),
	)

	m.DirectoryRequestDuration, _ = meter.Float64Histogram(
		"orgviz.directory.request.duration",
		metric.WithDescription("Duration of organization API requests including retries"),
		metric.WithUnit("ms"),
	)

	// Organization metrics
	m.NodesDiscoveredTotal, _ = meter.Int64Counter(
		"orgviz.nodes.discovered.total",
		metric.WithDescription("Total number of organization nodes discovered"),
		metric.WithUnit("{node}"),
	)

	m.AccountsPrunedTotal, _ = meter.Int64Counter(
		"orgviz.accounts.pruned.total",
		metric.WithDescription("Total number of account vertices removed for unit level views"),
		metric.WithUnit("{node}"),
	)

	// Snapshot store metrics
	m.SnapshotsSavedTotal, _ = meter.Int64Counter(
		"orgviz.snapshots.saved.total",
		metric.WithDescription("Total number of organization snapshots saved"),
		metric.WithUnit("{snapshot}"),
	)

	m.SnapshotPayloadBytes, _ = meter.Int64Histogram(
		"orgviz.snapshots.payload.size",
		metric.WithDescription("Compressed size of saved snapshot payloads"),
		metric.WithUnit("By"),
	)

	m.SnapshotChecksumFails, _ = meter.Int64Counter(
		"orgviz.snapshots.checksum_failures.total",
		metric.WithDescription("Total number of snapshots rejected because of a checksum mismatch"),
		metric.WithUnit("{snapshot}"),
	)

	return m
}
