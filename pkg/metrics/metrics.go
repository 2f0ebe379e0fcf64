// Package metrics tracks read progress in a prometheus registry.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/utils"
)

type Metrics struct {
	registry *prometheus.Registry

	records    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	offsets    *prometheus.GaugeVec
	watermarks *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olake_kafka",
			Name:      "records_total",
			Help:      "Records emitted per stream.",
		}, []string{"stream"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olake_kafka",
			Name:      "failures_total",
			Help:      "Read failures by error type.",
		}, []string{"type"}),
		offsets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "olake_kafka",
			Name:      "checkpoint_offset",
			Help:      "Next offset to read per stream partition.",
		}, []string{"stream", "partition"}),
		watermarks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "olake_kafka",
			Name:      "high_watermark",
			Help:      "High watermark captured when the read subscribed.",
		}, []string{"stream", "partition"}),
	}

	m.registry.MustRegister(m.records, m.failures, m.offsets, m.watermarks)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Record(stream string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(stream).Inc()
}

func (m *Metrics) Failure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Offset(stream string, partition int32, offset int64) {
	if m == nil {
		return
	}
	m.offsets.WithLabelValues(stream, strconv.Itoa(int(partition))).Set(float64(offset))
}

func (m *Metrics) Watermarks(watermarks map[string]map[int32]int64) {
	if m == nil {
		return
	}
	for stream, partitions := range watermarks {
		for partition, watermark := range partitions {
			m.watermarks.WithLabelValues(stream, strconv.Itoa(int(partition))).Set(float64(watermark))
		}
	}
}

// Expose serves the registry on /metrics until ctx is done. The port is bound
// before returning, so a port already in use fails the caller.
func (m *Metrics) Expose(ctx context.Context, port int) error {
	if m == nil || port <= 0 {
		return nil
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return utils.ConfigError.Wrap(err, "failed to listen on metrics port %d", port)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnf("metrics server on port %d stopped: %s", port, err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	return nil
}
