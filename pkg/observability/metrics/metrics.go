/*
 * Copyright 2024 The Previewd Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics implements prometheus metrics and exposes the metrics HTTP handler
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricNamespace    = "previewd"
	cacheSubsystem     = "cache"
	renderSubsystem    = "render"
	frontendSubsystem  = "frontend"
	admissionSubsystem = "admission"
)

// Default histogram buckets
var defaultBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 10, 20}

// BuildInfo is a Gauge representing the binary build information of the running server instance
var BuildInfo *prometheus.GaugeVec

// FrontendRequestStatus is a Counter of front end requests that have been processed with their status
var FrontendRequestStatus *prometheus.CounterVec

// FrontendRequestDuration is a histogram that tracks the time it takes to process a request
var FrontendRequestDuration *prometheus.HistogramVec

// CacheObjectOperations is a Counter of operations (in # of objects) performed on the cache
var CacheObjectOperations *prometheus.CounterVec

// CacheByteOperations is a Counter of operations (in # of bytes) performed on the cache
var CacheByteOperations *prometheus.CounterVec

// CacheEvents is a Counter of events (evictions, errors, rejections) observed on the cache
var CacheEvents *prometheus.CounterVec

// CacheBytes is a Gauge representing the number of bytes in the durable cache tier
var CacheBytes *prometheus.GaugeVec

// CacheObjects is a Gauge representing the number of objects in the durable cache tier
var CacheObjects *prometheus.GaugeVec

// CacheMaxBytes is a Gauge for the cache's byte ceiling that triggers forced eviction
var CacheMaxBytes *prometheus.GaugeVec

// RendersInFlight is a Gauge representing the number of render operations currently admitted
var RendersInFlight prometheus.Gauge

// RenderDuration is a Histogram of time in seconds spent in the render collaborator
var RenderDuration *prometheus.HistogramVec

// AdmissionRejections is a Counter of requests denied by the admission controller
var AdmissionRejections prometheus.Counter

func init() {

	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: "build",
			Name:      "info",
			Help: "A metric with a constant '1' value labeled by version, " +
				"revision, and goversion from which previewd was built.",
		},
		[]string{"goversion", "revision", "version"},
	)

	FrontendRequestStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_total",
			Help:      "Count of front end requests handled by previewd",
		},
		[]string{"path", "http_status", "cache_status"},
	)

	FrontendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_duration_seconds",
			Help:      "Histogram of front end request durations handled by previewd",
			Buckets:   defaultBuckets,
		},
		[]string{"path", "http_status", "cache_status"},
	)

	CacheObjectOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_objects_total",
			Help:      "Count of objects upon which cache operations occurred",
		},
		[]string{"cache", "provider", "operation", "status"},
	)

	CacheByteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_bytes_total",
			Help:      "Count of bytes upon which cache operations occurred",
		},
		[]string{"cache", "provider", "operation", "status"},
	)

	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "events_total",
			Help:      "Count of events that occurred on the cache",
		},
		[]string{"cache", "provider", "event", "reason"},
	)

	CacheBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "used_bytes",
			Help:      "Number of bytes in the durable cache tier",
		},
		[]string{"cache", "provider"},
	)

	CacheObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "used_objects",
			Help:      "Number of objects in the durable cache tier",
		},
		[]string{"cache", "provider"},
	)

	CacheMaxBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "max_bytes",
			Help:      "Byte ceiling that triggers forced eviction on the cache",
		},
		[]string{"cache", "provider"},
	)

	RendersInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: renderSubsystem,
			Name:      "in_flight",
			Help:      "Number of render operations currently admitted",
		},
	)

	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: renderSubsystem,
			Name:      "duration_seconds",
			Help:      "Histogram of time in seconds spent in the render collaborator",
			Buckets:   defaultBuckets,
		},
		[]string{"status"},
	)

	AdmissionRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: admissionSubsystem,
			Name:      "rejections_total",
			Help:      "Count of requests denied by the admission controller",
		},
	)

	prometheus.MustRegister(
		BuildInfo,
		FrontendRequestStatus,
		FrontendRequestDuration,
		CacheObjectOperations,
		CacheByteOperations,
		CacheEvents,
		CacheBytes,
		CacheObjects,
		CacheMaxBytes,
		RendersInFlight,
		RenderDuration,
		AdmissionRejections,
	)
}

// Handler returns the HTTP handler for the prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCacheOperation increments counters as cache operations occur
func ObserveCacheOperation(cache, provider, operation, status string, bytes float64) {
	CacheObjectOperations.WithLabelValues(cache, provider, operation, status).Inc()
	if bytes > 0 {
		CacheByteOperations.WithLabelValues(cache, provider, operation, status).Add(bytes)
	}
}

// ObserveCacheEvent increments counters as cache events occur
func ObserveCacheEvent(cache, provider, event, reason string) {
	CacheEvents.WithLabelValues(cache, provider, event, reason).Inc()
}

// ObserveCacheSizeChange updates gauges as the durable tier's size changes
func ObserveCacheSizeChange(cache, provider string, byteCount, objectCount int64) {
	CacheBytes.WithLabelValues(cache, provider).Set(float64(byteCount))
	CacheObjects.WithLabelValues(cache, provider).Set(float64(objectCount))
}
