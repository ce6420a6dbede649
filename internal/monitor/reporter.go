// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package monitor reports internal anomalies to the operations channel.
//
// The authorization engine never fails open on malformed authorization
// state; it fails closed and reports. The Reporter interface is that
// reporting seam: the production implementation writes a structured log
// line and bumps a Prometheus counter, tests inject a counting fake.
package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gatewarden/gatewarden/internal/logging"
)

// Level is the severity of a reported anomaly.
type Level string

// Report severities, lowest to highest.
const (
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Reporter receives anomaly reports from the authorization engine.
// Implementations must be safe for concurrent use and must not block:
// reports happen on request paths.
type Reporter interface {
	Report(message string, level Level, fields map[string]string)
}

var reportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gatewarden",
		Subsystem: "monitor",
		Name:      "reports_total",
		Help:      "Total anomaly reports by severity.",
	},
	[]string{"level"},
)

// LogReporter writes reports to the structured log and counts them.
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter creates the production reporter.
func NewLogReporter() *LogReporter {
	return &LogReporter{logger: logging.WithComponent("monitor")}
}

// NewLogReporterWithLogger creates a reporter over a specific logger,
// used by tests that capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLogReporterWithLogger(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the anomaly at a level matching its severity.
func (r *LogReporter) Report(message string, level Level, fields map[string]string) {
	reportsTotal.WithLabelValues(string(level)).Inc()

	var event *zerolog.Event
	switch level {
	case LevelWarning:
		event = r.logger.Warn()
	default:
		event = r.logger.Error()
	}

	event = event.Str("severity", string(level))
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg(message)
}

// Nop is a Reporter that discards all reports.
type Nop struct{}

// Report discards the report.
func (Nop) Report(string, Level, map[string]string) {}

// Recorded is one captured report, for test assertions.
type Recorded struct {
	Message string
	Level   Level
	Fields  map[string]string
}

// Recorder is a Reporter that captures reports for tests.
type Recorder struct {
	mu      sync.Mutex
	reports []Recorded
}

// Report captures the report.
func (r *Recorder) Report(message string, level Level, fields map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Recorded{Message: message, Level: level, Fields: fields})
}

// Reports returns a copy of the captured reports.
func (r *Recorder) Reports() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.reports))
	copy(out, r.reports)
	return out
}

// Count returns the number of captured reports.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}
