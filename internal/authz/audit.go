// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Authorization decision audit logging for security monitoring and
// forensic analysis. Events are written asynchronously: the request
// path never blocks on audit I/O, and a full buffer drops events
// (counted) rather than stalling enforcement.
package authz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// AuditEvent captures the complete context of one enforcement decision.
type AuditEvent struct {
	// ID is a unique identifier for this audit event.
	ID string `json:"id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RequestID links the event to an HTTP request, if any.
	RequestID string `json:"request_id,omitempty"`

	// Subject is the principal the decision was made for.
	Subject string `json:"subject"`

	// Level is the enforcement level evaluated.
	Level models.Level `json:"level"`

	// Object is the resource scope checked.
	Object string `json:"object"`

	// Action is the guarded action identifier.
	Action string `json:"action"`

	// Decision is true when access was allowed.
	Decision bool `json:"decision"`

	// Reason carries context for denials ("no matching policy",
	// "unresolved resource").
	Reason string `json:"reason,omitempty"`

	// Duration is how long the decision took, policy fetch included.
	Duration time.Duration `json:"duration_ns"`

	// CacheHit indicates the policy snapshot came from cache.
	CacheHit bool `json:"cache_hit"`

	// IPAddress is the client address, when known.
	IPAddress string `json:"ip_address,omitempty"`

	// Method is the HTTP method, when applicable.
	Method string `json:"method,omitempty"`
}

// AuditLoggerConfig configures the audit logger behavior.
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active.
	Enabled bool

	// LogAllowed controls whether allowed decisions are logged.
	// Set false to log denials only (reduces log volume).
	LogAllowed bool

	// LogDenied controls whether denied decisions are logged.
	LogDenied bool

	// BufferSize is the async buffer capacity. Events are dropped,
	// not blocked on, when the buffer is full.
	BufferSize int
}

// DefaultAuditLoggerConfig returns production defaults.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:    true,
		LogAllowed: true,
		LogDenied:  true,
		BufferSize: 1000,
	}
}

// AuditLogger writes authorization decisions to the structured log
// asynchronously.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates an audit logger. A nil config takes defaults.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}

	return al
}

// LogDecision records a decision asynchronously. Non-blocking: the
// event is dropped if the buffer is full.
func (al *AuditLogger) LogDecision(ctx context.Context, event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}
	if event.Decision && !al.config.LogAllowed {
		return
	}
	if !event.Decision && !al.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	select {
	case al.events <- event:
		RecordAuditEvent(event.Decision)
	default:
		RecordAuditDropped()
		logging.Warn().
			Str("subject", event.Subject).
			Str("action", event.Action).
			Msg("Audit log buffer full, event dropped")
	}
}

func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

// drainEvents flushes whatever is left in the buffer at shutdown.
func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Decision {
		// Denials at warn for visibility.
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "authz_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("subject", event.Subject).
		Str("level", string(event.Level)).
		Str("object", event.Object).
		Str("action", event.Action).
		Bool("decision", event.Decision).
		Dur("duration", event.Duration).
		Bool("cache_hit", event.CacheHit)

	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}
	if event.IPAddress != "" {
		logEvent = logEvent.Str("ip_address", event.IPAddress)
	}
	if event.Method != "" {
		logEvent = logEvent.Str("method", event.Method)
	}

	if event.Decision {
		logEvent.Msg("Authorization allowed")
	} else {
		logEvent.Msg("Authorization denied")
	}
}

// Close stops the audit logger and flushes remaining events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}
	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats returns current audit logger statistics.
func (al *AuditLogger) Stats() AuditLoggerStats {
	if al == nil {
		return AuditLoggerStats{}
	}
	return AuditLoggerStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		LogAllowed: al.config.LogAllowed,
		LogDenied:  al.config.LogDenied,
	}
}

// AuditLoggerStats describes the audit logger's current state.
type AuditLoggerStats struct {
	BufferSize int  `json:"buffer_size"`
	BufferUsed int  `json:"buffer_used"`
	Enabled    bool `json:"enabled"`
	LogAllowed bool `json:"log_allowed"`
	LogDenied  bool `json:"log_denied"`
}
