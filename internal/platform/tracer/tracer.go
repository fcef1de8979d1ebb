// Package tracer provides a small tracing abstraction so enforcement code can
// emit spans without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashToken returns a short SHA-256 fingerprint of a confirmation token so
// spans can be correlated without carrying the bearer secret.
func HashToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanCheck       = "enforcement.check"
	SpanConfirm     = "enforcement.confirm"
	SpanEvaluate    = "enforcement.rules.evaluate"
	SpanAuditAppend = "enforcement.audit.append"
)

// Attribute keys.
const (
	AttrTenantID     = "tenant.id"
	AttrActionType   = "action.type"
	AttrEntityID     = "action.entity_id"
	AttrMode         = "decision.mode"
	AttrAllowed      = "decision.allowed"
	AttrReason       = "decision.reason"
	AttrMatchedRules = "decision.matched_rules"
	AttrTokenHash    = "token.hash"
	AttrKillSwitch   = "kill_switch.enabled"
)

// Event names.
const (
	EventTokenIssued   = "token.issued"
	EventTokenConsumed = "token.consumed"
	EventAuditDegraded = "audit.degraded"
)
