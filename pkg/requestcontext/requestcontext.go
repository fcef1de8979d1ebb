// Package requestcontext carries request-scoped values (request id, caller
// identity) through context.Context without import cycles between
// middleware, handlers and services.
package requestcontext

import (
	"context"

	id "trustgate/pkg/domain"
)

type (
	requestIDKey struct{}
	tenantIDKey  struct{}
	actorKey     struct{}
	clientIPKey  struct{}
)

// WithRequestID stores the correlation id for the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTenantID stores the authenticated tenant.
func WithTenantID(ctx context.Context, tenantID id.TenantID) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

// TenantID returns the authenticated tenant, or an empty TenantID.
func TenantID(ctx context.Context) id.TenantID {
	if v, ok := ctx.Value(tenantIDKey{}).(id.TenantID); ok {
		return v
	}
	return ""
}

// WithActor stores the authenticated principal used for audit attribution.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the authenticated principal, or "system" outside a request.
func Actor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return "system"
}

// WithClientIP stores the caller address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller address, or "".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}
