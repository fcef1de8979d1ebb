package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	id "trustgate/pkg/domain"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTenantID(ctx, id.TenantID("acme"))
	ctx = WithActor(ctx, "ops@acme")
	ctx = WithClientIP(ctx, "10.0.0.1")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, id.TenantID("acme"), TenantID(ctx))
	assert.Equal(t, "ops@acme", Actor(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, RequestID(ctx))
	assert.True(t, TenantID(ctx).IsNil())
	assert.Equal(t, "system", Actor(ctx))
	assert.Empty(t, ClientIP(ctx))
}
