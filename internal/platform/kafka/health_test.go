package kafka

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_ReachableBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	h := NewHealthChecker("127.0.0.1:1, " + ln.Addr().String())

	assert.NoError(t, h.Check(context.Background()))
	assert.Equal(t, "kafka", h.Name())
}

func TestHealthChecker_NotConfigured(t *testing.T) {
	err := NewHealthChecker(" , ").Check(context.Background())
	assert.ErrorContains(t, err, "not configured")
}
