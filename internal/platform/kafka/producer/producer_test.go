package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(Config{Brokers: " , "}, nil)
	require.Error(t, err)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, splitBrokers(""))
}

func TestToRecord_CopiesHeaders(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "audit",
		Key:     []byte("acme"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event": "decision_made"},
	})

	assert.Equal(t, "audit", rec.Topic)
	assert.Equal(t, []byte("acme"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event", rec.Headers[0].Key)
	assert.Equal(t, []byte("decision_made"), rec.Headers[0].Value)
}

func TestNewClosedProducerRejectsWrites(t *testing.T) {
	p, err := New(DefaultConfig("localhost:1"), nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.ProduceAsync(&Message{Topic: "audit"}), ErrClosed)
	assert.ErrorIs(t, p.Produce(context.Background(), &Message{Topic: "audit"}), ErrClosed)
	assert.False(t, p.Healthy(context.Background()))
}

func TestNoopProducer(t *testing.T) {
	var p Publisher = NewNoopProducer()
	assert.NoError(t, p.ProduceAsync(&Message{}))
	assert.True(t, p.Healthy(context.Background()))
}
