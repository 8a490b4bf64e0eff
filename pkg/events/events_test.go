package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-storefront/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ calls int }

func (f *failing) Publish(context.Context, string, string, any) error {
	f.calls++
	return errors.New("broker down")
}
func (f *failing) Close() error { return nil }

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.EventsConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)

	p, err = New(config.EventsConfig{Driver: "kafka", Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.IsType(t, &Kafka{}, p)
	assert.NoError(t, p.Close())

	_, err = New(config.EventsConfig{Driver: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestEmitSwallowsErrors(t *testing.T) {
	f := &failing{}
	Emit(context.Background(), f, OrderPaid, "1", nil)
	assert.Equal(t, 1, f.calls)

	Emit(context.Background(), nil, OrderPaid, "1", nil)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	Emit(context.Background(), r, OrderCreated, "a", map[string]int{"id": 1})
	Emit(context.Background(), r, OrderPaid, "a", nil)

	assert.Equal(t, []string{OrderCreated, OrderPaid}, r.Topics())
	assert.Equal(t, "a", r.Messages()[0].Key)
}

func TestKafkaPublishDoesNotWaitForBatch(t *testing.T) {
	k := NewKafka([]string{"127.0.0.1:1"})
	assert.True(t, k.w.Async)
	assert.LessOrEqual(t, k.w.BatchTimeout, 50*time.Millisecond)

	start := time.Now()
	require.NoError(t, k.Publish(context.Background(), OrderPaid, "1", map[string]int{"id": 1}))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
