package messaging

import (
	"testing"
	"time"

	"github.com/nats-io/stan.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSubscriptionsUseManualAcks(t *testing.T) {
	opts := stan.DefaultSubscriptionOptions
	for _, opt := range queueSubOptions("ticket.issued", "consumers") {
		require.NoError(t, opt(&opts))
	}

	// without manual acks the library acks on handler return and a failed
	// handler silently drops the message
	assert.True(t, opts.ManualAcks)
	assert.Equal(t, 30*time.Second, opts.AckWait)
	assert.Equal(t, 1, opts.MaxInflight)
	assert.Equal(t, "ticket.issued-consumers-durable", opts.DurableName)
}
