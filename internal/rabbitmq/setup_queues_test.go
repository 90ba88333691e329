package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()
	require.Len(t, queues, 2)

	routing := map[string]string{}
	for _, q := range queues {
		_, dup := routing[q.QueueName]
		assert.Falsef(t, dup, "duplicate queue name: %s", q.QueueName)
		routing[q.QueueName] = q.RoutingKey
	}
	assert.Equal(t, RoutingVerification, routing["notifications.verification"])
	assert.Equal(t, RoutingLicense, routing["notifications.license"])
}
