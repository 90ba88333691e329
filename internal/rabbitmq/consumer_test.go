package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(ctx context.Context, t *testing.T) *amqp.Channel {
	t.Helper()
	uri, cleanup := amqpURI(ctx, t)
	t.Cleanup(cleanup)

	conn, err := Connect(uri, 5, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestConsumerMessage_HandleMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ch := openChannel(ctx, t)

	queueName := "consumer-test"
	_, err := ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		received []string
	)
	wg.Add(2)
	handler := func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	}
	require.NoError(t, ConsumerMessage(ctx, newNoopLogger(), ch, queueName, handler))

	for _, msg := range []string{"hello", "world"} {
		require.NoError(t, ch.Publish("", queueName, false, false, amqp.Publishing{Body: []byte(msg)}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for messages to be processed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, received)
}

func TestConsumerMessage_HandlerErrorRequeuesOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ch := openChannel(ctx, t)

	queueName := "nack-test"
	_, err := ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	attempts := make(chan struct{}, 16)
	handler := func(_ []byte) error {
		select {
		case attempts <- struct{}{}:
		default:
		}
		return errors.New("fail")
	}
	require.NoError(t, ConsumerMessage(ctx, newNoopLogger(), ch, queueName, handler))
	require.NoError(t, ch.Publish("", queueName, false, false, amqp.Publishing{Body: []byte("bad")}))

	// Сообщение возвращается в очередь и доставляется повторно.
	for i := 0; i < 2; i++ {
		select {
		case <-attempts:
		case <-time.After(10 * time.Second):
			t.Fatal("message was not redelivered after nack")
		}
	}

	// Вторая неудача отбрасывает сообщение.
	select {
	case <-attempts:
		t.Fatal("message was redelivered more than once")
	case <-time.After(2 * time.Second):
	}
}
