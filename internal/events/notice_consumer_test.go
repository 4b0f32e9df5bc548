package events

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"momo-proxy-backend/internal/service"
)

type MockNoticeHandler struct {
	mock.Mock
}

func (m *MockNoticeHandler) HandleNotice(ctx context.Context, raw string) (*service.NoticeResult, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NoticeResult), args.Error(1)
}

// recorder stands in for the broker channel behind a delivery.
type recorder struct {
	acked   int
	nacked  int
	requeue bool
}

func (r *recorder) Ack(tag uint64, multiple bool) error {
	r.acked++
	return nil
}

func (r *recorder) Nack(tag uint64, multiple, requeue bool) error {
	r.nacked++
	r.requeue = requeue
	return nil
}

func (r *recorder) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func delivery(body string, redelivered bool) (amqp.Delivery, *recorder) {
	rec := &recorder{}
	return amqp.Delivery{Acknowledger: rec, DeliveryTag: 1, Body: []byte(body), Redelivered: redelivered}, rec
}

func TestDeliver(t *testing.T) {
	ctx := context.Background()

	t.Run("Envelope is unwrapped and acked", func(t *testing.T) {
		handler := new(MockNoticeHandler)
		handler.On("HandleNotice", ctx, "Depot vers 224600000001 reussi. Montant 5000").
			Return(&service.NoticeResult{Finalized: true}, nil).Once()

		msg, rec := delivery(`{"body":"Depot vers 224600000001 reussi. Montant 5000"}`, false)
		deliver(ctx, msg, handler)

		assert.Equal(t, 1, rec.acked)
		assert.Equal(t, 0, rec.nacked)
		handler.AssertExpectations(t)
	})

	t.Run("Empty notice is acked without handling", func(t *testing.T) {
		handler := new(MockNoticeHandler)
		msg, rec := delivery("   ", false)
		deliver(ctx, msg, handler)

		assert.Equal(t, 1, rec.acked)
		handler.AssertNotCalled(t, "HandleNotice", mock.Anything, mock.Anything)
	})

	t.Run("First failure is requeued", func(t *testing.T) {
		handler := new(MockNoticeHandler)
		handler.On("HandleNotice", ctx, "text").Return(nil, errors.New("db down")).Once()

		msg, rec := delivery("text", false)
		deliver(ctx, msg, handler)

		assert.Equal(t, 1, rec.nacked)
		assert.True(t, rec.requeue)
	})

	t.Run("Redelivered failure is dropped", func(t *testing.T) {
		handler := new(MockNoticeHandler)
		handler.On("HandleNotice", ctx, "text").Return(nil, errors.New("db down")).Once()

		msg, rec := delivery("text", true)
		deliver(ctx, msg, handler)

		assert.Equal(t, 1, rec.nacked)
		assert.False(t, rec.requeue)
	})
}

func TestConsume(t *testing.T) {
	t.Run("Stops on context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		msgs := make(chan amqp.Delivery)
		done := make(chan error, 1)
		go func() { done <- consume(ctx, msgs, new(MockNoticeHandler)) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop")
		}
	})

	t.Run("Closed channel is an error", func(t *testing.T) {
		msgs := make(chan amqp.Delivery)
		close(msgs)
		assert.Error(t, consume(context.Background(), msgs, new(MockNoticeHandler)))
	})
}
