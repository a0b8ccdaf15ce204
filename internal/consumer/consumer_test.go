package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-intake-service/internal/document"
	"order-intake-service/internal/entity"
	"order-intake-service/internal/metrics"
	"order-intake-service/internal/service"
	"order-intake-service/internal/session"
	"sync"
	"testing"
	"time"
)

type countingNotifier struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (n *countingNotifier) Send(ctx context.Context, order *entity.Order, doc *document.Document) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.err
}

func (n *countingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type fakeReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type nopLog struct{}

func (nopLog) Append(ctx context.Context, order *entity.Order) error { return nil }

func (nopLog) EntriesByCedula(ctx context.Context, cedula string) ([]entity.OrderLogEntry, error) {
	return nil, nil
}

func newService(n *countingNotifier) (*service.OrderService, *metrics.SubmissionMetrics) {
	m := metrics.NewSubmissionMetrics(prometheus.NewRegistry())
	return service.NewOrderService(service.Dependencies{
		Pricing:           service.NewPricingEngine(service.PricingTiered),
		Sessions:          session.NewMemoryStore(),
		OrderLog:          nopLog{},
		Renderer:          document.NewRenderer(document.PricedLayout, nil),
		Notifier:          n,
		Metrics:           m,
		MaxNotifyAttempts: 3,
	}), m
}

func retryMessage(t *testing.T, attempt int, notBefore time.Time) kafka.Message {
	t.Helper()
	order := &entity.Order{
		ID:          "o-1",
		Customer:    entity.Customer{Nombre: "Juan Pérez", Cedula: "1102223344", Telefono: "0999999999", Correo: "juan@example.com"},
		Items:       []entity.LineItem{{Product: "Filtro de aceite", Quantity: 1, UnitPrice: decimal.NewFromInt(5), Subtotal: decimal.NewFromInt(5)}},
		SubmittedAt: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		Total:       decimal.NewFromInt(5),
	}
	value, err := json.Marshal(service.NotifyRetry{Order: order, Attempt: attempt, NotBefore: notBefore})
	require.NoError(t, err)
	return kafka.Message{Key: []byte("order.notify_retry.o-1"), Value: value}
}

func TestProcessMessage_DeliversRetry(t *testing.T) {
	n := &countingNotifier{}
	svc, m := newService(n)
	c := &Consumer{orderSvc: svc}

	c.processMessage(context.Background(), retryMessage(t, 1, time.Now().Add(-time.Second)))

	assert.Equal(t, 1, n.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.StatusRetryDelivered)))
}

func TestProcessMessage_FailedRetryIsCounted(t *testing.T) {
	n := &countingNotifier{err: errors.New("smtp unreachable")}
	svc, m := newService(n)
	c := &Consumer{orderSvc: svc}

	c.processMessage(context.Background(), retryMessage(t, 3, time.Time{}))

	assert.Equal(t, 1, n.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.StatusRetryFailed)))
}

func TestProcessMessage_IgnoresUnknownAndMalformed(t *testing.T) {
	n := &countingNotifier{}
	svc, _ := newService(n)
	c := &Consumer{orderSvc: svc}
	ctx := context.Background()

	c.processMessage(ctx, kafka.Message{Key: []byte("order.submitted.o-1"), Value: []byte(`{}`)})
	c.processMessage(ctx, kafka.Message{Key: []byte("garbage"), Value: []byte(`{}`)})
	c.processMessage(ctx, kafka.Message{Key: []byte("order.notify_retry.o-1"), Value: []byte(`not json`)})

	assert.Equal(t, 0, n.Calls())
}

func TestProcessMessage_StopsWaitingOnCancel(t *testing.T) {
	n := &countingNotifier{}
	svc, _ := newService(n)
	c := &Consumer{orderSvc: svc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.processMessage(ctx, retryMessage(t, 1, time.Now().Add(time.Hour)))

	assert.Equal(t, 0, n.Calls())
}

func TestStartKafkaConsumer(t *testing.T) {
	n := &countingNotifier{}
	svc, _ := newService(n)
	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	c := &Consumer{orderSvc: svc, reader: reader}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.StartKafkaConsumer(ctx)
		close(done)
	}()

	reader.msgs <- retryMessage(t, 1, time.Time{})
	require.Eventually(t, func() bool { return n.Calls() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.True(t, reader.closed)
}

func TestWaitUntil(t *testing.T) {
	assert.True(t, waitUntil(context.Background(), time.Now().Add(-time.Minute)))
	assert.True(t, waitUntil(context.Background(), time.Now().Add(5*time.Millisecond)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, waitUntil(ctx, time.Now().Add(time.Hour)))
}
