package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"order-intake-service/internal/catalog"
	"order-intake-service/internal/document"
	"order-intake-service/internal/entity"
	"order-intake-service/internal/metrics"
	"order-intake-service/internal/repository"
	"order-intake-service/internal/session"
	"os"
	"strings"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type DocumentRenderer interface {
	Render(order *entity.Order) (*document.Document, error)
}

type DocumentStore interface {
	Save(doc *document.Document) (string, error)
}

type Notifier interface {
	Send(ctx context.Context, order *entity.Order, doc *document.Document) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

const (
	SubmitCompleted    = metrics.StatusCompleted
	SubmitNotifyFailed = metrics.StatusNotifyFailed
)

// SubmitResult tells a fully delivered order apart from one that is logged
// but whose email failed.
type SubmitResult struct {
	Order       *entity.Order `json:"order"`
	Status      string        `json:"status"`
	Document    string        `json:"document"`
	NotifyError string        `json:"notify_error,omitempty"`
}

// NotifyRetry is the payload of a queued delivery retry.
type NotifyRetry struct {
	Order     *entity.Order `json:"order"`
	Attempt   int           `json:"attempt"`
	NotBefore time.Time     `json:"not_before"`
}

type Dependencies struct {
	Catalog   *catalog.Catalog
	Pricing   *PricingEngine
	Sessions  session.Store
	OrderLog  repository.OrderLog
	Renderer  DocumentRenderer
	Documents DocumentStore
	Notifier  Notifier
	Metrics   *metrics.SubmissionMetrics

	// Optional.
	Idempotency session.IdempotencyGuard
	EventWriter MessageWriter
	RetryWriter MessageWriter

	NotifyTimeout     time.Duration
	MaxNotifyAttempts int
	RetryBackoff      time.Duration
}

// OrderService runs cart operations for a session and the submission
// pipeline: validate, render, append to the log, then email.
type OrderService struct {
	Dependencies
	now func() time.Time
}

func NewOrderService(deps Dependencies) *OrderService {
	if deps.NotifyTimeout <= 0 {
		deps.NotifyTimeout = 30 * time.Second
	}
	if deps.MaxNotifyAttempts <= 0 {
		deps.MaxNotifyAttempts = 5
	}
	if deps.RetryBackoff <= 0 {
		deps.RetryBackoff = time.Minute
	}
	return &OrderService{Dependencies: deps, now: time.Now}
}

func (s *OrderService) CreateCart(ctx context.Context) (string, error) {
	id, err := s.Sessions.Create(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating cart session")
		return "", err
	}
	s.Metrics.CartItems.WithLabelValues("create").Inc()
	return id, nil
}

func (s *OrderService) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	items, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return RestoreCart(s.Pricing, items), nil
}

// AddItem prices quantity units of the named product and appends a new
// line to the session cart.
func (s *OrderService) AddItem(ctx context.Context, sessionID, productName string, quantity int) (*Cart, error) {
	product, ok := s.Catalog.Get(productName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productName)
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := cart.Add(product, quantity); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, sessionID, cart.Items()); err != nil {
		logger.Error().Err(err).Msgf("Error saving cart %s", sessionID)
		return nil, err
	}

	s.Metrics.CartItems.WithLabelValues("add").Inc()
	return cart, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, sessionID string, index int) (*Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveAt(index); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, sessionID, cart.Items()); err != nil {
		logger.Error().Err(err).Msgf("Error saving cart %s", sessionID)
		return nil, err
	}

	s.Metrics.CartItems.WithLabelValues("remove").Inc()
	return cart, nil
}

func (s *OrderService) ClearCart(ctx context.Context, sessionID string) (*Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.Sessions.Save(ctx, sessionID, nil); err != nil {
		logger.Error().Err(err).Msgf("Error saving cart %s", sessionID)
		return nil, err
	}

	s.Metrics.CartItems.WithLabelValues("clear").Inc()
	return cart, nil
}

// OrderHistory lists the logged orders of one customer.
func (s *OrderService) OrderHistory(ctx context.Context, cedula string) ([]entity.OrderLogEntry, error) {
	entries, err := s.OrderLog.EntriesByCedula(ctx, strings.TrimSpace(cedula))
	if err != nil {
		logger.Error().Err(err).Msgf("Error reading orders of %s", cedula)
		return nil, err
	}
	if entries == nil {
		entries = []entity.OrderLogEntry{}
	}
	return entries, nil
}

// Submit turns the session cart into an order. Validation and rendering
// happen before anything is written. Once the order log append succeeds
// the order is committed: a failed email only downgrades the result to
// SubmitNotifyFailed and queues a delivery retry.
func (s *OrderService) Submit(ctx context.Context, sessionID string, customer entity.Customer, idempotentKey string) (*SubmitResult, error) {
	start := time.Now()
	defer func() {
		s.Metrics.LatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	}()

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	order, err := BuildOrder(customer, cart, s.now())
	if err != nil {
		s.count(metrics.StatusRejected)
		return nil, err
	}

	doc, err := s.Renderer.Render(order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error rendering order %s", order.ID)
		s.count(metrics.StatusRenderFailed)
		return nil, err
	}

	if idempotentKey != "" && s.Idempotency != nil {
		claimed, err := s.Idempotency.Claim(ctx, idempotentKey)
		if err != nil {
			logger.Error().Err(err).Msg("Error checking idempotent key")
			return nil, err
		}
		if !claimed {
			s.count(metrics.StatusDuplicate)
			return nil, ErrDuplicateSubmission
		}
	}

	if err := s.OrderLog.Append(ctx, order); err != nil {
		logger.Error().Err(err).Msgf("Error appending order %s", order.ID)
		if idempotentKey != "" && s.Idempotency != nil {
			if rerr := s.Idempotency.Release(ctx, idempotentKey); rerr != nil {
				logger.Error().Err(rerr).Msg("Error releasing idempotent key")
			}
		}
		s.count(metrics.StatusPersistFailed)
		return nil, err
	}

	// The order is committed from here on; a caller that goes away must not
	// cut delivery or the retry enqueue short.
	ctx = context.WithoutCancel(ctx)
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		logger.Warn().Err(err).Msgf("Error discarding cart %s", sessionID)
	}
	if s.Documents != nil {
		if _, err := s.Documents.Save(doc); err != nil {
			logger.Error().Err(err).Msgf("Error storing document %s", doc.Filename)
		}
	}
	if err := s.publishOrderEvent(ctx, order, "submitted"); err != nil {
		logger.Error().Err(err).Msgf("Error publishing order %s", order.ID)
	}

	result := &SubmitResult{Order: order, Status: SubmitCompleted, Document: doc.Filename}
	if err := s.notify(ctx, order, doc); err != nil {
		result.Status = SubmitNotifyFailed
		result.NotifyError = err.Error()
		if qerr := s.enqueueRetry(ctx, order, 1); qerr != nil {
			logger.Error().Err(qerr).Msgf("Error queueing delivery retry for order %s", order.ID)
		}
	}

	s.count(result.Status)
	logger.Info().Str("order_id", order.ID).Str("status", result.Status).Msgf("Order submitted by %s", order.Customer.Cedula)
	return result, nil
}

// RetryNotification re-renders a committed order and tries the email
// again. While attempts remain a failed try is queued once more.
func (s *OrderService) RetryNotification(ctx context.Context, retry NotifyRetry) error {
	if retry.Order == nil {
		return errors.New("retry without order")
	}

	doc, err := s.Renderer.Render(retry.Order)
	if err != nil {
		s.count(metrics.StatusRetryFailed)
		return err
	}

	if err := s.notify(ctx, retry.Order, doc); err != nil {
		s.count(metrics.StatusRetryFailed)
		if retry.Attempt < s.MaxNotifyAttempts {
			if qerr := s.enqueueRetry(ctx, retry.Order, retry.Attempt+1); qerr != nil {
				logger.Error().Err(qerr).Msgf("Error queueing delivery retry for order %s", retry.Order.ID)
			}
		} else {
			logger.Error().Msgf("Giving up on delivery of order %s after %d attempts", retry.Order.ID, retry.Attempt)
		}
		return err
	}

	s.count(metrics.StatusRetryDelivered)
	return nil
}

func (s *OrderService) notify(ctx context.Context, order *entity.Order, doc *document.Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.NotifyTimeout)
	defer cancel()
	return s.Notifier.Send(ctx, order, doc)
}

func (s *OrderService) enqueueRetry(ctx context.Context, order *entity.Order, attempt int) error {
	if s.RetryWriter == nil {
		return errors.New("no retry queue configured")
	}

	payload, err := json.Marshal(NotifyRetry{
		Order:     order,
		Attempt:   attempt,
		NotBefore: s.now().Add(time.Duration(attempt) * s.RetryBackoff),
	})
	if err != nil {
		return err
	}

	return s.RetryWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("order.notify_retry.%s", order.ID)),
		Value: payload,
	})
}

func (s *OrderService) publishOrderEvent(ctx context.Context, order *entity.Order, key string) error {
	if s.EventWriter == nil {
		return nil
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	// order.submitted.<id>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%s", key, order.ID)),
		Value: orderJSON,
	}

	return s.EventWriter.WriteMessages(ctx, msg)
}

func (s *OrderService) count(status string) {
	s.Metrics.Submissions.WithLabelValues(status).Inc()
}
