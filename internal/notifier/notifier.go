package notifier

import (
	"bytes"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
	"order-intake-service/internal/document"
	"order-intake-service/internal/entity"
	"os"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// NotifyError is a failed delivery. The order is already in the log when
// this happens, so delivery should be retried, not the order resubmitted.
type NotifyError struct {
	OrderID string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify order %s: %v", e.OrderID, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Operator is both the sender and the carbon-copy recipient.
	Operator string
	Subject  string
	ShopName string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier emails the order document to the customer with a copy to
// the operator mailbox, over implicit TLS.
type SMTPNotifier struct {
	cfg       Config
	newSender func() (sender, error)
}

func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg}
	n.newSender = n.dial
	return n
}

func (n *SMTPNotifier) dial() (sender, error) {
	return mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTimeout(n.cfg.Timeout),
	)
}

// Message composes the confirmation email for order.
func (n *SMTPNotifier) Message(order *entity.Order, doc *document.Document) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.Operator); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := m.To(order.Customer.Correo); err != nil {
		return nil, fmt.Errorf("customer address: %w", err)
	}
	if err := m.Cc(n.cfg.Operator); err != nil {
		return nil, fmt.Errorf("operator address: %w", err)
	}
	m.Subject(n.cfg.Subject)
	m.SetBodyString(mail.TypeTextPlain, Body(order.Customer.Nombre, n.cfg.ShopName))
	m.AttachReadSeeker(doc.Filename, bytes.NewReader(doc.Content), mail.WithFileContentType("application/pdf"))
	return m, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, order *entity.Order, doc *document.Document) error {
	m, err := n.Message(order, doc)
	if err != nil {
		return &NotifyError{OrderID: order.ID, Err: err}
	}

	client, err := n.newSender()
	if err != nil {
		return &NotifyError{OrderID: order.ID, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		logger.Error().Err(err).Msgf("Error sending order %s to %s", order.ID, order.Customer.Correo)
		return &NotifyError{OrderID: order.ID, Err: err}
	}

	logger.Info().Str("order_id", order.ID).Msgf("Order document sent to %s", order.Customer.Correo)
	return nil
}

func Body(nombre, shop string) string {
	return fmt.Sprintf("Hola %s,\n\nAdjunto encontrarás el PDF de tu pedido realizado.\n\nGracias por confiar en %s.\n", nombre, shop)
}
