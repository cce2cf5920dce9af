package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "marketquotes/internal/domain/entity/quotes"
	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const DefaultQuotesExchange = "marketdata.quotes"

var errEmptyExchange = errors.New("exchange name cannot be empty")

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QuoteMessage is the body of every published message.
type QuoteMessage struct {
	RunID  uuid.UUID          `json:"run_id"`
	Record domain.QuoteRecord `json:"record"`
}

// Publisher fans quote records out to a durable fanout exchange.
type Publisher struct {
	channel  Channel
	conn     *amqp.Connection
	exchange string
	logger   *logrus.Entry
	now      func() time.Time
	mu       sync.Mutex
}

var _ interfaces.QuotePublisher = (*Publisher)(nil)

// Dial connects to url and returns a publisher owning the connection.
func Dial(url, exchange string, logger *logrus.Entry) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares exchange on ch. The channel is closed if the
// declaration fails.
func NewPublisher(ch Channel, exchange string, logger *logrus.Entry) (*Publisher, error) {
	if exchange == "" {
		ch.Close()
		return nil, errEmptyExchange
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.WithField("component", "quote_publisher"),
		now:      time.Now,
	}, nil
}

// PublishQuotes sends one message per record. It stops at the first failed
// publish.
func (p *Publisher) PublishQuotes(ctx context.Context, runID uuid.UUID, records []domain.QuoteRecord) error {
	for i, rec := range records {
		if err := p.publish(ctx, runID, rec); err != nil {
			return fmt.Errorf("publish record %d (%s): %w", i, rec.Symbol, err)
		}
	}
	p.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"exchange": p.exchange,
		"records":  len(records),
	}).Info("quotes published")
	return nil
}

func (p *Publisher) publish(ctx context.Context, runID uuid.UUID, rec domain.QuoteRecord) error {
	body, err := json.Marshal(QuoteMessage{RunID: runID, Record: rec})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Type:         string(rec.Status),
		Headers:      amqp.Table{"run_id": runID.String()},
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if err := p.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close rabbitmq channel: %w", err))
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
