package rabbitmq

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	errwrap "github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
)

// Publisher fans live detection events out to a RabbitMQ topic exchange so
// downstream consumers (ticketing, paging, SIEM feeds) don't have to hold
// their own connection to the detection backend.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	funcName := "rabbitmq.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errwrap.Wrap(err, funcName)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, errwrap.Wrap(err, funcName)
	}

	return &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		log:      log.Named("rabbitmq"),
	}, nil
}

// Publish sends one event as JSON. The routing key encodes the severity
// ("event.high") so consumers can bind to just the levels they care about.
func (p *Publisher) Publish(ctx context.Context, ev entity.StreamEvent) error {
	funcName := "rabbitmq.Publisher.Publish"

	body, err := json.Marshal(ev)
	if err != nil {
		return errwrap.Wrap(err, funcName)
	}

	severity := strings.ToLower(string(ev.Severity))
	if severity == "" {
		severity = "unknown"
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, "event."+severity, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return errwrap.Wrap(err, funcName)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.log.Warn("closing channel failed", zap.Error(err))
	}
	return p.conn.Close()
}
