package rabbitmq

import (
	"context"
	"encoding/json"

	"autovid-worker/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher enqueues a unit of work. Fire-and-forget: delivery is
// at-least-once, confirmation of the business outcome comes from the job row.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

type publisher struct {
	conn     *amqp.Connection
	cfg      *config.RabbitMQ
	exchange string
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, exchange string) Publisher {
	return &publisher{
		conn:     conn,
		cfg:      cfg,
		exchange: exchange,
	}
}

func (p *publisher) Publish(ctx context.Context, routingKey string, message any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(p.exchange, p.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("routing_key", routingKey).Msg("published message")
	return nil
}
