package rabbitmq

import (
	"context"
	"sync"
	"time"

	"autovid-worker/config"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RetryConsumer is the consumer variant for transport-flaky work: handler
// errors are retried with exponential backoff and exhausted messages are
// dead-lettered instead of acknowledged.
type RetryConsumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type retryConsumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	spec       QueueSpec
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c retryConsumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	dlxName := c.spec.Exchange + "_dlx"
	dlqName := c.spec.Queue + "_dlq"
	dlqRoutingKey := "dlq." + c.spec.RoutingKey

	err = ch.ExchangeDeclare(c.spec.Exchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", c.spec.Exchange).Msg("failed to declare exchange")
		return err
	}

	err = ch.ExchangeDeclare(dlxName, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", dlxName).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(dlqName, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", dlqName).Msg("failed to declare dlq")
		return err
	}

	err = ch.QueueBind(dlq.Name, dlqRoutingKey, dlxName, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Msg("failed to bind dlq")
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    dlxName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	q, err := ch.QueueDeclare(c.spec.Queue, true, false, false, false, args)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.spec.Queue).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, c.spec.RoutingKey, c.spec.Exchange, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.spec.Queue).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.spec.Queue).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(c.spec.Queue, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.spec.Queue).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", c.spec.Queue).
		Str("exchange", c.spec.Exchange).
		Str("routing_key", c.spec.RoutingKey).
		Int("workers", c.numWorkers).
		Msg("retry consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				operation := func() (string, error) {
					if err := c.handler(ctx, msg, dependencies); err != nil {
						return "", err
					}
					return "", nil
				}

				bo := backoff.NewExponentialBackOff()
				bo.MaxInterval = 10 * time.Second

				_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Msg("failed to handle message after all retries")
					if nackErr := msg.Nack(false, false); nackErr != nil {
						zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to send to DLQ")
					}
				} else {
					if ackErr := msg.Ack(false); ackErr != nil {
						zerolog.Ctx(ctx).Error().Err(ackErr).Msg("failed to acknowledge message")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func NewRetryConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	spec QueueSpec,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) RetryConsumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &retryConsumer[T]{
		conn:       conn,
		cfg:        cfg,
		spec:       spec,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
