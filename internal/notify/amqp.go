package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"admitgate/entity"
	"admitgate/lib/sl"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Publisher sends notices to a durable RabbitMQ queue. Notify only enqueues;
// Run owns the broker connection and reconnects after a failed publish.
type Publisher struct {
	url     string
	queue   string
	log     *slog.Logger
	notices chan *entity.Notice
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url, queue string, buffer int, log *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		url:     url,
		queue:   queue,
		log:     log.With(sl.Module("notify.amqp"), slog.String("queue", queue)),
		notices: make(chan *entity.Notice, buffer),
	}
}

func (p *Publisher) Notify(_ context.Context, n *entity.Notice) {
	select {
	case p.notices <- n:
	default:
		p.log.With(slog.String("topic", n.Topic)).Warn("notice dropped: buffer full")
	}
}

// Run publishes queued notices until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-p.notices:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := p.publish(pubCtx, n)
			cancel()
			if err != nil {
				p.log.With(slog.String("topic", n.Topic)).Error("publish notice", sl.Err(err))
				p.close()
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, n *entity.Notice) error {
	if p.channel == nil || p.channel.IsClosed() {
		if err := p.open(); err != nil {
			return err
		}
	}
	msg, err := encode(n)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	)
}

func (p *Publisher) open() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err = ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn = conn
	p.channel = ch
	p.log.Debug("connected to broker")
	return nil
}

func (p *Publisher) close() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func encode(n *entity.Notice) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal notice: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         n.Topic,
		Timestamp:    n.At,
		Body:         body,
	}, nil
}
