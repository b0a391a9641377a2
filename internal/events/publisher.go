package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stevnathans/hustlecare-sub000/internal/sequence"
	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

// Publisher emits enveloped ListShared events to the topic exchange. Sharing a
// list is the only state change other services care about.
type Publisher struct {
	ch       *amqp.Channel
	seqRepo  *sequence.Repository
	producer string
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, seqRepo *sequence.Repository, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = ListServiceProducer
	}

	return &Publisher{ch: ch, seqRepo: seqRepo, producer: producer}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishListShared(ctx context.Context, list *snapshot.SharedList) error {
	seq, err := p.seqRepo.NextSequence(ctx, list.ID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	ev := BuildListSharedEvent(list, EnvelopeOptions{
		PartitionKey: list.ID,
		Sequence:     seq,
		Producer:     p.producer,
	})

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal ListShared: %w", err)
	}

	return p.publishJSON(ctx, ListSharedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
