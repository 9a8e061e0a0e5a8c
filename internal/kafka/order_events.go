package kafka

import (
	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"strconv"
	"time"
)

// OrderEvents announces committed orders on shop.TopicOrderCreated.
type OrderEvents struct {
	Producer *Producer
	Service  string
}

func (e *OrderEvents) OrderCreated(o shop.Order, traceID string) {
	env := NewOrderCreatedEnvelope(o, e.Service, traceID)
	e.Producer.Publish(shop.PartitionKey(o.ID), MustMarshal(env),
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}

func NewOrderCreatedEnvelope(o shop.Order, producer, traceID string) shop.Envelope {
	return shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(o.ID, 10),
		Payload:       MustMarshal(shop.NewOrderCreatedPayload(o)),
	}
}
