package adapters

import (
	"context"
	"fmt"

	"gasolina/internal/amqp"
	"gasolina/internal/services"
)

// EventSink is the part of amqp.Client the publisher needs.
type EventSink interface {
	PublishEvent(ctx context.Context, event *amqp.EntryEvent) error
	Close() error
}

// AMQPPublisher adapts the AMQP client to services.EventPublisher so the
// services never depend on the wire format.
type AMQPPublisher struct {
	sink EventSink
}

func NewAMQPPublisher(sink EventSink) *AMQPPublisher {
	return &AMQPPublisher{sink: sink}
}

// Publish implements services.EventPublisher
func (p *AMQPPublisher) Publish(ctx context.Context, ev services.Event) error {
	msg, err := ToMessage(ev)
	if err != nil {
		return err
	}
	return p.sink.PublishEvent(ctx, msg)
}

func (p *AMQPPublisher) Close() error {
	return p.sink.Close()
}

// ToMessage converts a service event into its wire message.
func ToMessage(ev services.Event) (*amqp.EntryEvent, error) {
	var msg *amqp.EntryEvent
	switch ev.Type {
	case services.EventEntryCreated:
		msg = amqp.NewEntryEvent(amqp.EventEntryCreated)
		msg.Date = ev.Entry.Date.String()
		msg.TotalCost = ev.Entry.TotalCost
	case services.EventEntryDeleted:
		msg = amqp.NewEntryEvent(amqp.EventEntryDeleted)
	case services.EventBudgetUpdated:
		msg = amqp.NewEntryEvent(amqp.EventBudgetUpdated)
		msg.Budget = ev.Budget
	default:
		return nil, fmt.Errorf("unsupported event type %q", ev.Type)
	}
	msg.EntryID = ev.Entry.ID
	return msg, nil
}
