package pubsub

import "context"

const (
	// CreatedEvent signals a new resource, e.g. a conversation turn.
	CreatedEvent EventType = "created"
	// UpdatedEvent signals an in-place change to an existing resource.
	UpdatedEvent EventType = "updated"
	// DeletedEvent signals resource removal.
	DeletedEvent EventType = "deleted"
	// FinishedEvent signals the end of a resource's lifecycle, e.g. a
	// terminated conversation.
	FinishedEvent EventType = "finished"
)

// Subscriber hands out event channels bound to a context.
type Subscriber[T any] interface {
	// Subscribe returns a read-only event channel that closes when the
	// context is done.
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType labels what happened to the payload.
	EventType string

	// Event is one occurrence in a resource's lifecycle.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans events out to all subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
