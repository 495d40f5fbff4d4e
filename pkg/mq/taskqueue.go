package mq

import (
	"context"

	"github.com/google/uuid"
)

// ConfirmationQueue adapts the publisher to the subscription service's
// TaskQueue interface. Each enqueue gets a fresh message id; the id is
// stable across queue redeliveries of the same task, which is what the
// worker's delivery counter keys on.
type ConfirmationQueue struct {
	publisher *Publisher
}

func NewConfirmationQueue(publisher *Publisher) *ConfirmationQueue {
	return &ConfirmationQueue{publisher: publisher}
}

func (q *ConfirmationQueue) EnqueueConfirmation(ctx context.Context, subscriberID int64) error {
	payload := ConfirmationTaskPayload{
		SubscriberID: subscriberID,
		MessageID:    uuid.NewString(),
	}
	return q.publisher.Publish(RoutingKeyConfirmation, payload)
}
