package mq

// ConfirmationTaskPayload is the body of a confirmation dispatch task.
// MessageID identifies the task across queue redeliveries so the worker
// can count delivery attempts.
type ConfirmationTaskPayload struct {
	SubscriberID int64  `json:"subscriber_id"`
	MessageID    string `json:"message_id"`
}
