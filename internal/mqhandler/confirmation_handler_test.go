package mqhandler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"listkeeper/internal/apperr"
	"listkeeper/internal/mailer"
	"listkeeper/internal/repository"
	"listkeeper/internal/service/token"
	"listkeeper/pkg/mq"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	to      string
	subject string
	body    string
}

// fakeTransport replays a scripted error sequence, then succeeds.
type fakeTransport struct {
	errs []error
	sent []sentMessage
}

func (t *fakeTransport) Send(ctx context.Context, to, subject, body string) error {
	if len(t.errs) > 0 {
		err := t.errs[0]
		t.errs = t.errs[1:]
		if err != nil {
			return err
		}
	}
	t.sent = append(t.sent, sentMessage{to: to, subject: subject, body: body})
	return nil
}

type fakeCounter struct {
	counts map[string]int64
}

func (c *fakeCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *fakeCounter) Reset(ctx context.Context, key string) error {
	delete(c.counts, key)
	return nil
}

type fakeDLQ struct {
	published [][]byte
	reasons   []string
}

func (d *fakeDLQ) PublishToDLQ(routingKey string, payload []byte, originalError string) error {
	d.published = append(d.published, payload)
	d.reasons = append(d.reasons, originalError)
	return nil
}

type handlerFixture struct {
	handler   *ConfirmationHandler
	transport *fakeTransport
	counter   *fakeCounter
	dlq       *fakeDLQ
	subs      *repository.MemorySubscriberStore
	lists     *repository.MemoryMailingListStore
	tokens    *token.Service
	listID    int64
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	subs := repository.NewMemorySubscriberStore()
	lists := repository.NewMemoryMailingListStore(subs)
	list, err := lists.Create(context.Background(), "unit test", 1)
	require.NoError(t, err)

	transport := &fakeTransport{}
	counter := &fakeCounter{}
	dlq := &fakeDLQ{}
	tokens := token.NewService("test-secret", time.Hour)

	h := NewConfirmationHandler(
		subs,
		lists,
		tokens,
		transport,
		mailer.NewComposer("http://localhost:8080"),
		counter,
		dlq,
		Config{MaxAttempts: 3, Backoff: time.Millisecond, MaxDeliveries: 3},
		zap.NewNop(),
	)
	h.sleep = func(time.Duration) {} // no real waiting in tests

	return &handlerFixture{
		handler:   h,
		transport: transport,
		counter:   counter,
		dlq:       dlq,
		subs:      subs,
		lists:     lists,
		tokens:    tokens,
		listID:    list.ID,
	}
}

func payloadFor(t *testing.T, subscriberID int64) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(mq.ConfirmationTaskPayload{SubscriberID: subscriberID, MessageID: "msg-1"})
	require.NoError(t, err)
	return raw
}

func TestHandleSendsConfirmationEmail(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "new@example.com", false)
	require.NoError(t, err)

	require.NoError(t, f.handler.Handle(context.Background(), payloadFor(t, sub.ID)))

	require.Len(t, f.transport.sent, 1)
	msg := f.transport.sent[0]
	require.Equal(t, "new@example.com", msg.to)
	require.Contains(t, msg.subject, "unit test")
	require.Contains(t, msg.body, "http://localhost:8080/confirm?token=")

	// The embedded token must resolve back to this subscriber.
	idx := strings.Index(msg.body, "token=")
	tokenStr := strings.Fields(msg.body[idx+len("token="):])[0]
	resolved, err := f.tokens.Resolve(tokenStr)
	require.NoError(t, err)
	require.Equal(t, sub.ID, resolved)
}

func TestHandleMissingSubscriberIsNoop(t *testing.T) {
	f := newHandlerFixture(t)

	require.NoError(t, f.handler.Handle(context.Background(), payloadFor(t, 999)))
	require.Empty(t, f.transport.sent)
	require.Empty(t, f.dlq.published)
}

func TestHandleAlreadyConfirmedIsNoop(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "done@example.com", true)
	require.NoError(t, err)

	// Duplicate delivery after a manual confirmation.
	require.NoError(t, f.handler.Handle(context.Background(), payloadFor(t, sub.ID)))
	require.Empty(t, f.transport.sent)
}

func TestHandleRetriesTransientThenSends(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "flaky@example.com", false)
	require.NoError(t, err)

	f.transport.errs = []error{
		apperr.Transient(context.DeadlineExceeded),
		apperr.Transient(context.DeadlineExceeded),
	}

	require.NoError(t, f.handler.Handle(context.Background(), payloadFor(t, sub.ID)))
	require.Len(t, f.transport.sent, 1)
	require.Empty(t, f.dlq.published)
}

func TestHandleTransientExhaustionNacksWithinBudget(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "down@example.com", false)
	require.NoError(t, err)

	f.transport.errs = []error{
		apperr.Transient(context.DeadlineExceeded),
		apperr.Transient(context.DeadlineExceeded),
		apperr.Transient(context.DeadlineExceeded),
	}

	// First delivery: in-process retries spent, still within the
	// redelivery budget, so the task goes back to the queue.
	err = f.handler.Handle(context.Background(), payloadFor(t, sub.ID))
	require.Error(t, err)
	require.Empty(t, f.dlq.published)
}

func TestHandleDeadAfterRedeliveryBudget(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "dead@example.com", false)
	require.NoError(t, err)

	raw := payloadFor(t, sub.ID)
	for delivery := 1; delivery <= 3; delivery++ {
		f.transport.errs = []error{
			apperr.Transient(context.DeadlineExceeded),
			apperr.Transient(context.DeadlineExceeded),
			apperr.Transient(context.DeadlineExceeded),
		}
		err = f.handler.Handle(context.Background(), raw)
		if delivery < 3 {
			require.Error(t, err, "delivery %d should be nacked", delivery)
		} else {
			// Budget exhausted: parked on the DLQ and acked so the
			// queue stops redelivering.
			require.NoError(t, err)
		}
	}

	require.Len(t, f.dlq.published, 1)
	require.JSONEq(t, string(raw), string(f.dlq.published[0]))
}

func TestHandlePermanentFailureGoesStraightToDLQ(t *testing.T) {
	f := newHandlerFixture(t)
	sub, err := f.subs.Create(context.Background(), f.listID, "rejected@example.com", false)
	require.NoError(t, err)

	f.transport.errs = []error{apperr.Permanent(context.Canceled)}

	require.NoError(t, f.handler.Handle(context.Background(), payloadFor(t, sub.ID)))
	require.Empty(t, f.transport.sent)
	require.Len(t, f.dlq.published, 1)
}

func TestHandleMalformedPayloadGoesToDLQ(t *testing.T) {
	f := newHandlerFixture(t)

	require.NoError(t, f.handler.Handle(context.Background(), json.RawMessage(`{broken`)))
	require.Len(t, f.dlq.published, 1)
	require.Empty(t, f.transport.sent)
}
