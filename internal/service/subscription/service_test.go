package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"listkeeper/internal/apperr"
	"listkeeper/internal/repository"
	"listkeeper/internal/service/token"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeQueue records every enqueue so tests can assert exact call counts
// instead of patching anything.
type fakeQueue struct {
	ids []int64
	err error
}

func (q *fakeQueue) EnqueueConfirmation(ctx context.Context, subscriberID int64) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, subscriberID)
	return nil
}

type fixture struct {
	svc    *Service
	queue  *fakeQueue
	subs   *repository.MemorySubscriberStore
	lists  *repository.MemoryMailingListStore
	tokens *token.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	subs := repository.NewMemorySubscriberStore()
	lists := repository.NewMemoryMailingListStore(subs)
	queue := &fakeQueue{}
	tokens := token.NewService("test-secret", time.Hour)
	svc := NewService(subs, lists, queue, tokens, zap.NewNop())
	return &fixture{svc: svc, queue: queue, subs: subs, lists: lists, tokens: tokens}
}

func (f *fixture) mustCreateList(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	list, err := f.lists.Create(context.Background(), name, ownerID)
	require.NoError(t, err)
	return list.ID
}

func TestCreateSubscriberQueuesConfirmationExactlyOnce(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")

	sub, err := f.svc.CreateSubscriber(context.Background(), listID, "unittest@example.com")
	require.NoError(t, err)
	require.False(t, sub.Confirmed)
	require.Equal(t, "unittest@example.com", sub.Email)
	require.Equal(t, listID, sub.MailingListID)

	// Exactly one enqueue, carrying the new subscriber's id.
	require.Len(t, f.queue.ids, 1)
	require.Equal(t, sub.ID, f.queue.ids[0])
}

func TestCreateSubscriberRejectsBadEmail(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")

	for _, email := range []string{"", "not-an-email", "a@", "Display Name <a@b.com>"} {
		_, err := f.svc.CreateSubscriber(context.Background(), listID, email)
		require.ErrorIs(t, err, apperr.ErrValidation, "email %q", email)
	}
	require.Empty(t, f.queue.ids)
}

func TestCreateSubscriberUnknownList(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSubscriber(context.Background(), 42, "someone@example.com")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Empty(t, f.queue.ids)
}

func TestCreateSubscriberDuplicateEmailInList(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")
	otherListID := f.mustCreateList(t, 1, "other")

	_, err := f.svc.CreateSubscriber(context.Background(), listID, "dup@example.com")
	require.NoError(t, err)

	_, err = f.svc.CreateSubscriber(context.Background(), listID, "dup@example.com")
	require.ErrorIs(t, err, apperr.ErrValidation)

	// Same email on a different list is fine.
	_, err = f.svc.CreateSubscriber(context.Background(), otherListID, "dup@example.com")
	require.NoError(t, err)
}

func TestCreateSubscriberEnqueueFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")
	f.queue.err = errors.New("broker unavailable")

	sub, err := f.svc.CreateSubscriber(context.Background(), listID, "kept@example.com")

	var schedErr *apperr.DispatchSchedulingError
	require.ErrorAs(t, err, &schedErr)
	require.NotNil(t, sub)
	require.Equal(t, sub.ID, schedErr.SubscriberID)

	// The record survives the enqueue failure.
	stored, err := f.subs.FindByID(context.Background(), sub.ID)
	require.NoError(t, err)
	require.False(t, stored.Confirmed)
}

func TestConfirmSubscriberIsIdempotent(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")

	sub, err := f.svc.CreateSubscriber(context.Background(), listID, "confirm@example.com")
	require.NoError(t, err)

	tokenStr, err := f.tokens.Issue(sub.ID)
	require.NoError(t, err)

	first, err := f.svc.ConfirmSubscriber(context.Background(), tokenStr)
	require.NoError(t, err)
	require.True(t, first.Confirmed)

	second, err := f.svc.ConfirmSubscriber(context.Background(), tokenStr)
	require.NoError(t, err)
	require.True(t, second.Confirmed)

	// Confirming never schedules more dispatch work.
	require.Len(t, f.queue.ids, 1)
}

func TestConfirmSubscriberInvalidToken(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")

	sub, err := f.svc.CreateSubscriber(context.Background(), listID, "gone@example.com")
	require.NoError(t, err)

	_, err = f.svc.ConfirmSubscriber(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	// A valid token whose subscriber was deleted reads the same as a bad
	// token, revealing nothing about whether the subscriber ever existed.
	tokenStr, err := f.tokens.Issue(sub.ID)
	require.NoError(t, err)
	require.NoError(t, f.subs.Delete(context.Background(), sub.ID))

	_, err = f.svc.ConfirmSubscriber(context.Background(), tokenStr)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	// Expired tokens as well.
	expired := token.NewService("test-secret", -time.Minute)
	tokenStr, err = expired.Issue(sub.ID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmSubscriber(context.Background(), tokenStr)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestConfirmedSubscribersForMailingList(t *testing.T) {
	f := newFixture(t)
	listID := f.mustCreateList(t, 1, "unit test")

	// Factory path: confirmed subscribers created directly in the store,
	// no dispatch involved.
	wantIDs := map[int64]bool{}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		sub, err := f.subs.Create(context.Background(), listID, email, true)
		require.NoError(t, err)
		wantIDs[sub.ID] = true
	}
	for _, email := range []string{"x@example.com", "y@example.com"} {
		_, err := f.subs.Create(context.Background(), listID, email, false)
		require.NoError(t, err)
	}

	confirmed, err := f.svc.ConfirmedSubscribers(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, confirmed, 3)
	for _, sub := range confirmed {
		require.True(t, sub.Confirmed)
		require.True(t, wantIDs[sub.ID], "unexpected subscriber %d", sub.ID)
	}
}

func TestListsForOwnerNeverLeakAcrossOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Colliding names on purpose.
	mine := f.mustCreateList(t, 1, "newsletter")
	theirs := f.mustCreateList(t, 2, "newsletter")

	lists, err := f.svc.ListsForOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Equal(t, mine, lists[0].ID)

	// Direct lookup of a foreign list by id: not found, not forbidden.
	_, err = f.svc.ListForOwner(ctx, 1, theirs)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubscribersForListForeignOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listID := f.mustCreateList(t, 1, "unit test")

	_, err := f.svc.CreateSubscriber(ctx, listID, "member@example.com")
	require.NoError(t, err)

	// Owner 2 asking for owner 1's subscriber listing gets a hard not
	// found, not an empty result.
	_, err = f.svc.SubscribersForList(ctx, 2, listID, false)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	subs, err := f.svc.SubscribersForList(ctx, 1, listID, false)
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestSubscribersForListConfirmedFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listID := f.mustCreateList(t, 1, "unit test")

	_, err := f.subs.Create(ctx, listID, "yes@example.com", true)
	require.NoError(t, err)
	_, err = f.subs.Create(ctx, listID, "no@example.com", false)
	require.NoError(t, err)

	all, err := f.svc.SubscribersForList(ctx, 1, listID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	confirmed, err := f.svc.SubscribersForList(ctx, 1, listID, true)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	require.Equal(t, "yes@example.com", confirmed[0].Email)
}

func TestDeleteSubscriberOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listID := f.mustCreateList(t, 1, "unit test")

	sub, err := f.svc.CreateSubscriber(ctx, listID, "member@example.com")
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DeleteSubscriber(ctx, 2, sub.ID), apperr.ErrNotFound)
	require.NoError(t, f.svc.DeleteSubscriber(ctx, 1, sub.ID))

	_, err = f.subs.FindByID(ctx, sub.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
