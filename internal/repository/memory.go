package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"
)

// In-memory store implementations, used by tests and local runs without
// Postgres. They honor the same contracts as the pgx repositories,
// including the (mailing_list_id, email) uniqueness rule and the
// not-found-instead-of-forbidden scoping behavior.

type MemoryUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]model.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, apperr.Validationf("username already taken")
		}
	}
	s.nextID++
	u := model.User{ID: s.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

type MemoryMailingListStore struct {
	mu     sync.Mutex
	nextID int64
	lists  map[int64]model.MailingList

	subscribers *MemorySubscriberStore
}

// NewMemoryMailingListStore creates a list store. When subscribers is
// non-nil, deleting a list also drops its subscribers, matching the
// ON DELETE CASCADE in the schema.
func NewMemoryMailingListStore(subscribers *MemorySubscriberStore) *MemoryMailingListStore {
	return &MemoryMailingListStore{
		lists:       make(map[int64]model.MailingList),
		subscribers: subscribers,
	}
}

func (s *MemoryMailingListStore) Create(ctx context.Context, name string, ownerID int64) (*model.MailingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l := model.MailingList{ID: s.nextID, Name: name, OwnerID: ownerID, CreatedAt: time.Now()}
	s.lists[l.ID] = l
	return &l, nil
}

func (s *MemoryMailingListStore) FindByID(ctx context.Context, id int64) (*model.MailingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := l
	return &out, nil
}

func (s *MemoryMailingListStore) FindByIDForOwner(ctx context.Context, id, ownerID int64) (*model.MailingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || l.OwnerID != ownerID {
		return nil, apperr.ErrNotFound
	}
	out := l
	return &out, nil
}

func (s *MemoryMailingListStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.MailingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lists := []model.MailingList{}
	for _, l := range s.lists {
		if l.OwnerID == ownerID {
			lists = append(lists, l)
		}
	}
	return lists, nil
}

func (s *MemoryMailingListStore) Delete(ctx context.Context, id, ownerID int64) error {
	s.mu.Lock()
	l, ok := s.lists[id]
	if !ok || l.OwnerID != ownerID {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	delete(s.lists, id)
	s.mu.Unlock()

	if s.subscribers != nil {
		s.subscribers.dropByMailingList(id)
	}
	return nil
}

type MemorySubscriberStore struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]model.Subscriber
}

func NewMemorySubscriberStore() *MemorySubscriberStore {
	return &MemorySubscriberStore{subs: make(map[int64]model.Subscriber)}
}

func (s *MemorySubscriberStore) Create(ctx context.Context, mailingListID int64, email string, confirmed bool) (*model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.MailingListID == mailingListID && strings.EqualFold(sub.Email, email) {
			return nil, apperr.Validationf("email already subscribed to this list")
		}
	}
	s.nextID++
	sub := model.Subscriber{
		ID:            s.nextID,
		MailingListID: mailingListID,
		Email:         email,
		Confirmed:     confirmed,
		CreatedAt:     time.Now(),
	}
	s.subs[sub.ID] = sub
	return &sub, nil
}

func (s *MemorySubscriberStore) FindByID(ctx context.Context, id int64) (*model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := sub
	return &out, nil
}

func (s *MemorySubscriberStore) ListByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error) {
	return s.filter(mailingListID, false), nil
}

func (s *MemorySubscriberStore) ListConfirmedByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error) {
	return s.filter(mailingListID, true), nil
}

func (s *MemorySubscriberStore) Confirm(ctx context.Context, id int64) (*model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sub.Confirmed = true
	s.subs[id] = sub
	out := sub
	return &out, nil
}

func (s *MemorySubscriberStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *MemorySubscriberStore) filter(mailingListID int64, confirmedOnly bool) []model.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := []model.Subscriber{}
	for _, sub := range s.subs {
		if sub.MailingListID != mailingListID {
			continue
		}
		if confirmedOnly && !sub.Confirmed {
			continue
		}
		subs = append(subs, sub)
	}
	return subs
}

func (s *MemorySubscriberStore) dropByMailingList(mailingListID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		if sub.MailingListID == mailingListID {
			delete(s.subs, id)
		}
	}
}
