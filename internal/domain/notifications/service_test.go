package notifications

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	created []Notification
	emails  map[int64]string
}

func (m *memStore) CreateNotification(_ context.Context, userID int64, ntype, title, body string) error {
	m.created = append(m.created, Notification{ID: userID, Type: ntype, Title: title, Body: body})
	return nil
}

func (m *memStore) UserEmail(_ context.Context, userID int64) (string, error) {
	return m.emails[userID], nil
}

func (m *memStore) ListNotifications(context.Context, int64, int, int) ([]Notification, error) {
	return m.created, nil
}

func (m *memStore) CountNotifications(context.Context, int64) (int, error) {
	return len(m.created), nil
}

func (m *memStore) MarkRead(_ context.Context, _ int64, notificationID int64) (bool, error) {
	return notificationID == 1, nil
}

type recordingMailer struct {
	to   []string
	fail bool
}

func (r *recordingMailer) Send(_ context.Context, _, to, _, _ string) error {
	if r.fail {
		return errors.New("smtp unavailable")
	}
	r.to = append(r.to, to)
	return nil
}

func TestNotifyReviewAssigned(t *testing.T) {
	store := &memStore{emails: map[int64]string{1: "ada@example.com", 2: ""}}
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	sent, err := svc.NotifyReviewAssigned(context.Background(), "H1 2026", []int64{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 || len(store.created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", sent)
	}
	if store.created[0].Type != TypeReviewAssigned {
		t.Fatalf("unexpected type %q", store.created[0].Type)
	}
	if len(mailer.to) != 1 || mailer.to[0] != "ada@example.com" {
		t.Fatalf("expected one email to ada, got %v", mailer.to)
	}
}

func TestCreateIgnoresMailFailure(t *testing.T) {
	store := &memStore{emails: map[int64]string{1: "ada@example.com"}}
	svc := New(store, &recordingMailer{fail: true})
	if err := svc.Create(context.Background(), 1, TypeReviewAssigned, "t", "b"); err != nil {
		t.Fatalf("expected mail failure to be swallowed, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	svc := New(&memStore{}, nil)
	if err := svc.MarkRead(context.Background(), 5, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.MarkRead(context.Background(), 5, 2); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
