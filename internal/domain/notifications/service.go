package notifications

import (
	"context"
	"fmt"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

// Create stores an in-app notification and mirrors it by email when a
// mailer is configured. Email failures are logged, not returned.
func (s *Service) Create(ctx context.Context, userID int64, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}

	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

// NotifyReviewAssigned tells each reviewer about new work in a cycle and
// returns how many notifications were written.
func (s *Service) NotifyReviewAssigned(ctx context.Context, cycleName string, reviewerIDs []int64) (int, error) {
	title := "New feedback assignments"
	body := fmt.Sprintf("You have feedback to give in the review cycle %q.", cycleName)
	sent := 0
	for _, id := range reviewerIDs {
		if err := s.Create(ctx, id, TypeReviewAssigned, title, body); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, userID int64) (int, error) {
	return s.store.CountNotifications(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	updated, err := s.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotificationNotFound
	}
	return nil
}
