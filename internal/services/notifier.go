package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/metrics"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/push"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/anonto42/findit/backend/internal/ws"
	"github.com/rs/zerolog/log"
)

// EventPublisher delivers live events to connected clients
type EventPublisher interface {
	SendToUser(userID string, event ws.Event) int
}

// PushDispatcher fans a payload out to a user's push endpoints
type PushDispatcher interface {
	Dispatch(ctx context.Context, userID string, payload push.Payload) (push.Result, error)
}

// NotificationInput describes a notification to create
type NotificationInput struct {
	UserID   string
	Type     models.NotificationType
	Title    string
	Message  string
	Priority models.Priority
	Link     string
	Data     *models.NotificationData
}

// Notifier writes notification records and announces them over websocket and push
type Notifier struct {
	repo   repositories.NotificationRepository
	events EventPublisher
	pusher PushDispatcher
	now    func() time.Time
}

// NewNotifier creates a Notifier. events and pusher may be nil.
func NewNotifier(repo repositories.NotificationRepository, events EventPublisher, pusher PushDispatcher) *Notifier {
	return &Notifier{repo: repo, events: events, pusher: pusher, now: time.Now}
}

// Notify validates and stores one notification and returns its id
func (n *Notifier) Notify(ctx context.Context, in NotificationInput) (string, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return "", apperr.ErrMissingUserID
	}
	if !in.Type.Valid() {
		return "", fmt.Errorf("%w: unknown notification type %q", apperr.ErrInvalidInput, in.Type)
	}
	if err := in.Data.CheckFor(in.Type); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	notification := &models.Notification{
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Priority:  priority,
		Read:      false,
		Link:      in.Link,
		Data:      in.Data,
		CreatedAt: n.now().UTC(),
	}
	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.RecordNotification(string(in.Type))

	if n.events != nil {
		n.events.SendToUser(in.UserID, ws.Event{Type: ws.EventNotification, Data: notification})
	}
	return notification.ID.Hex(), nil
}

// NotifyAndPush stores the notification, then attempts a push to the user's
// endpoints. Push problems are logged and never fail the call.
func (n *Notifier) NotifyAndPush(ctx context.Context, in NotificationInput) (string, error) {
	id, err := n.Notify(ctx, in)
	if err != nil {
		return "", err
	}
	if n.pusher == nil {
		return id, nil
	}

	res, err := n.pusher.Dispatch(ctx, in.UserID, push.Payload{
		Title: in.Title,
		Body:  in.Message,
		URL:   in.Link,
		Tag:   string(in.Type),
		Data: map[string]string{
			"notification_id": id,
			"type":            string(in.Type),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Str("notification_id", id).Msg("push dispatch failed")
		return id, nil
	}
	if res.Failed > 0 {
		log.Info().Str("user_id", in.UserID).Int("sent", res.Sent).Int("failed", res.Failed).Msg("push partially delivered")
	}
	return id, nil
}
