package push

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/findit/backend/internal/models"
)

// MessageSender is the subset of *messaging.Client used for delivery
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// SenderProvider creates the messaging client
type SenderProvider func(ctx context.Context) (MessageSender, error)

// FCMTransport delivers through Firebase Cloud Messaging registration tokens.
// The client is created on first send and reused; a failed creation is not
// retried for the life of the transport.
type FCMTransport struct {
	provider SenderProvider
	isGone   func(error) bool

	once      sync.Once
	sender    MessageSender
	senderErr error
}

// NewFCMTransport creates a cloud messaging transport
func NewFCMTransport(provider SenderProvider) *FCMTransport {
	return &FCMTransport{provider: provider, isGone: messaging.IsUnregistered}
}

func (t *FCMTransport) Kind() models.PushKind {
	return models.PushKindFCM
}

func (t *FCMTransport) Send(ctx context.Context, sub *models.PushSubscription, payload *Payload) error {
	if sub.FCMToken == "" {
		return errors.New("fcm subscription without token")
	}

	sender, err := t.client(ctx)
	if err != nil {
		return fmt.Errorf("messaging client unavailable: %w", err)
	}

	_, err = sender.Send(ctx, buildFCMMessage(sub.FCMToken, payload))
	if err != nil {
		if t.isGone(err) {
			return fmt.Errorf("%w: %v", ErrEndpointGone, err)
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

func (t *FCMTransport) client(ctx context.Context) (MessageSender, error) {
	t.once.Do(func() {
		t.sender, t.senderErr = t.provider(ctx)
	})
	return t.sender, t.senderErr
}

func buildFCMMessage(token string, payload *Payload) *messaging.Message {
	data := make(map[string]string, len(payload.Data)+3)
	for k, v := range payload.Data {
		data[k] = v
	}
	if payload.URL != "" {
		data["url"] = payload.URL
	}
	if payload.Tag != "" {
		data["tag"] = payload.Tag
	}
	data["timestamp"] = strconv.FormatInt(payload.Timestamp, 10)

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Icon:  payload.Icon,
				Badge: payload.Badge,
				Tag:   payload.Tag,
			},
		},
	}
	if payload.URL != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: payload.URL}
	}
	return msg
}
