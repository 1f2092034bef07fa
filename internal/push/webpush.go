package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/goccy/go-json"
)

const webPushTTL = 24 * 60 * 60

// WebPushTransport delivers to browser service workers using VAPID
type WebPushTransport struct {
	publicKey  string
	privateKey string
	subscriber string
	client     *http.Client
}

// NewWebPushTransport creates a transport signing requests with the given VAPID key pair
func NewWebPushTransport(publicKey, privateKey, subscriber string) *WebPushTransport {
	return &WebPushTransport{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// PublicKey is handed to browsers so they can subscribe
func (t *WebPushTransport) PublicKey() string {
	return t.publicKey
}

func (t *WebPushTransport) Kind() models.PushKind {
	return models.PushKindWeb
}

func (t *WebPushTransport) Send(ctx context.Context, sub *models.PushSubscription, payload *Payload) error {
	if sub.Endpoint == "" || sub.Keys == nil {
		return errors.New("web push subscription without endpoint or keys")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             webPushTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("web push request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrEndpointGone, resp.StatusCode)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("web push service returned status %d", resp.StatusCode)
	}
}
