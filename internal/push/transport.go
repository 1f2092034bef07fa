// Package push delivers notifications to the browser and device endpoints
// users registered, one independent attempt per endpoint.
package push

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/findit/backend/internal/models"
)

// ErrEndpointGone means the push service reported the endpoint as permanently
// invalid. Subscriptions failing with it are deleted.
var ErrEndpointGone = errors.New("push endpoint gone")

// Payload is the message shown by the service worker or device
type Payload struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Icon      string            `json:"icon,omitempty"`
	Badge     string            `json:"badge,omitempty"`
	URL       string            `json:"url,omitempty"`
	Tag       string            `json:"tag,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// Transport sends one payload to one subscription
type Transport interface {
	Kind() models.PushKind
	Send(ctx context.Context, sub *models.PushSubscription, payload *Payload) error
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
