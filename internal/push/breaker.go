package push

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/findit/backend/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the per-transport circuit breaker
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

var DefaultBreakerConfig = BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second}

// breakerTransport stops calling a push service that keeps failing. Gone
// endpoints are the subscriber's problem, not the service's, so they do not
// count against it.
type breakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps t in a circuit breaker
func WithBreaker(t Transport, cfg BreakerConfig) Transport {
	name := "push-" + string(t.Kind())
	return &breakerTransport{
		next: t,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrEndpointGone) || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("push circuit breaker state changed")
			},
		}),
	}
}

func (b *breakerTransport) Kind() models.PushKind {
	return b.next.Kind()
}

func (b *breakerTransport) Send(ctx context.Context, sub *models.PushSubscription, payload *Payload) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, sub, payload)
	})
	return err
}
