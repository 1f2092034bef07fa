package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/anonto42/findit/backend/internal/metrics"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStore is the part of the subscription repository the
// dispatcher needs
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// Result summarizes one dispatch
type Result struct {
	Total           int  `json:"total"`
	Sent            int  `json:"sent"`
	Failed          int  `json:"failed"`
	Pruned          int  `json:"pruned"`
	NoSubscriptions bool `json:"no_subscriptions,omitempty"`
}

// Dispatcher fans a payload out to every endpoint of a user
type Dispatcher struct {
	store      SubscriptionStore
	transports map[models.PushKind]Transport
	icon       string
	badge      string
}

// NewDispatcher builds a Dispatcher. Subscriptions whose kind has no
// transport count as failed deliveries.
func NewDispatcher(store SubscriptionStore, icon, badge string, transports ...Transport) *Dispatcher {
	d := &Dispatcher{
		store:      store,
		transports: make(map[models.PushKind]Transport, len(transports)),
		icon:       icon,
		badge:      badge,
	}
	for _, t := range transports {
		d.transports[t.Kind()] = t
	}
	return d
}

// Dispatch delivers payload to all of userID's subscriptions. Every endpoint
// is attempted once; one failing endpoint does not stop the others. The only
// error returned is a failure to read the subscription store.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, payload Payload) (Result, error) {
	subs, err := d.store.ListByUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return Result{NoSubscriptions: true}, nil
	}

	if payload.Icon == "" {
		payload.Icon = d.icon
	}
	if payload.Badge == "" {
		payload.Badge = d.badge
	}
	if payload.Timestamp == 0 {
		payload.Timestamp = nowMillis()
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		res  = Result{Total: len(subs)}
		gone []primitive.ObjectID
	)

	for i := range subs {
		sub := &subs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.deliver(ctx, sub, &payload)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Sent++
			case errors.Is(err, ErrEndpointGone):
				res.Failed++
				gone = append(gone, sub.ID)
			default:
				res.Failed++
			}
		}()
	}
	wg.Wait()

	for _, id := range gone {
		if err := d.store.DeleteByID(ctx, id); err != nil {
			log.Warn().Err(err).Str("subscription_id", id.Hex()).Msg("failed to prune push subscription")
			continue
		}
		res.Pruned++
		metrics.PushSubscriptionsPruned.Inc()
	}

	log.Debug().
		Str("user_id", userID).
		Int("total", res.Total).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("pruned", res.Pruned).
		Msg("push dispatched")
	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub *models.PushSubscription, payload *Payload) error {
	transport, ok := d.transports[sub.Kind]
	if !ok {
		metrics.RecordPushDelivery(string(sub.Kind), "failed")
		log.Warn().Str("kind", string(sub.Kind)).Str("user_id", sub.UserID).Msg("no push transport configured")
		return fmt.Errorf("no transport for %q", sub.Kind)
	}

	err := transport.Send(ctx, sub, payload)
	switch {
	case err == nil:
		metrics.RecordPushDelivery(string(sub.Kind), "sent")
	case errors.Is(err, ErrEndpointGone):
		metrics.RecordPushDelivery(string(sub.Kind), "gone")
		log.Info().Str("user_id", sub.UserID).Str("kind", string(sub.Kind)).Msg("push endpoint gone, pruning subscription")
	default:
		metrics.RecordPushDelivery(string(sub.Kind), "failed")
		log.Warn().Err(err).Str("user_id", sub.UserID).Str("kind", string(sub.Kind)).Msg("push delivery failed")
	}
	return err
}
