package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/metrics"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/anonto42/findit/backend/pkg/geo"
	"github.com/rs/zerolog/log"
)

// Caller-supplied proximity bounds are clamped to these
const (
	MaxNearbyRadiusKm = 100.0
	MaxNearbyLimit    = 100
)

// NearbyItem is an item returned by a proximity search
type NearbyItem struct {
	models.Item
	DistanceKm float64 `json:"distance_km"`
}

// NearbyQuery is a proximity search. An empty or unparsable GPS falls back
// to the configured default position.
type NearbyQuery struct {
	GPS      string
	RadiusKm float64
	Limit    int
	Status   models.ItemStatus
}

// NearbyResult carries the matches and the position actually searched from
type NearbyResult struct {
	Origin      geo.Coordinate `json:"origin"`
	UsedDefault bool           `json:"used_default"`
	Items       []NearbyItem   `json:"items"`
}

// ItemService owns the lost/found item workflow: reporting, matching,
// claiming and verification
type ItemService struct {
	items    repositories.ItemRepository
	notifier *Notifier
	locator  *geo.Locator
	match    geo.MatchOptions
}

func NewItemService(items repositories.ItemRepository, notifier *Notifier, locator *geo.Locator, match geo.MatchOptions) *ItemService {
	return &ItemService{items: items, notifier: notifier, locator: locator, match: match}
}

// Create stores a new report and tells the owners of nearby opposite reports
// about it. The returned matches are the items that were notified.
func (s *ItemService) Create(ctx context.Context, ownerUID, ownerEmail string, req *models.CreateItemRequest) (*models.Item, []NearbyItem, error) {
	item := &models.Item{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
		Status:       req.Status,
		Photos:       req.Photos,
		GPS:          req.GPS,
		Reward:       req.Reward,
		RewardAmount: req.RewardAmount,
		OwnerUID:     ownerUID,
		OwnerEmail:   ownerEmail,
	}
	if item.Photos == nil {
		item.Photos = []string{}
	}
	if !item.Reward {
		item.RewardAmount = 0
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, nil, fmt.Errorf("failed to create item: %w", err)
	}

	matches, err := s.matchAndNotify(ctx, item)
	if err != nil {
		// the report itself is stored; matching is re-run on the next report
		log.Error().Err(err).Uint("item_id", item.ID).Msg("proximity matching failed")
		return item, []NearbyItem{}, nil
	}
	return item, matches, nil
}

func (s *ItemService) matchAndNotify(ctx context.Context, item *models.Item) ([]NearbyItem, error) {
	ref, err := geo.ParseCoordinate(item.GPS)
	if err != nil {
		return nil, err
	}

	candidates, err := s.items.ListMatchCandidates(ctx, item.Status.Opposite(), item.OwnerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match candidates: %w", err)
	}

	nearby := s.rank(ref, candidates, s.match)
	for _, m := range nearby {
		_, err := s.notifier.NotifyAndPush(ctx, NotificationInput{
			UserID:   m.OwnerUID,
			Type:     models.NotificationMatchFound,
			Title:    "Possible match nearby",
			Message:  fmt.Sprintf("A %s %s was reported %.1f km from your %s item.", item.Status, item.Title, m.DistanceKm, m.Status),
			Priority: models.PriorityHigh,
			Link:     fmt.Sprintf("/items/%d", item.ID),
			Data: &models.NotificationData{Match: &models.MatchData{
				ItemID:        m.ID,
				MatchedItemID: item.ID,
				DistanceKm:    m.DistanceKm,
			}},
		})
		if err != nil {
			log.Warn().Err(err).Uint("item_id", m.ID).Msg("failed to notify match owner")
		}
	}
	return nearby, nil
}

// rank runs the proximity matcher over items and maps the result back
func (s *ItemService) rank(ref geo.Coordinate, items []models.Item, opts geo.MatchOptions) []NearbyItem {
	byID := make(map[string]*models.Item, len(items))
	candidates := make([]geo.Candidate, 0, len(items))
	for i := range items {
		id := strconv.FormatUint(uint64(items[i].ID), 10)
		byID[id] = &items[i]
		candidates = append(candidates, geo.Candidate{ID: id, GPS: items[i].GPS})
	}

	matches := geo.Match(ref, candidates, opts)
	metrics.ProximityMatches.Observe(float64(len(matches)))

	out := make([]NearbyItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, NearbyItem{Item: *byID[m.ID], DistanceKm: m.DistanceKm})
	}
	return out
}

// Nearby returns open items around q.GPS, nearest first
func (s *ItemService) Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	origin, ok := s.locator.Resolve(q.GPS)

	items, err := s.items.ListMatchCandidates(ctx, q.Status, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	opts := s.match
	if q.RadiusKm > 0 {
		opts.RadiusKm = min(q.RadiusKm, MaxNearbyRadiusKm)
	}
	if q.Limit > 0 {
		opts.Limit = min(q.Limit, MaxNearbyLimit)
	}

	return &NearbyResult{
		Origin:      origin,
		UsedDefault: !ok,
		Items:       s.rank(origin, items, opts),
	}, nil
}

func (s *ItemService) Get(ctx context.Context, id uint) (*models.Item, error) {
	return s.items.GetItemByID(ctx, id)
}

func (s *ItemService) List(ctx context.Context, filter models.ItemFilter, page, limit int) ([]models.Item, int64, error) {
	return s.items.ListItems(ctx, filter, (page-1)*limit, limit)
}

// owned loads an item and checks that uid owns it
func (s *ItemService) owned(ctx context.Context, uid string, id uint) (*models.Item, error) {
	item, err := s.items.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerUID != uid {
		return nil, fmt.Errorf("item belongs to another user: %w", apperr.ErrForbidden)
	}
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, uid string, id uint, req *models.UpdateItemRequest) (*models.Item, error) {
	item, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		item.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Category != "" {
		item.Category = strings.ToLower(strings.TrimSpace(req.Category))
	}
	if req.Photos != nil {
		item.Photos = req.Photos
	}
	if req.GPS != "" {
		item.GPS = req.GPS
	}
	if req.Reward != nil {
		item.Reward = *req.Reward
	}
	if req.RewardAmount != nil {
		item.RewardAmount = *req.RewardAmount
	}
	if !item.Reward {
		item.RewardAmount = 0
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

// ToggleStatus flips lost/found and confirms the change to the owner
func (s *ItemService) ToggleStatus(ctx context.Context, uid string, id uint) (*models.Item, error) {
	item, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	next := item.Status.Opposite()
	if err := s.items.SetStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	item.Status = next

	notificationType := models.NotificationItemLost
	title := "Item marked as lost"
	if next == models.ItemFound {
		notificationType = models.NotificationItemFound
		title = "Item marked as found"
	}
	s.bestEffort(ctx, NotificationInput{
		UserID:  uid,
		Type:    notificationType,
		Title:   title,
		Message: fmt.Sprintf("%q is now listed as %s.", item.Title, next),
		Link:    fmt.Sprintf("/items/%d", id),
		Data:    &models.NotificationData{Item: &models.ItemData{ItemID: id, ActorUID: uid}},
	})
	return item, nil
}

// Claim records uid as claimant and tells the owner
func (s *ItemService) Claim(ctx context.Context, uid string, id uint) (*models.Item, error) {
	item, err := s.items.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerUID == uid {
		return nil, fmt.Errorf("cannot claim your own item: %w", apperr.ErrInvalidInput)
	}
	if err := s.items.Claim(ctx, id, uid); err != nil {
		return nil, err
	}
	item.ClaimedBy = uid
	item.Verified = false

	s.bestEffort(ctx, NotificationInput{
		UserID:   item.OwnerUID,
		Type:     models.NotificationItemClaimed,
		Title:    "Someone claimed your item",
		Message:  fmt.Sprintf("%q has a new claim waiting for your verification.", item.Title),
		Priority: models.PriorityHigh,
		Link:     fmt.Sprintf("/items/%d", id),
		Data:     &models.NotificationData{Item: &models.ItemData{ItemID: id, ActorUID: uid}},
	})
	return item, nil
}

// Verify lets the owner confirm the current claim
func (s *ItemService) Verify(ctx context.Context, uid string, id uint) (*models.Item, error) {
	item, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if item.ClaimedBy == "" {
		return nil, fmt.Errorf("item has no claim to verify: %w", apperr.ErrInvalidInput)
	}
	if err := s.items.Verify(ctx, id); err != nil {
		return nil, err
	}
	item.Verified = true

	s.bestEffort(ctx, NotificationInput{
		UserID:   item.ClaimedBy,
		Type:     models.NotificationVerification,
		Title:    "Your claim was verified",
		Message:  fmt.Sprintf("The owner of %q verified your claim.", item.Title),
		Priority: models.PriorityHigh,
		Link:     fmt.Sprintf("/items/%d", id),
		Data:     &models.NotificationData{Item: &models.ItemData{ItemID: id, ActorUID: uid}},
	})
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, uid string, id uint) error {
	if _, err := s.owned(ctx, uid, id); err != nil {
		return err
	}
	return s.items.DeleteItem(ctx, id)
}

// MarkQRRegistered flags an owned item as carrying a printed QR label
func (s *ItemService) MarkQRRegistered(ctx context.Context, uid string, id uint) (*models.Item, error) {
	item, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if !item.QRRegistered {
		if err := s.items.MarkQRRegistered(ctx, id); err != nil {
			return nil, err
		}
		item.QRRegistered = true
	}
	return item, nil
}

func (s *ItemService) bestEffort(ctx context.Context, in NotificationInput) {
	if _, err := s.notifier.NotifyAndPush(ctx, in); err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Str("type", string(in.Type)).Msg("failed to send notification")
	}
}
