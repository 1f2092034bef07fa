package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/pkg/geo"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	qrIssuer    = "findit"
	qrImageSize = 512
)

// QRService issues the signed tokens printed on item labels and handles scans
type QRService struct {
	secret   []byte
	baseURL  string
	items    *ItemService
	notifier *Notifier
	now      func() time.Time
}

func NewQRService(secret, baseURL string, items *ItemService, notifier *Notifier) *QRService {
	return &QRService{
		secret:   []byte(secret),
		baseURL:  strings.TrimRight(baseURL, "/"),
		items:    items,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register marks an owned item as labelled and returns its scan token.
// Tokens do not expire; a printed label stays valid for the item's life.
func (s *QRService) Register(ctx context.Context, uid string, itemID uint) (*models.QRRegistration, error) {
	item, err := s.items.MarkQRRegistered(ctx, uid, itemID)
	if err != nil {
		return nil, err
	}

	token, err := s.Sign(item)
	if err != nil {
		return nil, err
	}
	return &models.QRRegistration{
		ItemID:   item.ID,
		Token:    token,
		ScanURL:  s.ScanURL(token),
		ImageURL: fmt.Sprintf("%s/api/v1/items/%d/qr.png", s.baseURL, item.ID),
	}, nil
}

// Sign creates the HS256 token for item
func (s *QRService) Sign(item *models.Item) (string, error) {
	claims := models.QRClaims{
		ItemID:   item.ID,
		OwnerUID: item.OwnerUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   qrIssuer,
			Subject:  strconv.FormatUint(uint64(item.ID), 10),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign qr token: %w", err)
	}
	return signed, nil
}

// Parse verifies a scan token and returns its claims
func (s *QRService) Parse(token string) (*models.QRClaims, error) {
	claims := &models.QRClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid qr token: %w", apperr.ErrInvalidInput)
	}
	if claims.Issuer != qrIssuer || claims.ItemID == 0 {
		return nil, fmt.Errorf("invalid qr token claims: %w", apperr.ErrInvalidInput)
	}
	return claims, nil
}

func (s *QRService) ScanURL(token string) string {
	return s.baseURL + "/scan/" + token
}

// PNG renders the label image for an owned, registered item
func (s *QRService) PNG(ctx context.Context, uid string, itemID uint) ([]byte, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerUID != uid {
		return nil, fmt.Errorf("item belongs to another user: %w", apperr.ErrForbidden)
	}
	if !item.QRRegistered {
		return nil, fmt.Errorf("item is not registered for qr labels: %w", apperr.ErrInvalidInput)
	}

	token, err := s.Sign(item)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.ScanURL(token), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

// Scan resolves a scanned token to the public item view and lets the owner
// know. scannerGPS is optional; when it parses, the distance to the item is
// included in the notification.
func (s *QRService) Scan(ctx context.Context, token, scannerGPS string) (*models.PublicItem, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, claims.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerUID != claims.OwnerUID || !item.QRRegistered {
		return nil, fmt.Errorf("qr token no longer matches item: %w", apperr.ErrNotFound)
	}

	scan := &models.ScanData{ItemID: item.ID}
	message := fmt.Sprintf("Someone scanned the QR label on %q.", item.Title)
	if pos, err := geo.ParseCoordinate(scannerGPS); err == nil {
		scan.ScannerGPS = pos.String()
		if itemPos, err := geo.ParseCoordinate(item.GPS); err == nil {
			d := geo.Haversine(pos, itemPos)
			scan.DistanceKm = &d
			message = fmt.Sprintf("Someone scanned the QR label on %q %.1f km from where it was reported.", item.Title, d)
		}
	}

	_, err = s.notifier.NotifyAndPush(ctx, NotificationInput{
		UserID:   item.OwnerUID,
		Type:     models.NotificationQRScan,
		Title:    "Your QR label was scanned",
		Message:  message,
		Priority: models.PriorityHigh,
		Link:     fmt.Sprintf("/items/%d", item.ID),
		Data:     &models.NotificationData{Scan: scan},
	})
	if err != nil {
		log.Warn().Err(err).Uint("item_id", item.ID).Msg("failed to notify owner about qr scan")
	}

	public := item.Public()
	return &public, nil
}
