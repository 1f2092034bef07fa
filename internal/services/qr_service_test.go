package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

func newQRService(f *fixture) *QRService {
	return NewQRService("test-secret", "https://findit.example/", f.items, f.notifier)
}

func TestQRService_RegisterAndScan(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newQRService(f)
	ctx := context.Background()
	item := f.seedItem(t, "owner", models.ItemLost, "Laptop", "6.5854,79.9606")

	if _, err := svc.Register(ctx, "intruder", item.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Register() by non-owner error = %v, want ErrForbidden", err)
	}

	reg, err := svc.Register(ctx, "owner", item.ID)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.ScanURL != "https://findit.example/scan/"+reg.Token {
		t.Errorf("ScanURL = %q", reg.ScanURL)
	}
	if !strings.HasSuffix(reg.ImageURL, "/api/v1/items/1/qr.png") {
		t.Errorf("ImageURL = %q", reg.ImageURL)
	}

	public, err := svc.Scan(ctx, reg.Token, "6.5857,79.9613")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if public.ID != item.ID || public.Title != "Laptop" {
		t.Errorf("Scan() = %+v", public)
	}

	notes := f.notifications.forUser("owner")
	if len(notes) != 1 || notes[0].Type != models.NotificationQRScan {
		t.Fatalf("owner notifications = %+v, want one qr_scan", notes)
	}
	scan := notes[0].Data.Scan
	if scan.ScannerGPS != "6.5857,79.9613" || scan.DistanceKm == nil || *scan.DistanceKm > 1 {
		t.Errorf("scan data = %+v", scan)
	}

	// a scan without a position still notifies, without distance
	if _, err := svc.Scan(ctx, reg.Token, ""); err != nil {
		t.Fatalf("Scan() without gps error = %v", err)
	}
	notes = f.notifications.forUser("owner")
	if len(notes) != 2 || notes[1].Data.Scan.DistanceKm != nil {
		t.Errorf("second scan data = %+v", notes[len(notes)-1].Data)
	}
}

func TestQRService_RejectsBadTokens(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newQRService(f)
	ctx := context.Background()
	item := f.seedItem(t, "owner", models.ItemLost, "Laptop", "6.5854,79.9606")

	unregistered, err := svc.Sign(item)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	forged, err := NewQRService("other-secret", "", f.items, f.notifier).Sign(item)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, models.QRClaims{ItemID: item.ID, OwnerUID: "owner",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: qrIssuer}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not-a-token", wantErr: apperr.ErrInvalidInput},
		{name: "wrong secret", token: forged, wantErr: apperr.ErrInvalidInput},
		{name: "alg none", token: unsigned, wantErr: apperr.ErrInvalidInput},
		{name: "item not registered", token: unregistered, wantErr: apperr.ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := svc.Scan(ctx, tt.token, ""); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Scan() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
	if n := len(f.notifications.forUser("owner")); n != 0 {
		t.Errorf("rejected scans produced %d notifications", n)
	}
}

func TestQRService_PNG(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newQRService(f)
	ctx := context.Background()
	item := f.seedItem(t, "owner", models.ItemFound, "Keys", "6.5854,79.9606")

	if _, err := svc.PNG(ctx, "owner", item.ID); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("PNG() before registration error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Register(ctx, "owner", item.ID); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.PNG(ctx, "intruder", item.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("PNG() by non-owner error = %v, want ErrForbidden", err)
	}

	png, err := svc.PNG(ctx, "owner", item.ID)
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("PNG() did not return a PNG image")
	}
}
