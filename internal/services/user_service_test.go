package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
)

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewUserService(f.userRepo, f.notifier)
	ctx := context.Background()

	user, created, err := svc.Login(ctx, Identity{UID: "uid-1", Email: "Amal@Example.com", Name: "Amal"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !created || user.Email != "amal@example.com" || user.FirebaseUID != "uid-1" {
		t.Errorf("Login() = %+v created=%v", user, created)
	}
	notes := f.notifications.forUser("uid-1")
	if len(notes) != 1 || notes[0].Type != models.NotificationSystem {
		t.Fatalf("welcome notifications = %+v, want one system", notes)
	}

	again, created, err := svc.Login(ctx, Identity{UID: "uid-1", Email: "amal@example.com", Name: "Amal P"})
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if created || again.ID != user.ID || again.Name != "Amal P" {
		t.Errorf("second Login() = %+v created=%v", again, created)
	}
	if n := len(f.notifications.forUser("uid-1")); n != 1 {
		t.Errorf("returning user got %d welcome notifications, want 1", n)
	}

	if _, _, err := svc.Login(ctx, Identity{Email: "x@example.com"}); !errors.Is(err, apperr.ErrMissingUserID) {
		t.Errorf("Login() without uid error = %v, want ErrMissingUserID", err)
	}
}

func TestUserService_LoginLinksExistingEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewUserService(f.userRepo, f.notifier)
	ctx := context.Background()

	legacy := &models.User{Name: "Kamal", Email: "kamal@example.com", FirebaseUID: "legacy-uid"}
	if err := f.userRepo.CreateUser(ctx, legacy); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, _, err := svc.Login(ctx, Identity{UID: "attacker-uid", Email: "kamal@example.com"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Login() with unverified email error = %v, want ErrConflict", err)
	}
	if kept, err := f.userRepo.GetUserByEmail(ctx, "kamal@example.com"); err != nil || kept.FirebaseUID != "legacy-uid" {
		t.Fatalf("unverified login relinked the account: %+v, %v", kept, err)
	}

	user, created, err := svc.Login(ctx, Identity{UID: "new-uid", Email: "kamal@example.com", EmailVerified: true})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if created || user.ID != legacy.ID || user.FirebaseUID != "new-uid" {
		t.Errorf("Login() = %+v created=%v, want legacy account relinked", user, created)
	}
}

func TestUserService_Profile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewUserService(f.userRepo, f.notifier)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, Identity{UID: "uid-2", Email: "sunil@example.com", Name: "Sunil"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, "uid-2", &models.UpdateUserRequest{Phone: "+94771234567"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Phone != "+94771234567" || updated.Name != "Sunil" {
		t.Errorf("UpdateProfile() = %+v", updated)
	}

	found, err := svc.LookupByEmail(ctx, " SUNIL@example.com ")
	if err != nil {
		t.Fatalf("LookupByEmail() error = %v", err)
	}
	if found.FirebaseUID != "uid-2" {
		t.Errorf("LookupByEmail() = %+v", found)
	}
	if _, err := svc.LookupByEmail(ctx, "nobody@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LookupByEmail() missing error = %v, want ErrNotFound", err)
	}
	if _, err := svc.LookupByEmail(ctx, ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("LookupByEmail() empty error = %v, want ErrInvalidInput", err)
	}

	results, err := svc.Search(ctx, "sun")
	if err != nil || len(results) != 1 {
		t.Errorf("Search() = %v, %v", results, err)
	}
}
