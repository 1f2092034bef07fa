package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/rs/zerolog/log"
)

// Identity is what a verified Firebase ID token tells us about the caller
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

type UserService struct {
	users    repositories.UserRepository
	notifier *Notifier
}

func NewUserService(users repositories.UserRepository, notifier *Notifier) *UserService {
	return &UserService{users: users, notifier: notifier}
}

// Login upserts the local user record for id. A user seen for the first time
// gets a welcome notification; created reports that case.
func (s *UserService) Login(ctx context.Context, id Identity) (*models.User, bool, error) {
	if id.UID == "" {
		return nil, false, apperr.ErrMissingUserID
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))

	user, err := s.users.GetUserByFirebaseUID(ctx, id.UID)
	switch {
	case err == nil:
		changed := false
		if email != "" && user.Email != email {
			user.Email, changed = email, true
		}
		if id.Name != "" && user.Name != id.Name {
			user.Name, changed = id.Name, true
		}
		if changed {
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, false, fmt.Errorf("failed to update user details: %w", err)
			}
		}
		return user, false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, false, err
	}

	// an account created before the Firebase link is matched by email, but
	// only a verified email may take it over
	if email != "" {
		user, err = s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil && !id.EmailVerified:
			return nil, false, fmt.Errorf("email %s belongs to another account and is not verified: %w", email, apperr.ErrConflict)
		case err == nil:
			user.FirebaseUID = id.UID
			if id.Name != "" {
				user.Name = id.Name
			}
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, false, fmt.Errorf("failed to link firebase uid: %w", err)
			}
			return user, false, nil
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, false, err
		}
	}

	user = &models.User{Name: id.Name, Email: email, FirebaseUID: id.UID}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info().Str("firebase_uid", id.UID).Uint("user_id", user.ID).Msg("user created")

	name := user.Name
	if name == "" {
		name = "there"
	}
	if _, err := s.notifier.Notify(ctx, NotificationInput{
		UserID:   id.UID,
		Type:     models.NotificationSystem,
		Title:    "Welcome to FindIt",
		Message:  fmt.Sprintf("Hi %s! Report a lost or found item and we will tell you when something turns up nearby.", name),
		Priority: models.PriorityLow,
		Link:     "/items/new",
	}); err != nil {
		log.Warn().Err(err).Str("firebase_uid", id.UID).Msg("failed to send welcome notification")
	}
	return user, true, nil
}

func (s *UserService) Profile(ctx context.Context, uid string) (*models.User, error) {
	return s.users.GetUserByFirebaseUID(ctx, uid)
}

func (s *UserService) UpdateProfile(ctx context.Context, uid string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// LookupByEmail returns the public view of the user with email
func (s *UserService) LookupByEmail(ctx context.Context, email string) (*models.UserCompact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", apperr.ErrInvalidInput)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	compact := user.ToCompact()
	return &compact, nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]models.UserCompact, error) {
	users, err := s.users.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}
