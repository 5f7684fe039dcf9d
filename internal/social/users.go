package social

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opRegister     = "social.register"
	opAuthenticate = "social.authenticate"
	opGetUser      = "social.get_user"
	opSearchUsers  = "social.search_users"
	opUpdateUser   = "social.update_user"
	opFollowers    = "social.followers"
	opFollowing    = "social.following"

	maxUsernameLength = 64
)

type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Avatar      *string
	Bio         *string
}

// Register creates an account. Usernames are unique.
func (s *Service) Register(ctx context.Context, input RegisterInput) (store.User, error) {
	username := strings.TrimSpace(input.Username)
	displayName := strings.TrimSpace(input.DisplayName)
	switch {
	case username == "":
		return store.User{}, validationError(opRegister, "missing_username", "Username is required")
	case len(username) > maxUsernameLength:
		return store.User{}, validationError(opRegister, "username_too_long", "Username is too long")
	case input.Password == "":
		return store.User{}, validationError(opRegister, "missing_password", "Password is required")
	case displayName == "":
		return store.User{}, validationError(opRegister, "missing_display_name", "Display name is required")
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return store.User{}, newServiceError(opRegister, "username_taken", ErrConflict, "Username already exists", nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, s.storeFailure(opRegister, err, "", zap.String("username", username))
	}

	user, err := s.store.CreateUser(ctx, store.NewUser{
		Username:    username,
		Password:    input.Password,
		DisplayName: displayName,
		Avatar:      input.Avatar,
		Bio:         input.Bio,
	})
	if err != nil {
		return store.User{}, s.storeFailure(opRegister, err, "", zap.String("username", username))
	}
	return user, nil
}

// Authenticate compares the supplied credentials with the stored ones.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, newServiceError(opAuthenticate, "unknown_user", ErrUnauthorized, "Invalid credentials", nil)
	}
	if err != nil {
		return store.User{}, s.storeFailure(opAuthenticate, err, "")
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return store.User{}, newServiceError(opAuthenticate, "password_mismatch", ErrUnauthorized, "Invalid credentials", nil)
	}
	return user, nil
}

// GetUser returns the user or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id int64) (store.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return store.User{}, s.storeFailure(opGetUser, err, "User not found", zap.Int64("user_id", id))
	}
	return user, nil
}

// SearchUsers returns no users for an empty query.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]store.User, error) {
	users, err := s.store.SearchUsers(ctx, query)
	if err != nil {
		return nil, s.storeFailure(opSearchUsers, err, "")
	}
	return users, nil
}

// UpdateUser applies a partial profile update.
func (s *Service) UpdateUser(ctx context.Context, id int64, update store.UserUpdate) (store.User, error) {
	if update.DisplayName != nil {
		trimmed := strings.TrimSpace(*update.DisplayName)
		if trimmed == "" {
			return store.User{}, validationError(opUpdateUser, "empty_display_name", "Display name cannot be empty")
		}
		update.DisplayName = &trimmed
	}
	user, err := s.store.UpdateUser(ctx, id, update)
	if err != nil {
		return store.User{}, s.storeFailure(opUpdateUser, err, "User not found", zap.Int64("user_id", id))
	}
	return user, nil
}

// GetFollowers lists users following userID.
func (s *Service) GetFollowers(ctx context.Context, userID int64) ([]store.User, error) {
	users, err := s.feed.GetFollowers(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opFollowers, err, "", zap.Int64("user_id", userID))
	}
	return users, nil
}

// GetFollowing lists users that userID follows.
func (s *Service) GetFollowing(ctx context.Context, userID int64) ([]store.User, error) {
	users, err := s.feed.GetFollowing(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opFollowing, err, "", zap.Int64("user_id", userID))
	}
	return users, nil
}
