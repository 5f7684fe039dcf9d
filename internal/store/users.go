package store

import (
	"context"
	"strings"
)

// NewUser carries the client-controlled fields of a user.
type NewUser struct {
	Username    string
	Password    string
	DisplayName string
	Avatar      *string
	Bio         *string
}

// UserUpdate lists the mutable profile fields. Nil fields are left untouched.
type UserUpdate struct {
	DisplayName *string
	Avatar      *string
	Bio         *string
}

func (u UserUpdate) columns() map[string]any {
	columns := map[string]any{}
	if u.DisplayName != nil {
		columns["display_name"] = *u.DisplayName
	}
	if u.Avatar != nil {
		columns["avatar"] = *u.Avatar
	}
	if u.Bio != nil {
		columns["bio"] = *u.Bio
	}
	return columns
}

// CreateUser inserts a user stamped with the store clock.
func (s *Store) CreateUser(ctx context.Context, input NewUser) (User, error) {
	user := User{
		Username:    input.Username,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Avatar:      input.Avatar,
		Bio:         input.Bio,
		CreatedAt:   s.now(),
	}
	if err := s.conn(ctx).Create(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	return findByID[User](ctx, s, id)
}

// GetUserByUsername looks up a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return take[User](s.conn(ctx), "username = ?", username)
}

// UpdateUser applies the update command and returns the stored result.
func (s *Store) UpdateUser(ctx context.Context, id int64, update UserUpdate) (User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return User{}, err
	}
	if columns := update.columns(); len(columns) > 0 {
		if err := s.conn(ctx).Model(&User{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return User{}, err
		}
	}
	return s.GetUser(ctx, id)
}

// SearchUsers matches the query case-insensitively against username and display name.
func (s *Store) SearchUsers(ctx context.Context, query string) ([]User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []User{}, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	users := []User{}
	err := s.conn(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(display_name) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// ListUsersByIDs returns the users whose id is in ids, in id order.
func (s *Store) ListUsersByIDs(ctx context.Context, ids []int64) ([]User, error) {
	users := []User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := s.conn(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
