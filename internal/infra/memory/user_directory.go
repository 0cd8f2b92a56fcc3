package memory

import (
	"context"
	"strings"

	"course-authoring-service/internal/domain"
)

// StaticUserDirectory is a user lookup backed by a fixed slice (useful for tests/demos).
type StaticUserDirectory struct {
	byID    map[int64]domain.User
	byEmail map[string]domain.User
}

func NewStaticUserDirectory(users []domain.User) *StaticUserDirectory {
	d := &StaticUserDirectory{
		byID:    make(map[int64]domain.User, len(users)),
		byEmail: make(map[string]domain.User, len(users)),
	}
	for _, u := range users {
		d.byID[u.ID] = u
		d.byEmail[strings.ToLower(u.Email)] = u
	}
	return d
}

func (d *StaticUserDirectory) GetUser(_ context.Context, userID int64) (domain.User, error) {
	if u, ok := d.byID[userID]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *StaticUserDirectory) FindByEmail(_ context.Context, email string) (domain.User, error) {
	if u, ok := d.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}
