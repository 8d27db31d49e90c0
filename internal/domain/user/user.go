package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/domain"
)

// Role describes how a user participates in the marketplace.
type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// User is a marketplace participant carrying a reward point balance. The
// reward history itself lives in the append-only ledger (see the reward
// package); the aggregate only tracks the running balance.
type User struct {
	id           uuid.UUID
	fullName     string
	email        string
	role         Role
	rewardPoints int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a user with a zero reward balance.
func NewUser(fullName, email string, role Role) (*User, error) {
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if role != RoleRenter && role != RoleOwner && role != RoleAdmin {
		return nil, domain.NewValidationError("invalid role: " + string(role))
	}
	now := time.Now().UTC()
	return &User{
		id:        uuid.New(),
		fullName:  fullName,
		email:     email,
		role:      role,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute rebuilds a User from persisted data.
func Reconstitute(id uuid.UUID, fullName, email string, role Role, rewardPoints int64, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		fullName:     fullName,
		email:        email,
		role:         role,
		rewardPoints: rewardPoints,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) FullName() string     { return u.fullName }
func (u *User) Email() string        { return u.email }
func (u *User) Role() Role           { return u.role }
func (u *User) RewardPoints() int64  { return u.rewardPoints }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// AddPoints adjusts the reward balance. The balance is never allowed to go
// negative.
func (u *User) AddPoints(points int64) error {
	if u.rewardPoints+points < 0 {
		return domain.NewValidationError("reward balance cannot go negative")
	}
	u.rewardPoints += points
	u.updatedAt = time.Now().UTC()
	return nil
}
