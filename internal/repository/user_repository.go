package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentaride/service-booking/internal/domain"
	"github.com/rentaride/service-booking/internal/domain/reward"
	userDomain "github.com/rentaride/service-booking/internal/domain/user"
)

// UserModel is the GORM persistence model for the users table.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName     string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	RewardPoints int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (UserModel) TableName() string { return "users" }

// RewardEntryModel is the GORM model for the append-only reward ledger.
type RewardEntryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
	Points    int64     `gorm:"not null"`
	Kind      string    `gorm:"type:varchar(20);not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (RewardEntryModel) TableName() string { return "reward_entries" }

// UserRepositoryImpl is the GORM-based user repository.
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user repository.
func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// FindByID retrieves a user by ID.
func (r *UserRepositoryImpl) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error) {
	return r.find(ctx, conn(r.db, tx), id, false)
}

// FindByIDForUpdate retrieves a user holding a FOR UPDATE row lock, used
// when the reward balance is about to be mutated.
func (r *UserRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error) {
	return r.find(ctx, conn(r.db, tx), id, true)
}

func (r *UserRepositoryImpl) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock bool) (*userDomain.User, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model UserModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, err
	}
	return userDomain.Reconstitute(
		model.ID, model.FullName, model.Email,
		userDomain.Role(model.Role), model.RewardPoints,
		model.CreatedAt, model.UpdatedAt,
	), nil
}

// Save persists a new user.
func (r *UserRepositoryImpl) Save(ctx context.Context, u *userDomain.User) error {
	model := UserModel{
		ID:           u.ID(),
		FullName:     u.FullName(),
		Email:        u.Email(),
		Role:         string(u.Role()),
		RewardPoints: u.RewardPoints(),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// UpdatePoints persists the user's current reward balance.
func (r *UserRepositoryImpl) UpdatePoints(ctx context.Context, tx *gorm.DB, u *userDomain.User) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", u.ID()).
		Updates(map[string]any{
			"reward_points": u.RewardPoints(),
			"updated_at":    u.UpdatedAt(),
		}).Error
}

// AppendRewardEntry inserts one reward ledger row.
func (r *UserRepositoryImpl) AppendRewardEntry(ctx context.Context, tx *gorm.DB, e reward.Entry) error {
	model := RewardEntryModel{
		ID:        e.ID,
		UserID:    e.UserID,
		BookingID: e.BookingID,
		Points:    e.Points,
		Kind:      string(e.Kind),
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
	return conn(r.db, tx).WithContext(ctx).Create(&model).Error
}

// HasRewardEntry reports whether the booking already produced a ledger entry
// of the given kind. The reservation and payment-settlement paths use this
// to keep accrual idempotent.
func (r *UserRepositoryImpl) HasRewardEntry(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, kind reward.Kind) (bool, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).
		Model(&RewardEntryModel{}).
		Where("booking_id = ? AND kind = ?", bookingID, string(kind)).
		Count(&count).Error
	return count > 0, err
}

// ListRewardEntries returns a user's reward history, newest first.
func (r *UserRepositoryImpl) ListRewardEntries(ctx context.Context, userID uuid.UUID) ([]reward.Entry, error) {
	var models []RewardEntryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]reward.Entry, len(models))
	for i, m := range models {
		entries[i] = reward.Entry{
			ID:        m.ID,
			UserID:    m.UserID,
			BookingID: m.BookingID,
			Points:    m.Points,
			Kind:      reward.Kind(m.Kind),
			Note:      m.Note,
			CreatedAt: m.CreatedAt,
		}
	}
	return entries, nil
}
