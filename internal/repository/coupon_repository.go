package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	couponDomain "github.com/rentaride/service-booking/internal/domain/coupon"
)

// CouponModel is the GORM persistence model for the coupons table.
type CouponModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code       string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Kind       string     `gorm:"type:varchar(20);not null"`
	Value      int64      `gorm:"not null"`
	MinAmount  int64      `gorm:"default:0"`
	UsageLimit int        `gorm:"default:0"`
	UsedCount  int        `gorm:"default:0"`
	Active     bool       `gorm:"not null;default:true"`
	ExpiresAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (CouponModel) TableName() string { return "coupons" }

// CouponRepositoryImpl is the GORM-based coupon repository.
type CouponRepositoryImpl struct {
	db *gorm.DB
}

// NewCouponRepository creates a new GORM-based coupon repository.
func NewCouponRepository(db *gorm.DB) *CouponRepositoryImpl {
	return &CouponRepositoryImpl{db: db}
}

// Save persists a new coupon.
func (r *CouponRepositoryImpl) Save(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByCode retrieves an active coupon by its code.
func (r *CouponRepositoryImpl) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	return r.findByCode(ctx, r.db, code, false)
}

// FindByCodeForUpdate retrieves an active coupon holding a FOR UPDATE row
// lock so the usage counter mutates under the same serialization as the
// rest of the reservation.
func (r *CouponRepositoryImpl) FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*couponDomain.Coupon, error) {
	return r.findByCode(ctx, conn(r.db, tx), code, true)
}

func (r *CouponRepositoryImpl) findByCode(ctx context.Context, db *gorm.DB, code string, lock bool) (*couponDomain.Coupon, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model CouponModel
	if err := q.Where("code = ? AND active = ?", code, true).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, couponDomain.ErrNotFound
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

// FindActive returns all currently usable coupons.
func (r *CouponRepositoryImpl) FindActive(ctx context.Context) ([]*couponDomain.Coupon, error) {
	now := time.Now().UTC()
	var models []CouponModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	coupons := make([]*couponDomain.Coupon, len(models))
	for i := range models {
		coupons[i] = toCouponDomain(&models[i])
	}
	return coupons, nil
}

// Update persists the coupon's usage counter and active flag.
func (r *CouponRepositoryImpl) Update(ctx context.Context, tx *gorm.DB, c *couponDomain.Coupon) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&CouponModel{}).
		Where("id = ?", c.ID()).
		Updates(map[string]any{
			"used_count": c.UsedCount(),
			"active":     c.Active(),
			"updated_at": c.UpdatedAt(),
		}).Error
}

func toCouponModel(c *couponDomain.Coupon) CouponModel {
	return CouponModel{
		ID:         c.ID(),
		Code:       c.Code(),
		Kind:       string(c.Kind()),
		Value:      c.Value(),
		MinAmount:  c.MinAmount(),
		UsageLimit: c.UsageLimit(),
		UsedCount:  c.UsedCount(),
		Active:     c.Active(),
		ExpiresAt:  c.ExpiresAt(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

func toCouponDomain(m *CouponModel) *couponDomain.Coupon {
	return couponDomain.Reconstitute(
		m.ID, m.Code, couponDomain.Kind(m.Kind),
		m.Value, m.MinAmount,
		m.UsageLimit, m.UsedCount, m.Active,
		m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
	)
}
