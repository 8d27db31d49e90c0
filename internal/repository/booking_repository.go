package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentaride/service-booking/internal/domain"
	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
)

// BookingModel is the GORM persistence model for the bookings table. The
// payment summary is embedded as payment_* columns so a booking row is
// self-describing without a join.
type BookingModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VehicleID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	RenterID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	StartDate            time.Time  `gorm:"type:timestamptz;not null"`
	EndDate              time.Time  `gorm:"type:timestamptz;not null"`
	TotalPrice           int64      `gorm:"not null"`
	Status               string     `gorm:"type:varchar(20);not null;default:'pending'"`
	CouponID             *uuid.UUID `gorm:"type:uuid"`
	PaymentStatus        string     `gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMethod        string     `gorm:"type:varchar(30)"`
	PaymentTransactionID string     `gorm:"type:varchar(100)"`
	PaymentAmount        int64      `gorm:"default:0"`
	PaymentPaidAt        *time.Time `gorm:"type:timestamptz"`
	CreatedAt            time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt            time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// BookingRepositoryImpl is the GORM-based booking repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// Save persists a new booking inside the given transaction.
func (r *BookingRepositoryImpl) Save(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	return conn(r.db, tx).WithContext(ctx).Create(&model).Error
}

// FindByID retrieves a booking by its ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findByID(ctx, r.db, id, false)
}

// FindByIDForUpdate retrieves a booking holding a FOR UPDATE row lock so
// status and payment transitions serialize per booking.
func (r *BookingRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findByID(ctx, conn(r.db, tx), id, true)
}

func (r *BookingRepositoryImpl) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID, lock bool) (*bookingDomain.Booking, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model BookingModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// Update persists booking status and payment summary changes.
func (r *BookingRepositoryImpl) Update(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error {
	p := b.Payment()
	return conn(r.db, tx).WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", b.ID()).
		Updates(map[string]any{
			"status":                 string(b.Status()),
			"payment_status":         string(p.Status),
			"payment_method":         p.Method,
			"payment_transaction_id": p.TransactionID,
			"payment_amount":         p.Amount,
			"payment_paid_at":        p.PaidAt,
			"updated_at":             b.UpdatedAt(),
		}).Error
}

// ListByRenter returns the renter's bookings, newest first.
func (r *BookingRepositoryImpl) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, nil
}

func toBookingModel(b *bookingDomain.Booking) BookingModel {
	p := b.Payment()
	return BookingModel{
		ID:                   b.ID(),
		VehicleID:            b.VehicleID(),
		RenterID:             b.RenterID(),
		StartDate:            b.StartDate(),
		EndDate:              b.EndDate(),
		TotalPrice:           b.TotalPrice(),
		Status:               string(b.Status()),
		CouponID:             b.CouponID(),
		PaymentStatus:        string(p.Status),
		PaymentMethod:        p.Method,
		PaymentTransactionID: p.TransactionID,
		PaymentAmount:        p.Amount,
		PaymentPaidAt:        p.PaidAt,
		CreatedAt:            b.CreatedAt(),
		UpdatedAt:            b.UpdatedAt(),
	}
}

func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	summary := bookingDomain.PaymentSummary{
		Status:        bookingDomain.PaymentStatus(m.PaymentStatus),
		Method:        m.PaymentMethod,
		TransactionID: m.PaymentTransactionID,
		Amount:        m.PaymentAmount,
		PaidAt:        m.PaymentPaidAt,
	}
	return bookingDomain.Reconstitute(
		m.ID, m.VehicleID, m.RenterID,
		m.StartDate, m.EndDate,
		m.TotalPrice, bookingDomain.Status(m.Status),
		m.CouponID, summary,
		m.CreatedAt, m.UpdatedAt,
	)
}
