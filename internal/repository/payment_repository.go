package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentaride/service-booking/internal/domain"
	paymentDomain "github.com/rentaride/service-booking/internal/domain/payment"
)

// PaymentModel is the GORM persistence model for the payments table. Each
// settlement attempt gets its own row so a booking keeps its full payment
// history.
type PaymentModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	PayerID       uuid.UUID  `gorm:"type:uuid;not null"`
	Amount        int64      `gorm:"not null"`
	Method        string     `gorm:"type:varchar(30);not null"`
	TransactionID string     `gorm:"type:varchar(100)"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"`
	PaidAt        *time.Time `gorm:"type:timestamptz"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PaymentModel) TableName() string { return "payments" }

// PaymentRepositoryImpl is the GORM-based payment repository.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// Save persists a new payment record inside the given transaction.
func (r *PaymentRepositoryImpl) Save(ctx context.Context, tx *gorm.DB, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	return conn(r.db, tx).WithContext(ctx).Create(&model).Error
}

// FindLatestByBooking returns the most recent payment record for a booking.
func (r *PaymentRepositoryImpl) FindLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", bookingID.String())
		}
		return nil, err
	}
	return toPaymentDomain(&model), nil
}

// ListByBooking returns all payment records for a booking, newest first.
func (r *PaymentRepositoryImpl) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, nil
}

func toPaymentModel(p *paymentDomain.Payment) PaymentModel {
	return PaymentModel{
		ID:            p.ID(),
		BookingID:     p.BookingID(),
		PayerID:       p.PayerID(),
		Amount:        p.Amount(),
		Method:        p.Method(),
		TransactionID: p.TransactionID(),
		Status:        string(p.Status()),
		PaidAt:        p.PaidAt(),
		CreatedAt:     p.CreatedAt(),
	}
}

func toPaymentDomain(m *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstitute(
		m.ID, m.BookingID, m.PayerID,
		m.Amount, m.Method, m.TransactionID,
		paymentDomain.Status(m.Status),
		m.PaidAt, m.CreatedAt,
	)
}
