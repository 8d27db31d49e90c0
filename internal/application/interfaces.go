// Package application orchestrates the booking use cases. Services depend on
// narrow repository interfaces so unit tests can swap in fakes; production
// wiring passes the GORM implementations from internal/repository.
package application

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
	couponDomain "github.com/rentaride/service-booking/internal/domain/coupon"
	paymentDomain "github.com/rentaride/service-booking/internal/domain/payment"
	"github.com/rentaride/service-booking/internal/domain/reward"
	userDomain "github.com/rentaride/service-booking/internal/domain/user"
	vehicleDomain "github.com/rentaride/service-booking/internal/domain/vehicle"
	"github.com/rentaride/service-booking/internal/events"
)

// TxManager runs a function inside a database transaction. A nil *gorm.DB
// handed to the function means the implementation has no real transaction
// (unit test fakes); repositories fall back to their own connection then.
type TxManager interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// VehicleRepository loads and mutates vehicle aggregates and their
// availability windows.
type VehicleRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error)
	AppendWindow(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, w vehicleDomain.AvailabilityWindow) error
	RemoveWindowByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) error
}

// UserRepository loads users and maintains reward balances and ledger
// entries.
type UserRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error)
	UpdatePoints(ctx context.Context, tx *gorm.DB, u *userDomain.User) error
	AppendRewardEntry(ctx context.Context, tx *gorm.DB, e reward.Entry) error
	HasRewardEntry(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, kind reward.Kind) (bool, error)
	ListRewardEntries(ctx context.Context, userID uuid.UUID) ([]reward.Entry, error)
}

// CouponRepository loads and mutates coupon aggregates.
type CouponRepository interface {
	Save(ctx context.Context, c *couponDomain.Coupon) error
	FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error)
	FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*couponDomain.Coupon, error)
	FindActive(ctx context.Context) ([]*couponDomain.Coupon, error)
	Update(ctx context.Context, tx *gorm.DB, c *couponDomain.Coupon) error
}

// BookingRepository persists booking aggregates.
type BookingRepository interface {
	Save(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error)
	Update(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error)
}

// PaymentRepository persists payment records.
type PaymentRepository interface {
	Save(ctx context.Context, tx *gorm.DB, p *paymentDomain.Payment) error
	FindLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error)
}

// EventPublisher emits booking lifecycle events after state commits.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev events.BookingCreatedEvent) error
	PublishBookingStatusChanged(ctx context.Context, ev events.BookingStatusChangedEvent) error
	PublishPaymentRecorded(ctx context.Context, ev events.PaymentRecordedEvent) error
	PublishRewardAccrued(ctx context.Context, ev events.RewardAccruedEvent) error
}
