package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/domain"
	"github.com/rentaride/service-booking/internal/domain/payment"
)

var (
	// ErrInvalidDateRange is returned when the rental end date is not
	// strictly after the start date.
	ErrInvalidDateRange = &domain.DomainError{Err: domain.ErrValidation, Entity: "Booking", Message: "booking end date must be after start date"}

	// ErrInvalidStatus is returned when a status update names a value outside
	// the enumerated set.
	ErrInvalidStatus = &domain.DomainError{Err: domain.ErrValidation, Entity: "Booking", Message: "invalid status value"}
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// transitions defines the legal booking state machine: pending -> confirmed
// -> completed, with cancellation reachable from pending or confirmed.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether s is one of the four enumerated states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the state of the booking's embedded payment summary.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentPartial  PaymentStatus = "partial"
)

// ValidPaymentStatus reports whether s is one of the enumerated summary
// states.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded, PaymentPartial:
		return true
	}
	return false
}

// PaymentSummary is the denormalized projection of the booking's latest
// payment record, kept for fast reads. Only the reservation coordinator and
// the payment-status update path may write it.
type PaymentSummary struct {
	Status        PaymentStatus `json:"status"`
	Method        string        `json:"method,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Amount        int64         `json:"amount"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// PaymentInfo is the optional payment detail supplied with a reservation
// request. Every field is independently optional. A Status of "paid" or
// "success" indicates the payment already settled.
type PaymentInfo struct {
	Status        string `json:"status,omitempty"`
	Method        string `json:"method,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Settled reports whether the info marks the payment as already successful.
func (i *PaymentInfo) Settled() bool {
	if i == nil {
		return false
	}
	return i.Status == "paid" || i.Status == "success"
}

// Booking is the aggregate root of a reservation.
type Booking struct {
	id         uuid.UUID
	vehicleID  uuid.UUID
	renterID   uuid.UUID
	startDate  time.Time
	endDate    time.Time
	totalPrice int64
	status     Status
	couponID   *uuid.UUID
	payment    PaymentSummary
	createdAt  time.Time
	updatedAt  time.Time
}

// NewBooking creates a pending booking for the half-open window
// [start, end). The total price is the post-discount amount.
func NewBooking(vehicleID, renterID uuid.UUID, start, end time.Time, totalPrice int64, couponID *uuid.UUID) (*Booking, error) {
	if !end.After(start) {
		return nil, ErrInvalidDateRange
	}
	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		vehicleID:  vehicleID,
		renterID:   renterID,
		startDate:  start,
		endDate:    end,
		totalPrice: totalPrice,
		status:     StatusPending,
		couponID:   couponID,
		payment:    PaymentSummary{Status: PaymentUnpaid, Amount: totalPrice},
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(id, vehicleID, renterID uuid.UUID, start, end time.Time, totalPrice int64, status Status, couponID *uuid.UUID, summary PaymentSummary, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		id:         id,
		vehicleID:  vehicleID,
		renterID:   renterID,
		startDate:  start,
		endDate:    end,
		totalPrice: totalPrice,
		status:     status,
		couponID:   couponID,
		payment:    summary,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) VehicleID() uuid.UUID    { return b.vehicleID }
func (b *Booking) RenterID() uuid.UUID     { return b.renterID }
func (b *Booking) StartDate() time.Time    { return b.startDate }
func (b *Booking) EndDate() time.Time      { return b.endDate }
func (b *Booking) TotalPrice() int64       { return b.totalPrice }
func (b *Booking) Status() Status          { return b.status }
func (b *Booking) CouponID() *uuid.UUID    { return b.couponID }
func (b *Booking) Payment() PaymentSummary { return b.payment }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time    { return b.updatedAt }

// TransitionTo moves the booking to target if the state machine allows it.
// Unknown values are rejected with ErrInvalidStatus, known-but-illegal
// transitions with an invalid-state error.
func (b *Booking) TransitionTo(target Status) error {
	if !ValidStatus(target) {
		return ErrInvalidStatus
	}
	for _, allowed := range transitions[b.status] {
		if allowed == target {
			b.status = target
			b.updatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.NewInvalidStateError(string(b.status), string(target))
}

// SyncPayment refreshes the embedded summary from the payment record, the
// single source of truth at creation time. A settled payment confirms a
// pending booking.
func (b *Booking) SyncPayment(p *payment.Payment) {
	status := PaymentUnpaid
	if p.Succeeded() {
		status = PaymentPaid
	}
	b.payment = PaymentSummary{
		Status:        status,
		Method:        p.Method(),
		TransactionID: p.TransactionID(),
		Amount:        p.Amount(),
		PaidAt:        p.PaidAt(),
	}
	if p.Succeeded() && b.status == StatusPending {
		b.status = StatusConfirmed
	}
	b.updatedAt = time.Now().UTC()
}

// SetPaymentStatus updates the embedded summary from the payment-status
// update path. Moving to paid stamps PaidAt; any other status clears it.
func (b *Booking) SetPaymentStatus(status PaymentStatus, method, transactionID string) error {
	if !ValidPaymentStatus(status) {
		return payment.ErrInvalidStatus
	}
	b.payment.Status = status
	if method != "" {
		b.payment.Method = method
	}
	if transactionID != "" {
		b.payment.TransactionID = transactionID
	}
	if status == PaymentPaid {
		now := time.Now().UTC()
		b.payment.PaidAt = &now
	} else {
		b.payment.PaidAt = nil
	}
	b.updatedAt = time.Now().UTC()
	return nil
}
