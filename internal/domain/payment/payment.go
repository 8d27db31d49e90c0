package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/domain"
)

// ErrInvalidStatus rejects payment status values outside the known set.
var ErrInvalidStatus = &domain.DomainError{Err: domain.ErrValidation, Entity: "Payment", Message: "invalid payment status value"}

// Status is the lifecycle state of a payment ledger record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// MethodOffline is the default method when the caller supplies none.
const MethodOffline = "offline"

// Payment is the durable record of the financial side of a booking. Records
// are append-only: refunds and adjustments add new rows rather than
// rewriting history.
type Payment struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	payerID       uuid.UUID
	amount        int64
	method        string
	transactionID string
	status        Status
	paidAt        *time.Time
	createdAt     time.Time
}

// NewPayment creates a payment record for a booking. When succeeded is true
// the record is created in success state with paidAt stamped, otherwise it
// starts pending. An empty method defaults to offline.
func NewPayment(bookingID, payerID uuid.UUID, amount int64, method, transactionID string, succeeded bool) *Payment {
	now := time.Now().UTC()
	if method == "" {
		method = MethodOffline
	}
	p := &Payment{
		id:            uuid.New(),
		bookingID:     bookingID,
		payerID:       payerID,
		amount:        amount,
		method:        method,
		transactionID: transactionID,
		status:        StatusPending,
		createdAt:     now,
	}
	if succeeded {
		p.status = StatusSuccess
		p.paidAt = &now
	}
	return p
}

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(id, bookingID, payerID uuid.UUID, amount int64, method, transactionID string, status Status, paidAt *time.Time, createdAt time.Time) *Payment {
	return &Payment{
		id:            id,
		bookingID:     bookingID,
		payerID:       payerID,
		amount:        amount,
		method:        method,
		transactionID: transactionID,
		status:        status,
		paidAt:        paidAt,
		createdAt:     createdAt,
	}
}

func (p *Payment) ID() uuid.UUID         { return p.id }
func (p *Payment) BookingID() uuid.UUID  { return p.bookingID }
func (p *Payment) PayerID() uuid.UUID    { return p.payerID }
func (p *Payment) Amount() int64         { return p.amount }
func (p *Payment) Method() string        { return p.method }
func (p *Payment) TransactionID() string { return p.transactionID }
func (p *Payment) Status() Status        { return p.status }
func (p *Payment) PaidAt() *time.Time    { return p.paidAt }
func (p *Payment) CreatedAt() time.Time  { return p.createdAt }

// Succeeded reports whether the payment settled successfully.
func (p *Payment) Succeeded() bool { return p.status == StatusSuccess }
