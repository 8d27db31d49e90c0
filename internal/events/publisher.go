// Package events publishes booking lifecycle events to Kafka as CloudEvents
// so downstream services (notifications, analytics) can react without coupling
// to the booking database.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentaride/service-booking/pkg/kafka"
)

// Topic carrying all booking lifecycle events.
const TopicBookingEvents = "booking.events"

// Event types published to TopicBookingEvents.
const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypePaymentRecorded      = "booking.payment_recorded"
	TypeRewardAccrued        = "booking.reward_accrued"
)

// BookingCreatedEvent is emitted after a reservation commits.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalPrice int64     `json:"total_price"`
	FinalPrice int64     `json:"final_price"`
	CouponCode string    `json:"coupon_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingStatusChangedEvent is emitted on every booking status transition.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentRecordedEvent is emitted when a payment record is written for a
// booking.
type PaymentRecordedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PaymentID  uuid.UUID `json:"payment_id"`
	PayerID    uuid.UUID `json:"payer_id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RewardAccruedEvent is emitted when reward points are credited for a paid
// booking.
type RewardAccruedEvent struct {
	BookingID    uuid.UUID `json:"booking_id"`
	RenterID     uuid.UUID `json:"renter_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	RenterPoints int64     `json:"renter_points"`
	OwnerPoints  int64     `json:"owner_points"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher wraps the Kafka producer with typed booking events. Publishing is
// best effort: callers log failures and never roll back committed state over
// a broker error.
type Publisher struct {
	producer *kafka.Producer
	source   string
	logger   *zap.Logger
}

// NewPublisher creates a Publisher. source identifies this service in the
// CloudEvent envelope.
func NewPublisher(producer *kafka.Producer, source string, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		source:   source,
		logger:   logger,
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload any) error {
	ce, err := kafka.NewCloudEvent(p.source, eventType, payload)
	if err != nil {
		return err
	}
	return p.producer.PublishEvent(ctx, TopicBookingEvents, ce)
}

// PublishBookingCreated publishes a BookingCreatedEvent.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	return p.publish(ctx, TypeBookingCreated, ev)
}

// PublishBookingStatusChanged publishes a BookingStatusChangedEvent.
func (p *Publisher) PublishBookingStatusChanged(ctx context.Context, ev BookingStatusChangedEvent) error {
	return p.publish(ctx, TypeBookingStatusChanged, ev)
}

// PublishPaymentRecorded publishes a PaymentRecordedEvent.
func (p *Publisher) PublishPaymentRecorded(ctx context.Context, ev PaymentRecordedEvent) error {
	return p.publish(ctx, TypePaymentRecorded, ev)
}

// PublishRewardAccrued publishes a RewardAccruedEvent.
func (p *Publisher) PublishRewardAccrued(ctx context.Context, ev RewardAccruedEvent) error {
	return p.publish(ctx, TypeRewardAccrued, ev)
}
