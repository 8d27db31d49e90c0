package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentaride/service-booking/internal/domain"
	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
	paymentDomain "github.com/rentaride/service-booking/internal/domain/payment"
	"github.com/rentaride/service-booking/internal/domain/reward"
	vehicleDomain "github.com/rentaride/service-booking/internal/domain/vehicle"
	"github.com/rentaride/service-booking/internal/events"
)

// UpdateBookingStatusRequest is the DTO for booking status transitions.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the DTO for payment status updates.
type UpdatePaymentStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

// BookingService handles booking queries and the status-update operations
// outside the reservation flow.
type BookingService struct {
	txm       TxManager
	vehicles  VehicleRepository
	users     UserRepository
	bookings  BookingRepository
	payments  PaymentRepository
	ledger    *reward.Ledger
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	txm TxManager,
	vehicles VehicleRepository,
	users UserRepository,
	bookings BookingRepository,
	payments PaymentRepository,
	ledger *reward.Ledger,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		txm:       txm,
		vehicles:  vehicles,
		users:     users,
		bookings:  bookings,
		payments:  payments,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// GetBooking retrieves a booking by its ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingView, error) {
	bkg, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return toBookingView(bkg, nil), nil
}

// ListUserBookings returns all bookings for a renter, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, renterID uuid.UUID) ([]BookingView, error) {
	bookings, err := s.bookings.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	views := make([]BookingView, len(bookings))
	for i, b := range bookings {
		views[i] = *toBookingView(b, nil)
	}
	return views, nil
}

// IsAvailable reports whether the vehicle is free for the requested interval.
func (s *BookingService) IsAvailable(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, bookingDomain.ErrInvalidDateRange
	}
	veh, err := s.vehicles.FindByID(ctx, nil, vehicleID)
	if err != nil {
		return false, err
	}
	return veh.IsAvailable(start, end), nil
}

// GetBookedDates returns the vehicle's booked intervals.
func (s *BookingService) GetBookedDates(ctx context.Context, vehicleID uuid.UUID) ([]vehicleDomain.DateRange, error) {
	veh, err := s.vehicles.FindByID(ctx, nil, vehicleID)
	if err != nil {
		return nil, err
	}
	return veh.BookedDates(), nil
}

// RewardHistory returns a user's reward ledger entries, newest first.
func (s *BookingService) RewardHistory(ctx context.Context, userID uuid.UUID) ([]reward.Entry, error) {
	if _, err := s.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	return s.users.ListRewardEntries(ctx, userID)
}

// UpdateBookingStatus transitions a booking through its state machine.
// Cancelling also retracts the booking's availability window so the dates
// open up again, in the same transaction.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, target bookingDomain.Status) (*BookingView, error) {
	s.logger.Info("updating booking status",
		zap.String("booking_id", bookingID.String()),
		zap.String("target", string(target)),
	)

	var (
		view      *BookingView
		oldStatus bookingDomain.Status
	)

	err := s.txm.Transaction(ctx, func(tx *gorm.DB) error {
		bkg, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		oldStatus = bkg.Status()

		if err := bkg.TransitionTo(target); err != nil {
			return err
		}
		if target == bookingDomain.StatusCancelled {
			if err := s.vehicles.RemoveWindowByBooking(ctx, tx, bookingID); err != nil {
				return err
			}
		}
		if err := s.bookings.Update(ctx, tx, bkg); err != nil {
			return err
		}

		view = toBookingView(bkg, nil)
		return nil
	})
	if err != nil {
		return nil, wrapCommit(err)
	}

	if err := s.publisher.PublishBookingStatusChanged(ctx, events.BookingStatusChangedEvent{
		BookingID:  bookingID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(view.Status),
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to publish booking status changed event", zap.Error(err))
	}
	return view, nil
}

// UpdatePaymentStatus updates the booking's payment summary and appends a
// payment ledger row recording the change. A transition to paid accrues
// rewards for renter and owner exactly once per booking.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, req UpdatePaymentStatusRequest) (*BookingView, error) {
	target := bookingDomain.PaymentStatus(req.Status)

	s.logger.Info("updating payment status",
		zap.String("booking_id", bookingID.String()),
		zap.String("target", req.Status),
	)

	var (
		view        *BookingView
		pay         *paymentDomain.Payment
		accrued     bool
		ownerID     uuid.UUID
		renterEntry reward.Entry
		ownerEntry  reward.Entry
	)

	err := s.txm.Transaction(ctx, func(tx *gorm.DB) error {
		bkg, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if err := bkg.SetPaymentStatus(target, req.Method, req.TransactionID); err != nil {
			return err
		}

		summary := bkg.Payment()
		settled := target == bookingDomain.PaymentPaid
		pay = paymentDomain.NewPayment(bookingID, bkg.RenterID(), bkg.TotalPrice(), summary.Method, summary.TransactionID, settled)
		if err := s.payments.Save(ctx, tx, pay); err != nil {
			return err
		}

		if settled {
			accrued, renterEntry, ownerEntry, ownerID, err = s.accrueOnce(ctx, tx, bkg)
			if err != nil {
				return err
			}
		}

		if err := s.bookings.Update(ctx, tx, bkg); err != nil {
			return err
		}

		view = toBookingView(bkg, nil)
		return nil
	})
	if err != nil {
		return nil, wrapCommit(err)
	}

	now := time.Now().UTC()
	if err := s.publisher.PublishPaymentRecorded(ctx, events.PaymentRecordedEvent{
		BookingID:  bookingID,
		PaymentID:  pay.ID(),
		PayerID:    pay.PayerID(),
		Amount:     pay.Amount(),
		Method:     pay.Method(),
		Status:     string(pay.Status()),
		OccurredAt: now,
	}); err != nil {
		s.logger.Warn("failed to publish payment recorded event", zap.Error(err))
	}
	if accrued {
		if err := s.publisher.PublishRewardAccrued(ctx, events.RewardAccruedEvent{
			BookingID:    bookingID,
			RenterID:     view.RenterID,
			OwnerID:      ownerID,
			RenterPoints: renterEntry.Points,
			OwnerPoints:  ownerEntry.Points,
			OccurredAt:   now,
		}); err != nil {
			s.logger.Warn("failed to publish reward accrued event", zap.Error(err))
		}
	}
	return view, nil
}

// accrueOnce credits rewards for the booking unless an earn entry already
// exists, which makes repeated paid transitions idempotent.
func (s *BookingService) accrueOnce(ctx context.Context, tx *gorm.DB, bkg *bookingDomain.Booking) (bool, reward.Entry, reward.Entry, uuid.UUID, error) {
	exists, err := s.users.HasRewardEntry(ctx, tx, bkg.ID(), reward.KindEarn)
	if err != nil || exists {
		return false, reward.Entry{}, reward.Entry{}, uuid.Nil, err
	}

	veh, err := s.vehicles.FindByID(ctx, tx, bkg.VehicleID())
	if err != nil {
		return false, reward.Entry{}, reward.Entry{}, uuid.Nil, err
	}
	renter, err := s.users.FindByIDForUpdate(ctx, tx, bkg.RenterID())
	if err != nil {
		return false, reward.Entry{}, reward.Entry{}, uuid.Nil, renameNotFound(err, "Renter", bkg.RenterID())
	}
	owner, err := s.users.FindByIDForUpdate(ctx, tx, veh.OwnerID())
	if err != nil {
		return false, reward.Entry{}, reward.Entry{}, uuid.Nil, renameNotFound(err, "Owner", veh.OwnerID())
	}

	renterEntry, ownerEntry, err := accrueRewards(ctx, tx, s.users, s.ledger, renter, owner, bkg.ID(), bkg.TotalPrice())
	if err != nil {
		return false, reward.Entry{}, reward.Entry{}, uuid.Nil, err
	}
	return true, renterEntry, ownerEntry, owner.ID(), nil
}

// wrapCommit passes domain taxonomy errors through and wraps anything else
// as a commit failure.
func wrapCommit(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCommitFailed, err)
}
