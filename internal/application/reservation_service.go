package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentaride/service-booking/internal/domain"
	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
	couponDomain "github.com/rentaride/service-booking/internal/domain/coupon"
	paymentDomain "github.com/rentaride/service-booking/internal/domain/payment"
	"github.com/rentaride/service-booking/internal/domain/reward"
	userDomain "github.com/rentaride/service-booking/internal/domain/user"
	vehicleDomain "github.com/rentaride/service-booking/internal/domain/vehicle"
	"github.com/rentaride/service-booking/internal/events"
)

// ErrCommitFailed wraps unexpected infrastructure failures inside the
// reservation unit of work. Domain taxonomy errors pass through unwrapped.
var ErrCommitFailed = errors.New("reservation commit failed")

// ErrVehicleUnavailable is the conflict reported when the requested dates
// overlap an existing booking.
var ErrVehicleUnavailable = vehicleDomain.ErrUnavailable

// ReserveVehicleRequest is the DTO for creating a reservation. TotalPrice is
// the pre-discount amount computed by the caller from rate and duration.
type ReserveVehicleRequest struct {
	VehicleID  uuid.UUID                  `json:"vehicle_id" binding:"required"`
	RenterID   uuid.UUID                  `json:"renter_id" binding:"required"`
	StartDate  time.Time                  `json:"start_date" binding:"required"`
	EndDate    time.Time                  `json:"end_date" binding:"required"`
	TotalPrice int64                      `json:"total_price" binding:"required,gt=0"`
	CouponCode string                     `json:"coupon_code"`
	Payment    *bookingDomain.PaymentInfo `json:"payment_info"`
}

// BookingView is the read model returned to callers: the booking enriched
// with its payment summary and the coupon that was applied, if any.
type BookingView struct {
	ID         uuid.UUID                    `json:"id"`
	VehicleID  uuid.UUID                    `json:"vehicle_id"`
	RenterID   uuid.UUID                    `json:"renter_id"`
	StartDate  time.Time                    `json:"start_date"`
	EndDate    time.Time                    `json:"end_date"`
	TotalPrice int64                        `json:"total_price"`
	Status     string                       `json:"status"`
	CouponID   *uuid.UUID                   `json:"coupon_id,omitempty"`
	CouponCode string                       `json:"coupon_code,omitempty"`
	Payment    bookingDomain.PaymentSummary `json:"payment"`
	CreatedAt  time.Time                    `json:"created_at"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// ReservationService coordinates the multi-aggregate reservation commit. All
// writes for one reservation happen inside a single transaction holding a
// row lock on the vehicle, so concurrent overlapping attempts serialize and
// the loser observes the winner's committed window.
type ReservationService struct {
	txm       TxManager
	vehicles  VehicleRepository
	users     UserRepository
	coupons   CouponRepository
	bookings  BookingRepository
	payments  PaymentRepository
	ledger    *reward.Ledger
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	txm TxManager,
	vehicles VehicleRepository,
	users UserRepository,
	coupons CouponRepository,
	bookings BookingRepository,
	payments PaymentRepository,
	ledger *reward.Ledger,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		txm:       txm,
		vehicles:  vehicles,
		users:     users,
		coupons:   coupons,
		bookings:  bookings,
		payments:  payments,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// ReserveVehicle validates and executes a reservation atomically. On any
// failure nothing from the attempt is persisted.
func (s *ReservationService) ReserveVehicle(ctx context.Context, req ReserveVehicleRequest) (*BookingView, error) {
	s.logger.Info("reserving vehicle",
		zap.String("vehicle_id", req.VehicleID.String()),
		zap.String("renter_id", req.RenterID.String()),
		zap.Time("start_date", req.StartDate),
		zap.Time("end_date", req.EndDate),
	)

	var (
		view        *BookingView
		settled     bool
		pay         *paymentDomain.Payment
		renterEntry reward.Entry
		ownerEntry  reward.Entry
		ownerID     uuid.UUID
	)

	err := s.txm.Transaction(ctx, func(tx *gorm.DB) error {
		veh, err := s.vehicles.FindByIDForUpdate(ctx, tx, req.VehicleID)
		if err != nil {
			return err
		}
		ownerID = veh.OwnerID()

		renter, err := s.users.FindByIDForUpdate(ctx, tx, req.RenterID)
		if err != nil {
			return renameNotFound(err, "Renter", req.RenterID)
		}
		owner, err := s.users.FindByIDForUpdate(ctx, tx, veh.OwnerID())
		if err != nil {
			return renameNotFound(err, "Owner", veh.OwnerID())
		}

		if !req.EndDate.After(req.StartDate) {
			return bookingDomain.ErrInvalidDateRange
		}
		if !veh.IsAvailable(req.StartDate, req.EndDate) {
			return ErrVehicleUnavailable
		}

		finalPrice := req.TotalPrice
		var coup *couponDomain.Coupon
		if req.CouponCode != "" {
			code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
			coup, err = s.coupons.FindByCodeForUpdate(ctx, tx, code)
			if err != nil {
				return err
			}
			finalPrice, err = coup.Apply(req.TotalPrice, time.Now().UTC())
			if err != nil {
				return err
			}
		}

		var couponID *uuid.UUID
		if coup != nil {
			id := coup.ID()
			couponID = &id
		}
		bkg, err := bookingDomain.NewBooking(req.VehicleID, req.RenterID, req.StartDate, req.EndDate, finalPrice, couponID)
		if err != nil {
			return err
		}

		settled = req.Payment.Settled()
		var method, transactionID string
		if req.Payment != nil {
			method = req.Payment.Method
			transactionID = req.Payment.TransactionID
		}
		pay = paymentDomain.NewPayment(bkg.ID(), req.RenterID, finalPrice, method, transactionID, settled)
		bkg.SyncPayment(pay)

		if err := s.bookings.Save(ctx, tx, bkg); err != nil {
			return err
		}
		if err := s.payments.Save(ctx, tx, pay); err != nil {
			return err
		}

		if err := veh.AddWindow(req.StartDate, req.EndDate, bkg.ID()); err != nil {
			return err
		}
		w := vehicleDomain.AvailabilityWindow{From: req.StartDate, To: req.EndDate, BookingID: bkg.ID()}
		if err := s.vehicles.AppendWindow(ctx, tx, veh.ID(), w); err != nil {
			return err
		}

		if settled {
			renterEntry, ownerEntry, err = accrueRewards(ctx, tx, s.users, s.ledger, renter, owner, bkg.ID(), finalPrice)
			if err != nil {
				return err
			}
		}

		if coup != nil {
			coup.Redeem()
			if err := s.coupons.Update(ctx, tx, coup); err != nil {
				return err
			}
		}

		view = toBookingView(bkg, coup)
		return nil
	})
	if err != nil {
		if wrapped := wrapCommit(err); errors.Is(wrapped, ErrCommitFailed) {
			s.logger.Error("reservation transaction failed", zap.Error(err))
			return nil, wrapped
		}
		return nil, err
	}

	s.publishReservationEvents(ctx, view, pay, settled, ownerID, renterEntry, ownerEntry)
	return view, nil
}

// publishReservationEvents emits the post-commit events. Broker failures are
// logged and never surfaced: the reservation is already durable.
func (s *ReservationService) publishReservationEvents(
	ctx context.Context,
	view *BookingView,
	pay *paymentDomain.Payment,
	settled bool,
	ownerID uuid.UUID,
	renterEntry, ownerEntry reward.Entry,
) {
	now := time.Now().UTC()

	if err := s.publisher.PublishBookingCreated(ctx, events.BookingCreatedEvent{
		BookingID:  view.ID,
		VehicleID:  view.VehicleID,
		RenterID:   view.RenterID,
		StartDate:  view.StartDate,
		EndDate:    view.EndDate,
		TotalPrice: view.TotalPrice,
		FinalPrice: view.TotalPrice,
		CouponCode: view.CouponCode,
		CreatedAt:  view.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish booking created event", zap.Error(err))
	}

	if err := s.publisher.PublishPaymentRecorded(ctx, events.PaymentRecordedEvent{
		BookingID:  pay.BookingID(),
		PaymentID:  pay.ID(),
		PayerID:    pay.PayerID(),
		Amount:     pay.Amount(),
		Method:     pay.Method(),
		Status:     string(pay.Status()),
		OccurredAt: now,
	}); err != nil {
		s.logger.Warn("failed to publish payment recorded event", zap.Error(err))
	}

	if settled {
		if err := s.publisher.PublishRewardAccrued(ctx, events.RewardAccruedEvent{
			BookingID:    view.ID,
			RenterID:     view.RenterID,
			OwnerID:      ownerID,
			RenterPoints: renterEntry.Points,
			OwnerPoints:  ownerEntry.Points,
			OccurredAt:   now,
		}); err != nil {
			s.logger.Warn("failed to publish reward accrued event", zap.Error(err))
		}
	}
}

// accrueRewards credits both sides of a paid booking and appends the audit
// entries, all inside the caller's transaction.
func accrueRewards(
	ctx context.Context,
	tx *gorm.DB,
	users UserRepository,
	ledger *reward.Ledger,
	renter, owner *userDomain.User,
	bookingID uuid.UUID,
	finalPrice int64,
) (reward.Entry, reward.Entry, error) {
	renterEntry, ownerEntry := ledger.Accrue(renter.ID(), owner.ID(), bookingID, finalPrice)

	if err := renter.AddPoints(renterEntry.Points); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}
	if err := users.UpdatePoints(ctx, tx, renter); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}
	if err := users.AppendRewardEntry(ctx, tx, renterEntry); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}

	if err := owner.AddPoints(ownerEntry.Points); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}
	if err := users.UpdatePoints(ctx, tx, owner); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}
	if err := users.AppendRewardEntry(ctx, tx, ownerEntry); err != nil {
		return reward.Entry{}, reward.Entry{}, err
	}

	return renterEntry, ownerEntry, nil
}

// renameNotFound rebrands a user NotFound as the role the coordinator was
// looking up, so renter and owner misses stay distinguishable.
func renameNotFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(entity, id.String())
	}
	return err
}

// toBookingView maps a booking (and the applied coupon, if any) to the read
// model.
func toBookingView(b *bookingDomain.Booking, coup *couponDomain.Coupon) *BookingView {
	view := &BookingView{
		ID:         b.ID(),
		VehicleID:  b.VehicleID(),
		RenterID:   b.RenterID(),
		StartDate:  b.StartDate(),
		EndDate:    b.EndDate(),
		TotalPrice: b.TotalPrice(),
		Status:     string(b.Status()),
		CouponID:   b.CouponID(),
		Payment:    b.Payment(),
		CreatedAt:  b.CreatedAt(),
		UpdatedAt:  b.UpdatedAt(),
	}
	if coup != nil {
		view.CouponCode = coup.Code()
	}
	return view
}
