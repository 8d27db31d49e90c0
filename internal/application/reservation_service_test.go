package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentaride/service-booking/internal/domain"
	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
	couponDomain "github.com/rentaride/service-booking/internal/domain/coupon"
	"github.com/rentaride/service-booking/internal/domain/reward"
	userDomain "github.com/rentaride/service-booking/internal/domain/user"
	vehicleDomain "github.com/rentaride/service-booking/internal/domain/vehicle"
)

type reservationFixture struct {
	svc      *ReservationService
	vehicles *vehicleRepoMock
	users    *userRepoMock
	coupons  *couponRepoMock
	bookings *bookingRepoMock
	payments *paymentRepoMock
	pub      *publisherMock

	vehicle *vehicleDomain.Vehicle
	renter  *userDomain.User
	owner   *userDomain.User
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()

	owner, err := userDomain.NewUser("Owner One", "owner@example.com", userDomain.RoleOwner)
	require.NoError(t, err)
	renter, err := userDomain.NewUser("Renter One", "renter@example.com", userDomain.RoleRenter)
	require.NoError(t, err)
	veh, err := vehicleDomain.NewVehicle(owner.ID(), "Perodua Myvi", "hatchback", "Perodua", 100, "Ipoh", "IPH8822")
	require.NoError(t, err)

	f := &reservationFixture{
		vehicles: newVehicleRepoMock(veh),
		users:    newUserRepoMock(owner, renter),
		coupons:  newCouponRepoMock(),
		bookings: newBookingRepoMock(),
		payments: &paymentRepoMock{},
		pub:      &publisherMock{},
		vehicle:  veh,
		renter:   renter,
		owner:    owner,
	}
	f.svc = NewReservationService(
		&txmMock{}, f.vehicles, f.users, f.coupons, f.bookings, f.payments,
		reward.NewLedger(5.0), f.pub, zap.NewNop(),
	)
	return f
}

func (f *reservationFixture) request() ReserveVehicleRequest {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return ReserveVehicleRequest{
		VehicleID:  f.vehicle.ID(),
		RenterID:   f.renter.ID(),
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 3),
		TotalPrice: 300,
	}
}

func TestReserveVehicle_PendingWithoutPayment(t *testing.T) {
	f := newReservationFixture(t)

	view, err := f.svc.ReserveVehicle(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, bookingDomain.PaymentUnpaid, view.Payment.Status)
	assert.Equal(t, int64(300), view.TotalPrice)
	assert.Empty(t, view.CouponCode)

	require.NotNil(t, f.bookings.saved)
	require.Len(t, f.payments.saved, 1)
	assert.Equal(t, "offline", f.payments.saved[0].Method())
	require.NotNil(t, f.vehicles.appendedWindow)
	assert.Equal(t, view.ID, f.vehicles.appendedWindow.BookingID)

	assert.Zero(t, f.users.pointsUpdates, "no rewards without a settled payment")
	assert.Len(t, f.pub.created, 1)
	assert.Empty(t, f.pub.rewardAccruals)
}

func TestReserveVehicle_SettledPaymentConfirmsAndAccrues(t *testing.T) {
	f := newReservationFixture(t)
	req := f.request()
	req.Payment = &bookingDomain.PaymentInfo{Status: "paid", Method: "card", TransactionID: "txn_9"}

	view, err := f.svc.ReserveVehicle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "confirmed", view.Status)
	assert.Equal(t, bookingDomain.PaymentPaid, view.Payment.Status)
	require.NotNil(t, view.Payment.PaidAt)

	// 300/10 = 30 for the renter, 5% of 300 = 15 for the owner.
	assert.Equal(t, int64(30), f.renter.RewardPoints())
	assert.Equal(t, int64(15), f.owner.RewardPoints())
	assert.Equal(t, 2, f.users.pointsUpdates)
	require.Len(t, f.users.entries, 2)
	assert.Equal(t, reward.KindEarn, f.users.entries[0].Kind)
	assert.Equal(t, reward.KindRoyalty, f.users.entries[1].Kind)

	require.Len(t, f.pub.rewardAccruals, 1)
	assert.Equal(t, int64(30), f.pub.rewardAccruals[0].RenterPoints)
}

func TestReserveVehicle_CouponDiscountsAndRedeems(t *testing.T) {
	f := newReservationFixture(t)
	coup, err := couponDomain.NewCoupon("TEN", couponDomain.KindPercent, 10, 0, 1, nil)
	require.NoError(t, err)
	f.coupons.coupons[coup.Code()] = coup

	req := f.request()
	req.CouponCode = "ten" // normalized before lookup

	view, err := f.svc.ReserveVehicle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(270), view.TotalPrice)
	assert.Equal(t, "TEN", view.CouponCode)
	require.NotNil(t, view.CouponID)

	require.NotNil(t, f.coupons.updated)
	assert.Equal(t, 1, f.coupons.updated.UsedCount())
	assert.False(t, f.coupons.updated.Active(), "single-use coupon deactivates")
}

func TestReserveVehicle_ValidationOrder(t *testing.T) {
	t.Run("vehicle not found", func(t *testing.T) {
		f := newReservationFixture(t)
		req := f.request()
		req.VehicleID = uuid.New()

		_, err := f.svc.ReserveVehicle(context.Background(), req)
		require.Error(t, err)
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Vehicle", de.Entity)
	})

	t.Run("renter not found", func(t *testing.T) {
		f := newReservationFixture(t)
		req := f.request()
		req.RenterID = uuid.New()

		_, err := f.svc.ReserveVehicle(context.Background(), req)
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Renter", de.Entity)
	})

	t.Run("owner not found", func(t *testing.T) {
		f := newReservationFixture(t)
		delete(f.users.users, f.owner.ID())

		_, err := f.svc.ReserveVehicle(context.Background(), f.request())
		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Owner", de.Entity)
	})

	t.Run("invalid date range", func(t *testing.T) {
		f := newReservationFixture(t)
		req := f.request()
		req.EndDate = req.StartDate

		_, err := f.svc.ReserveVehicle(context.Background(), req)
		assert.ErrorIs(t, err, bookingDomain.ErrInvalidDateRange)
	})

	t.Run("unavailable", func(t *testing.T) {
		f := newReservationFixture(t)
		req := f.request()
		require.NoError(t, f.vehicle.AddWindow(req.StartDate, req.EndDate, uuid.New()))

		_, err := f.svc.ReserveVehicle(context.Background(), req)
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
		assert.Nil(t, f.bookings.saved, "nothing persists on a conflict")
		assert.Empty(t, f.payments.saved)
	})

	t.Run("coupon minimum not met", func(t *testing.T) {
		f := newReservationFixture(t)
		coup, err := couponDomain.NewCoupon("BIG", couponDomain.KindFixed, 100, 1000, 0, nil)
		require.NoError(t, err)
		f.coupons.coupons[coup.Code()] = coup
		req := f.request()
		req.CouponCode = "BIG"

		_, err = f.svc.ReserveVehicle(context.Background(), req)
		assert.ErrorIs(t, err, couponDomain.ErrMinimumNotMet)
		assert.Nil(t, f.bookings.saved)
	})

	t.Run("unknown coupon", func(t *testing.T) {
		f := newReservationFixture(t)
		req := f.request()
		req.CouponCode = "NOPE"

		_, err := f.svc.ReserveVehicle(context.Background(), req)
		assert.ErrorIs(t, err, couponDomain.ErrNotFound)
	})
}

func TestReserveVehicle_InfraErrorWrapsCommitFailed(t *testing.T) {
	f := newReservationFixture(t)
	f.bookings.saveErr = errors.New("connection reset")

	_, err := f.svc.ReserveVehicle(context.Background(), f.request())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.Empty(t, f.pub.created, "no events for a failed reservation")
}

func TestReserveVehicle_DomainErrorNotWrapped(t *testing.T) {
	f := newReservationFixture(t)
	req := f.request()
	req.VehicleID = uuid.New()

	_, err := f.svc.ReserveVehicle(context.Background(), req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCommitFailed)
}
