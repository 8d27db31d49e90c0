package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
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

func notFound(entity string, id uuid.UUID) error {
	return domain.NewNotFoundError(entity, id.String())
}

// txmMock runs the unit of work without a real transaction. Repositories
// treat the nil *gorm.DB as "use your own connection", which the mocks here
// ignore anyway.
type txmMock struct{}

func (m *txmMock) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type vehicleRepoMock struct {
	vehicles       map[uuid.UUID]*vehicleDomain.Vehicle
	appendedWindow *vehicleDomain.AvailabilityWindow
	appendErr      error
	removedBooking *uuid.UUID
}

func newVehicleRepoMock(vehicles ...*vehicleDomain.Vehicle) *vehicleRepoMock {
	m := &vehicleRepoMock{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
	for _, v := range vehicles {
		m.vehicles[v.ID()] = v
	}
	return m
}

func (m *vehicleRepoMock) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, notFound("Vehicle", id)
	}
	return v, nil
}

func (m *vehicleRepoMock) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *vehicleRepoMock) AppendWindow(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, w vehicleDomain.AvailabilityWindow) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appendedWindow = &w
	return nil
}

func (m *vehicleRepoMock) RemoveWindowByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) error {
	m.removedBooking = &bookingID
	return nil
}

type userRepoMock struct {
	users         map[uuid.UUID]*userDomain.User
	entries       []reward.Entry
	pointsUpdates int
	hasEarnEntry  bool
}

func newUserRepoMock(users ...*userDomain.User) *userRepoMock {
	m := &userRepoMock{users: make(map[uuid.UUID]*userDomain.User)}
	for _, u := range users {
		m.users[u.ID()] = u
	}
	return m
}

func (m *userRepoMock) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("User", id)
	}
	return u, nil
}

func (m *userRepoMock) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*userDomain.User, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *userRepoMock) UpdatePoints(ctx context.Context, tx *gorm.DB, u *userDomain.User) error {
	m.pointsUpdates++
	return nil
}

func (m *userRepoMock) AppendRewardEntry(ctx context.Context, tx *gorm.DB, e reward.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *userRepoMock) HasRewardEntry(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, kind reward.Kind) (bool, error) {
	return m.hasEarnEntry, nil
}

func (m *userRepoMock) ListRewardEntries(ctx context.Context, userID uuid.UUID) ([]reward.Entry, error) {
	var out []reward.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type couponRepoMock struct {
	coupons map[string]*couponDomain.Coupon
	updated *couponDomain.Coupon
	saved   *couponDomain.Coupon
}

func newCouponRepoMock(coupons ...*couponDomain.Coupon) *couponRepoMock {
	m := &couponRepoMock{coupons: make(map[string]*couponDomain.Coupon)}
	for _, c := range coupons {
		m.coupons[c.Code()] = c
	}
	return m
}

func (m *couponRepoMock) Save(ctx context.Context, c *couponDomain.Coupon) error {
	m.saved = c
	m.coupons[c.Code()] = c
	return nil
}

func (m *couponRepoMock) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok || !c.Active() {
		return nil, couponDomain.ErrNotFound
	}
	return c, nil
}

func (m *couponRepoMock) FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*couponDomain.Coupon, error) {
	return m.FindByCode(ctx, code)
}

func (m *couponRepoMock) FindActive(ctx context.Context) ([]*couponDomain.Coupon, error) {
	var out []*couponDomain.Coupon
	for _, c := range m.coupons {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *couponRepoMock) Update(ctx context.Context, tx *gorm.DB, c *couponDomain.Coupon) error {
	m.updated = c
	return nil
}

type bookingRepoMock struct {
	bookings map[uuid.UUID]*bookingDomain.Booking
	saved    *bookingDomain.Booking
	saveErr  error
	updated  *bookingDomain.Booking
}

func newBookingRepoMock(bookings ...*bookingDomain.Booking) *bookingRepoMock {
	m := &bookingRepoMock{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
	for _, b := range bookings {
		m.bookings[b.ID()] = b
	}
	return m
}

func (m *bookingRepoMock) Save(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = b
	m.bookings[b.ID()] = b
	return nil
}

func (m *bookingRepoMock) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, notFound("Booking", id)
	}
	return b, nil
}

func (m *bookingRepoMock) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	return m.FindByID(ctx, id)
}

func (m *bookingRepoMock) Update(ctx context.Context, tx *gorm.DB, b *bookingDomain.Booking) error {
	m.updated = b
	return nil
}

func (m *bookingRepoMock) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	for _, b := range m.bookings {
		if b.RenterID() == renterID {
			out = append(out, b)
		}
	}
	return out, nil
}

type paymentRepoMock struct {
	saved []*paymentDomain.Payment
}

func (m *paymentRepoMock) Save(ctx context.Context, tx *gorm.DB, p *paymentDomain.Payment) error {
	m.saved = append(m.saved, p)
	return nil
}

func (m *paymentRepoMock) FindLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].BookingID() == bookingID {
			return m.saved[i], nil
		}
	}
	return nil, notFound("Payment", bookingID)
}

func (m *paymentRepoMock) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var out []*paymentDomain.Payment
	for _, p := range m.saved {
		if p.BookingID() == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

type publisherMock struct {
	mu             sync.Mutex
	created        []events.BookingCreatedEvent
	statusChanged  []events.BookingStatusChangedEvent
	paymentEvents  []events.PaymentRecordedEvent
	rewardAccruals []events.RewardAccruedEvent
}

func (m *publisherMock) PublishBookingCreated(ctx context.Context, ev events.BookingCreatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, ev)
	return nil
}

func (m *publisherMock) PublishBookingStatusChanged(ctx context.Context, ev events.BookingStatusChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanged = append(m.statusChanged, ev)
	return nil
}

func (m *publisherMock) PublishPaymentRecorded(ctx context.Context, ev events.PaymentRecordedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentEvents = append(m.paymentEvents, ev)
	return nil
}

func (m *publisherMock) PublishRewardAccrued(ctx context.Context, ev events.RewardAccruedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewardAccruals = append(m.rewardAccruals, ev)
	return nil
}
