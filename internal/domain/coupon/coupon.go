package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/domain"
)

// Validation failures, in the order Apply checks them. Each is a distinct
// kind so the HTTP layer can translate them individually.
var (
	ErrNotFound      = &domain.DomainError{Err: domain.ErrNotFound, Entity: "Coupon", Message: "coupon not found or inactive"}
	ErrMinimumNotMet = &domain.DomainError{Err: domain.ErrValidation, Entity: "Coupon", Message: "order total does not meet coupon minimum amount"}
	ErrExhausted     = &domain.DomainError{Err: domain.ErrConflict, Entity: "Coupon", Message: "coupon usage limit reached"}
	ErrExpired       = &domain.DomainError{Err: domain.ErrValidation, Entity: "Coupon", Message: "coupon has expired"}
)

// Kind is the discount computation mode.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// Coupon is a discount code aggregate. Its usage counter is mutated only
// inside the reservation coordinator's unit of work.
type Coupon struct {
	id         uuid.UUID
	code       string
	kind       Kind
	value      int64
	minAmount  int64
	usageLimit int // 0 means unlimited
	usedCount  int
	active     bool
	expiresAt  *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewCoupon creates an active coupon. Codes are normalized to upper case.
func NewCoupon(code string, kind Kind, value, minAmount int64, usageLimit int, expiresAt *time.Time) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.NewValidationError("coupon code is required")
	}
	if kind != KindPercent && kind != KindFixed {
		return nil, domain.NewValidationError("invalid coupon kind: " + string(kind))
	}
	if value <= 0 {
		return nil, domain.NewValidationError("coupon value must be positive")
	}
	if kind == KindPercent && value > 100 {
		return nil, domain.NewValidationError("percent coupon value cannot exceed 100")
	}
	now := time.Now().UTC()
	return &Coupon{
		id:         uuid.New(),
		code:       code,
		kind:       kind,
		value:      value,
		minAmount:  minAmount,
		usageLimit: usageLimit,
		active:     true,
		expiresAt:  expiresAt,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstitute rebuilds a Coupon from persisted data.
func Reconstitute(id uuid.UUID, code string, kind Kind, value, minAmount int64, usageLimit, usedCount int, active bool, expiresAt *time.Time, createdAt, updatedAt time.Time) *Coupon {
	return &Coupon{
		id:         id,
		code:       code,
		kind:       kind,
		value:      value,
		minAmount:  minAmount,
		usageLimit: usageLimit,
		usedCount:  usedCount,
		active:     active,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (c *Coupon) ID() uuid.UUID         { return c.id }
func (c *Coupon) Code() string          { return c.code }
func (c *Coupon) Kind() Kind            { return c.kind }
func (c *Coupon) Value() int64          { return c.value }
func (c *Coupon) MinAmount() int64      { return c.minAmount }
func (c *Coupon) UsageLimit() int       { return c.usageLimit }
func (c *Coupon) UsedCount() int        { return c.usedCount }
func (c *Coupon) Active() bool          { return c.active }
func (c *Coupon) ExpiresAt() *time.Time { return c.expiresAt }
func (c *Coupon) CreatedAt() time.Time  { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time  { return c.updatedAt }

// Validate checks eligibility against the given order total. Checks run in a
// fixed order and the first failure wins: active, minimum amount, usage
// limit, expiry.
func (c *Coupon) Validate(totalPrice int64, now time.Time) error {
	if !c.active {
		return ErrNotFound
	}
	if c.minAmount > 0 && totalPrice < c.minAmount {
		return ErrMinimumNotMet
	}
	if c.usageLimit > 0 && c.usedCount >= c.usageLimit {
		return ErrExhausted
	}
	if c.expiresAt != nil && !now.Before(*c.expiresAt) {
		return ErrExpired
	}
	return nil
}

// Apply validates the coupon and returns the discounted price, clamped at
// zero.
func (c *Coupon) Apply(totalPrice int64, now time.Time) (int64, error) {
	if err := c.Validate(totalPrice, now); err != nil {
		return 0, err
	}
	var final int64
	switch c.kind {
	case KindPercent:
		final = totalPrice - totalPrice*c.value/100
	case KindFixed:
		final = totalPrice - c.value
	}
	if final < 0 {
		final = 0
	}
	return final, nil
}

// Redeem records one use. Once the usage limit is reached the coupon is
// deactivated so the limit can never be exceeded.
func (c *Coupon) Redeem() {
	c.usedCount++
	if c.usageLimit > 0 && c.usedCount >= c.usageLimit {
		c.active = false
	}
	c.updatedAt = time.Now().UTC()
}
