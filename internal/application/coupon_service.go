package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	couponDomain "github.com/rentaride/service-booking/internal/domain/coupon"
)

// CreateCouponRequest holds data to create a coupon.
type CreateCouponRequest struct {
	Code       string `json:"code" binding:"required"`
	Kind       string `json:"kind" binding:"required"`
	Value      int64  `json:"value" binding:"required"`
	MinAmount  int64  `json:"min_amount"`
	UsageLimit int    `json:"usage_limit"`
	ExpiresAt  string `json:"expires_at"`
}

// ValidateCouponRequest holds data for a dry-run coupon validation.
type ValidateCouponRequest struct {
	Code       string `json:"code" binding:"required"`
	TotalPrice int64  `json:"total_price" binding:"required,gt=0"`
}

// CouponDTO is the API response representation of a coupon.
type CouponDTO struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	Kind       string     `json:"kind"`
	Value      int64      `json:"value"`
	MinAmount  int64      `json:"min_amount"`
	UsageLimit int        `json:"usage_limit"`
	UsedCount  int        `json:"used_count"`
	Active     bool       `json:"active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CouponValidationDTO is the result of a dry-run validation. It does not
// consume a use; only the reservation flow redeems coupons.
type CouponValidationDTO struct {
	Valid      bool   `json:"valid"`
	Code       string `json:"code"`
	FinalPrice int64  `json:"final_price,omitempty"`
	Discount   int64  `json:"discount,omitempty"`
	Message    string `json:"message,omitempty"`
}

// CouponService handles the coupon admin surface.
type CouponService struct {
	repo   CouponRepository
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo CouponRepository, logger *zap.Logger) *CouponService {
	return &CouponService{repo: repo, logger: logger}
}

// CreateCoupon creates a new coupon (admin only).
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at format (use RFC3339)")
		}
		expiresAt = &t
	}

	c, err := couponDomain.NewCoupon(req.Code, couponDomain.Kind(req.Kind), req.Value, req.MinAmount, req.UsageLimit, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save coupon: %w", err)
	}

	s.logger.Info("coupon created", zap.String("code", c.Code()))
	return toCouponDTO(c), nil
}

// ValidateCoupon checks a coupon against an order total without consuming a
// use.
func (s *CouponService) ValidateCoupon(ctx context.Context, req ValidateCouponRequest) (*CouponValidationDTO, error) {
	c, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, couponDomain.ErrNotFound) {
			return &CouponValidationDTO{Valid: false, Code: req.Code, Message: couponDomain.ErrNotFound.Message}, nil
		}
		return nil, err
	}

	final, err := c.Apply(req.TotalPrice, time.Now().UTC())
	if err != nil {
		return &CouponValidationDTO{Valid: false, Code: c.Code(), Message: err.Error()}, nil
	}

	return &CouponValidationDTO{
		Valid:      true,
		Code:       c.Code(),
		FinalPrice: final,
		Discount:   req.TotalPrice - final,
	}, nil
}

// GetActiveCoupons returns all currently usable coupons.
func (s *CouponService) GetActiveCoupons(ctx context.Context) ([]*CouponDTO, error) {
	coupons, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]*CouponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	return dtos, nil
}

func toCouponDTO(c *couponDomain.Coupon) *CouponDTO {
	return &CouponDTO{
		ID:         c.ID(),
		Code:       c.Code(),
		Kind:       string(c.Kind()),
		Value:      c.Value(),
		MinAmount:  c.MinAmount(),
		UsageLimit: c.UsageLimit(),
		UsedCount:  c.UsedCount(),
		Active:     c.Active(),
		ExpiresAt:  c.ExpiresAt(),
		CreatedAt:  c.CreatedAt(),
	}
}
