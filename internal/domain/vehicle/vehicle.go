package vehicle

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/domain"
)

// ErrUnavailable is returned when a requested rental window overlaps an
// existing booked window on the vehicle.
var ErrUnavailable = domain.NewConflictError("vehicle is not available for the requested dates")

// AvailabilityWindow is a half-open interval [From, To) during which the
// vehicle is committed to a booking.
type AvailabilityWindow struct {
	From      time.Time
	To        time.Time
	BookingID uuid.UUID
}

// DateRange is the read-model projection of a booked window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Overlaps reports whether the window conflicts with the half-open probe
// interval [start, end). Touching endpoints do not conflict.
func (w AvailabilityWindow) Overlaps(start, end time.Time) bool {
	return start.Before(w.To) && end.After(w.From)
}

// Available reports whether [start, end) conflicts with none of the windows.
func Available(windows []AvailabilityWindow, start, end time.Time) bool {
	for _, w := range windows {
		if w.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// Vehicle is the rentable asset aggregate. Its availability windows are
// mutated only by the reservation coordinator; the aggregate keeps them
// pairwise non-overlapping.
type Vehicle struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	title       string
	vehicleType string
	brand       string
	pricePerDay int64
	location    string
	plateNumber string
	windows     []AvailabilityWindow
	createdAt   time.Time
	updatedAt   time.Time
}

// NewVehicle creates a vehicle listing with no booked windows.
func NewVehicle(ownerID uuid.UUID, title, vehicleType, brand string, pricePerDay int64, location, plateNumber string) (*Vehicle, error) {
	if title == "" {
		return nil, domain.NewValidationError("vehicle title is required")
	}
	if pricePerDay <= 0 {
		return nil, domain.NewValidationError("price per day must be positive")
	}
	now := time.Now().UTC()
	return &Vehicle{
		id:          uuid.New(),
		ownerID:     ownerID,
		title:       title,
		vehicleType: vehicleType,
		brand:       brand,
		pricePerDay: pricePerDay,
		location:    location,
		plateNumber: plateNumber,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstitute rebuilds a Vehicle from persisted data.
func Reconstitute(id, ownerID uuid.UUID, title, vehicleType, brand string, pricePerDay int64, location, plateNumber string, windows []AvailabilityWindow, createdAt, updatedAt time.Time) *Vehicle {
	return &Vehicle{
		id:          id,
		ownerID:     ownerID,
		title:       title,
		vehicleType: vehicleType,
		brand:       brand,
		pricePerDay: pricePerDay,
		location:    location,
		plateNumber: plateNumber,
		windows:     windows,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (v *Vehicle) ID() uuid.UUID                 { return v.id }
func (v *Vehicle) OwnerID() uuid.UUID            { return v.ownerID }
func (v *Vehicle) Title() string                 { return v.title }
func (v *Vehicle) VehicleType() string           { return v.vehicleType }
func (v *Vehicle) Brand() string                 { return v.brand }
func (v *Vehicle) PricePerDay() int64            { return v.pricePerDay }
func (v *Vehicle) Location() string              { return v.location }
func (v *Vehicle) PlateNumber() string           { return v.plateNumber }
func (v *Vehicle) Windows() []AvailabilityWindow { return v.windows }
func (v *Vehicle) CreatedAt() time.Time          { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time          { return v.updatedAt }

// IsAvailable reports whether the vehicle is free for [start, end).
func (v *Vehicle) IsAvailable(start, end time.Time) bool {
	return Available(v.windows, start, end)
}

// BookedDates projects the booked windows as plain date ranges.
func (v *Vehicle) BookedDates() []DateRange {
	ranges := make([]DateRange, len(v.windows))
	for i, w := range v.windows {
		ranges[i] = DateRange{From: w.From, To: w.To}
	}
	return ranges
}

// AddWindow appends a booked window after re-checking the non-overlap
// invariant against the windows currently held.
func (v *Vehicle) AddWindow(start, end time.Time, bookingID uuid.UUID) error {
	if !v.IsAvailable(start, end) {
		return ErrUnavailable
	}
	v.windows = append(v.windows, AvailabilityWindow{From: start, To: end, BookingID: bookingID})
	v.updatedAt = time.Now().UTC()
	return nil
}
