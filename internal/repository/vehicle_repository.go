package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentaride/service-booking/internal/domain"
	vehicleDomain "github.com/rentaride/service-booking/internal/domain/vehicle"
)

// VehicleModel is the GORM persistence model for the vehicles table.
type VehicleModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255);not null"`
	VehicleType string    `gorm:"type:varchar(20);not null"`
	Brand       string    `gorm:"type:varchar(100)"`
	PricePerDay int64     `gorm:"not null"`
	Location    string    `gorm:"type:varchar(255)"`
	PlateNumber string    `gorm:"type:varchar(32)"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (VehicleModel) TableName() string { return "vehicles" }

// AvailabilityWindowModel is the GORM model for booked windows on a vehicle.
type AvailabilityWindowModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
	FromDate  time.Time `gorm:"type:timestamptz;not null"`
	ToDate    time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (AvailabilityWindowModel) TableName() string { return "vehicle_availability" }

// VehicleRepositoryImpl is the GORM-based vehicle repository.
type VehicleRepositoryImpl struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new GORM-based vehicle repository.
func NewVehicleRepository(db *gorm.DB) *VehicleRepositoryImpl {
	return &VehicleRepositoryImpl{db: db}
}

// FindByID retrieves a vehicle and its booked windows.
func (r *VehicleRepositoryImpl) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	return r.find(ctx, conn(r.db, tx), id, false)
}

// FindByIDForUpdate retrieves a vehicle holding a FOR UPDATE row lock on it
// for the duration of the enclosing transaction. The lock serializes all
// concurrent reservation attempts against the same vehicle.
func (r *VehicleRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	return r.find(ctx, conn(r.db, tx), id, true)
}

func (r *VehicleRepositoryImpl) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock bool) (*vehicleDomain.Vehicle, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model VehicleModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, err
	}

	// The vehicle row lock already serializes window writers, so the window
	// rows themselves are read without one.
	var windowModels []AvailabilityWindowModel
	if err := db.WithContext(ctx).
		Where("vehicle_id = ?", id).
		Order("from_date").
		Find(&windowModels).Error; err != nil {
		return nil, err
	}

	windows := make([]vehicleDomain.AvailabilityWindow, len(windowModels))
	for i, w := range windowModels {
		windows[i] = vehicleDomain.AvailabilityWindow{
			From:      w.FromDate,
			To:        w.ToDate,
			BookingID: w.BookingID,
		}
	}

	return vehicleDomain.Reconstitute(
		model.ID, model.OwnerID,
		model.Title, model.VehicleType, model.Brand,
		model.PricePerDay, model.Location, model.PlateNumber,
		windows,
		model.CreatedAt, model.UpdatedAt,
	), nil
}

// Save persists a new vehicle listing.
func (r *VehicleRepositoryImpl) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := VehicleModel{
		ID:          v.ID(),
		OwnerID:     v.OwnerID(),
		Title:       v.Title(),
		VehicleType: v.VehicleType(),
		Brand:       v.Brand(),
		PricePerDay: v.PricePerDay(),
		Location:    v.Location(),
		PlateNumber: v.PlateNumber(),
		CreatedAt:   v.CreatedAt(),
		UpdatedAt:   v.UpdatedAt(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// AppendWindow inserts a booked window row for the vehicle.
func (r *VehicleRepositoryImpl) AppendWindow(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, w vehicleDomain.AvailabilityWindow) error {
	model := AvailabilityWindowModel{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		BookingID: w.BookingID,
		FromDate:  w.From,
		ToDate:    w.To,
	}
	return conn(r.db, tx).WithContext(ctx).Create(&model).Error
}

// RemoveWindowByBooking retracts the booked window belonging to a booking,
// freeing the dates for new reservations.
func (r *VehicleRepositoryImpl) RemoveWindowByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&AvailabilityWindowModel{}).Error
}
