// Package reward implements the loyalty point ledger: entry kinds, the
// accrual formulas, and the ledger that produces audit entries for a paid
// booking.
package reward

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a ledger entry.
type Kind string

const (
	KindEarn    Kind = "earn"
	KindSpend   Kind = "spend"
	KindRoyalty Kind = "royalty"
	KindAdjust  Kind = "adjust"
)

// Fixed audit notes stamped on accrual entries.
const (
	noteRenterEarn   = "booking payment reward"
	noteOwnerRoyalty = "owner royalty from booking"
)

// Entry is one append-only reward ledger record for a user.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Points    int64     `json:"points"`
	Kind      Kind      `json:"kind"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// RenterPoints computes the renter-side accrual: one point per ten currency
// units of the final price, truncated.
func RenterPoints(finalPrice int64) int64 {
	return finalPrice / 10
}

// OwnerRoyalty computes the owner-side accrual as a percentage of the final
// price, truncated to whole points.
func OwnerRoyalty(finalPrice int64, percent float64) int64 {
	return int64(float64(finalPrice) * percent / 100.0)
}

// Ledger produces accrual entries for finalized payments.
type Ledger struct {
	royaltyPercent float64
}

// NewLedger creates a Ledger with the given owner royalty percentage
// (e.g. 5.0 for 5%).
func NewLedger(royaltyPercent float64) *Ledger {
	return &Ledger{royaltyPercent: royaltyPercent}
}

// Accrue builds the renter earn entry and the owner royalty entry for a
// successfully paid booking. The caller persists both entries and the
// updated balances inside the same unit of work as the booking itself.
func (l *Ledger) Accrue(renterID, ownerID, bookingID uuid.UUID, finalPrice int64) (Entry, Entry) {
	now := time.Now().UTC()
	renterEntry := Entry{
		ID:        uuid.New(),
		UserID:    renterID,
		BookingID: bookingID,
		Points:    RenterPoints(finalPrice),
		Kind:      KindEarn,
		Note:      noteRenterEarn,
		CreatedAt: now,
	}
	ownerEntry := Entry{
		ID:        uuid.New(),
		UserID:    ownerID,
		BookingID: bookingID,
		Points:    OwnerRoyalty(finalPrice, l.royaltyPercent),
		Kind:      KindRoyalty,
		Note:      noteOwnerRoyalty,
		CreatedAt: now,
	}
	return renterEntry, ownerEntry
}
