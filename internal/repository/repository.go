// Package repository implements GORM-backed persistence for the booking
// engine. Methods that participate in the reservation transaction take an
// explicit tx handle; passing nil falls back to the repository's pool
// connection.
package repository

import "gorm.io/gorm"

func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
