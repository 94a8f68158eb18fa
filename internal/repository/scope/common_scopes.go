package scope

import "gorm.io/gorm"

// NewestFirst orders by creation time descending; id breaks ties between rows
// created in the same instant.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Chronological orders rows the way they were appended.
func Chronological(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
