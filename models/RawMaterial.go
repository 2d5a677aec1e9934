package models

import (
	"gorm.io/gorm"
)

// RawMaterial is a pigment or base that formulas refer to by name.
type RawMaterial struct {
	gorm.Model
	Name  string  `gorm:"uniqueIndex;not null" json:"name"`
	Brand string  `json:"brand"`
	Unit  string  `json:"unit"`
	Stock float64 `gorm:"not null;default:0" json:"stock"`
	Hex   string  `gorm:"type:varchar(7)" json:"hex"`
	Notes string  `gorm:"type:text" json:"notes"`
}
