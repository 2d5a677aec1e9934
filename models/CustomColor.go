package models

import (
	"gorm.io/gorm"
)

// CustomColor is a studio paint color identified by its code. Formula holds
// the free-text mixing recipe, e.g. "钛白 5g 群青 3滴".
type CustomColor struct {
	gorm.Model
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Category    string `json:"category"`
	Formula     string `gorm:"type:text" json:"formula"`
	Hex         string `gorm:"type:varchar(7)" json:"hex"`
	PantoneCode string `json:"pantone_code"`
	Notes       string `gorm:"type:text" json:"notes"`
}
