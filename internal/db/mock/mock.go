package mock

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chromastudio/internal/db"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

// New returns an in-memory sqlite database seeded with a small studio:
// raw materials, a handful of custom colors and their formulas.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:chromastudio-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	var existing int64
	if err := database.WithContext(ctx).Model(&models.CustomColor{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		applog.Debug(ctx, "mock database already seeded", "colors", existing)
		return nil
	}

	applog.Debug(ctx, "seeding mock database")

	materials := []models.RawMaterial{
		{Name: "钛白", Brand: "Atelier", Unit: "g", Stock: 2500, Hex: "#f4f4f0", Notes: "Titanium white base."},
		{Name: "群青", Brand: "Atelier", Unit: "滴", Stock: 400, Hex: "#1c2a8c", Notes: "Ultramarine tinting drops."},
		{Name: "赭石", Brand: "Atelier", Unit: "g", Stock: 900, Hex: "#a0522d", Notes: "Yellow ochre earth pigment."},
		{Name: "炭黑", Brand: "Atelier", Unit: "g", Stock: 600, Hex: "#1b1b1b", Notes: "Carbon black."},
		{Name: "镉红", Brand: "Atelier", Unit: "ml", Stock: 750, Hex: "#c8102e", Notes: "Cadmium red medium, liquid."},
	}
	for i := range materials {
		if err := database.WithContext(ctx).Create(&materials[i]).Error; err != nil {
			return err
		}
	}

	colors := []models.CustomColor{
		{
			Code:        "CS-001",
			Name:        "Harbor Blue",
			Category:    "Blues",
			Formula:     "钛白 5g 群青 3滴",
			Hex:         "#7f8fc4",
			PantoneCode: "PANTONE 300 C",
			Notes:       "Signature wall blue.",
		},
		{
			Code:     "CS-002",
			Name:     "Clay Path",
			Category: "Earths",
			Formula:  "钛白 40g 赭石 12g 炭黑 0.5g",
			Hex:      "#c49a72",
			Notes:    "Warm neutral for trim.",
		},
		{
			Code:        "CS-003",
			Name:        "Lantern Red",
			Category:    "Reds",
			Formula:     "镉红 20ml 钛白 4g 炭黑 0.2g",
			Hex:         "#b3263a",
			PantoneCode: "PANTONE 186 C",
		},
		{
			Code:     "CS-004",
			Name:     "Draft Sample",
			Category: "Drafts",
			Formula:  "钛白 少许",
			Notes:    "Unfinished recipe kept for reference.",
		},
	}
	for i := range colors {
		if err := database.WithContext(ctx).Create(&colors[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
