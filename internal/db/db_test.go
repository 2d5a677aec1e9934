package db

import (
	"testing"

	"chromastudio/internal/config"
	"chromastudio/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitializeRequiresURL(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{URL: ""})
	if err == nil {
		t.Fatal("expected error when database URL is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestAutoMigrateWithSQLite(t *testing.T) {
	t.Parallel()

	sqliteDB, err := gorm.Open(sqlite.Open("file:memdb?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	if err := AutoMigrate(sqliteDB); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}

	for _, model := range []any{&models.CustomColor{}, &models.RawMaterial{}, &models.KVEntry{}} {
		if !sqliteDB.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestConfigureWithSQLiteURL(t *testing.T) {
	t.Parallel()

	database, err := Configure(config.DatabaseConfig{URL: "sqlite:file:configure?mode=memory&cache=shared", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if Get() == nil {
		t.Fatal("expected Configure to publish the handle")
	}

	color := models.CustomColor{Code: "C-100", Name: "Harbor Blue", Formula: "钛白 5g 群青 3滴"}
	if err := database.Create(&color).Error; err != nil {
		t.Fatalf("create color: %v", err)
	}
}

func TestDialectorSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"postgres://user@localhost/db", "postgres"},
		{"sqlite:studio.db", "sqlite"},
		{"sqlite://studio.db", "sqlite"},
		{"file:memdb?mode=memory", "sqlite"},
	}
	for _, tt := range tests {
		if got := dialector(tt.url).Name(); got != tt.want {
			t.Fatalf("dialector(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestConfigurePropagatesInitializationError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected configuration error when initialize fails")
	}
}

func TestMustConfigurePanicsOnError(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when configuration fails")
		}
	}()

	MustConfigure(config.DatabaseConfig{})
}
