package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"chromastudio/internal/colormath"
	"chromastudio/internal/config"
	"chromastudio/internal/db"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

func main() {
	csvPath := "raw materials.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}
	defer file.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(file)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	summary, err := importMaterials(context.Background(), database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d raw materials from %s (%d created, %d updated)\n",
		summary.created+summary.updated, filepath.Base(csvPath), summary.created, summary.updated)
	return nil
}

type importSummary struct {
	created int
	updated int
}

// importMaterials upserts every record by name. Each record runs in its own
// transaction so one bad row names itself without rolling back earlier rows.
func importMaterials(ctx context.Context, database *gorm.DB, records []map[string]string) (importSummary, error) {
	var summary importSummary
	if database == nil {
		return summary, errors.New("database handle is nil")
	}

	for idx, record := range records {
		material, err := buildRawMaterial(ctx, record)
		if err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, record["name"], err)
		}

		created := false
		if err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.RawMaterial
			err := tx.Where("lower(name) = ?", strings.ToLower(material.Name)).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				created = true
				if err := tx.Create(&material).Error; err != nil {
					return fmt.Errorf("create raw material %q: %w", material.Name, err)
				}
				return nil
			case err != nil:
				return fmt.Errorf("find raw material %q: %w", material.Name, err)
			}

			updates := map[string]any{
				"brand": material.Brand,
				"unit":  material.Unit,
				"stock": material.Stock,
				"notes": material.Notes,
			}
			if material.Hex != "" {
				updates["hex"] = material.Hex
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update raw material %q: %w", existing.Name, err)
			}
			return nil
		}); err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, material.Name, err)
		}

		if created {
			summary.created++
		} else {
			summary.updated++
		}
	}
	return summary, nil
}

// readCSV returns one map per data row keyed by the lowercased header.
func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for i, key := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(key, "\ufeff")))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildRawMaterial(ctx context.Context, row map[string]string) (models.RawMaterial, error) {
	name := normalizeText(row["name"])
	if name == "" {
		return models.RawMaterial{}, errors.New("name is required")
	}

	stock := parseFirstNumber(row["stock"])
	if stock < 0 {
		return models.RawMaterial{}, fmt.Errorf("stock must not be negative, got %v", stock)
	}

	material := models.RawMaterial{
		Name:  name,
		Brand: normalizeValue(row["brand"]),
		Unit:  normalizeValue(row["unit"]),
		Stock: stock,
		Notes: normalizeText(row["notes"]),
	}

	if raw := normalizeValue(row["hex"]); raw != "" {
		rgb, ok := colormath.HexToRGB(raw)
		if ok {
			material.Hex, _ = colormath.RGBToHex(rgb)
		} else {
			applog.Warn(ctx, "ignoring invalid hex in import", "material", name, "hex", raw)
		}
	}
	return material, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

func parseFirstNumber(value string) float64 {
	value = normalizeValue(value)
	if value == "" {
		return 0
	}

	match := numberPattern.FindString(value)
	if match == "" {
		return 0
	}

	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}
