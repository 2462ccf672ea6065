package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateSampleCatalog writes a gzipped CSV seed file with a handful of
// comics and one ticketed event, matching the importer's column layout:
// title, slug, description, price, discounted_price, cost, stock, trending,
// event_start, event_end, event_location
func main() {
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	rows := [][]string{
		{"title", "slug", "description", "price", "discounted_price", "cost", "stock", "trending", "event_start", "event_end", "event_location"},
		{"Kwezi #1", "kwezi-1", "A reluctant teenage superhero finds his powers", "150.00", "", "80.00", "40", "true", "", "", ""},
		{"Kwezi #2", "kwezi-2", "The city turns on its newest hero", "150.00", "120.00", "80.00", "25", "false", "", "", ""},
		{"Razor-Man Annual", "razor-man-annual", "Double-length anniversary special", "320.00", "", "150.00", "10", "false", "", "", ""},
		{"Umlilo: Origins", "umlilo-origins", "Collected origin arc, issues 1-6", "450.00", "399.00", "200.00", "15", "true", "", "", ""},
		{"Comic Con Nairobi Day Pass", "comic-con-nairobi-day-pass", "Single day entry, all panels included", "1000.00", "", "0.00", "200", "true", "2026-11-14T09:00:00Z", "2026-11-14T18:00:00Z", "Sarit Centre, Nairobi"},
	}

	filePath := filepath.Join(dataDir, "catalog-seed.gz")
	if err := createSeedFile(filePath, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products\n", filePath, len(rows)-1)
}

func createSeedFile(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	writer := csv.NewWriter(gz)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}
