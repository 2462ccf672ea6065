package catalogimport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"comics-store/internal/model"
	"comics-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Columns of a seed row, in order. Optional columns may be empty.
// A non-empty event_start makes the row an event product.
const expectedColumns = 11

// Importer parses catalogue seed rows and upserts them by slug.
type Importer struct {
	loader      Loader
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewImporter creates a new catalogue importer.
func NewImporter(loader Loader, productRepo repository.ProductRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:      loader,
		productRepo: productRepo,
		logger:      logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Run imports one seed file, returning the number of products upserted. The
// first row is the header and is skipped.
func (im *Importer) Run(ctx context.Context, path string) (int, error) {
	rc, err := im.loader.Load(ctx, path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = expectedColumns

	count := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read seed row %d: %w", line+1, err)
		}
		line++
		if line == 1 {
			continue // header
		}

		product, err := parseRow(record)
		if err != nil {
			return count, fmt.Errorf("invalid seed row %d: %w", line, err)
		}

		if err := im.productRepo.Upsert(ctx, product); err != nil {
			return count, err
		}
		count++
	}

	im.logger.Info().
		Str("file", path).
		Int("products", count).
		Msg("catalog seed imported")

	return count, nil
}

// parseRow builds a product from one CSV record:
// title, slug, description, price, discounted_price, cost, stock, trending,
// event_start, event_end, event_location.
func parseRow(record []string) (*model.Product, error) {
	title := strings.TrimSpace(record[0])
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	slug := strings.TrimSpace(record[1])
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", record[3])
	}

	discounted, err := parseOptionalFloat(record[4])
	if err != nil {
		return nil, fmt.Errorf("invalid discounted price %q", record[4])
	}
	cost, err := parseOptionalFloat(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid cost %q", record[5])
	}

	stock, err := strconv.Atoi(strings.TrimSpace(record[6]))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock %q", record[6])
	}

	trending := false
	if v := strings.TrimSpace(record[7]); v != "" {
		trending, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trending flag %q", record[7])
		}
	}

	product := &model.Product{
		ID:              uuid.New(),
		Title:           title,
		Slug:            slug,
		Description:     strings.TrimSpace(record[2]),
		Price:           price,
		DiscountedPrice: discounted,
		Cost:            cost,
		Stock:           stock,
		Trending:        trending,
	}

	if start := strings.TrimSpace(record[8]); start != "" {
		startAt, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("invalid event start %q", record[8])
		}
		event := &model.EventInfo{
			Start:    startAt,
			Location: strings.TrimSpace(record[10]),
		}
		if end := strings.TrimSpace(record[9]); end != "" {
			endAt, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return nil, fmt.Errorf("invalid event end %q", record[9])
			}
			event.End = &endAt
		}
		product.Event = event
	}

	return product, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
