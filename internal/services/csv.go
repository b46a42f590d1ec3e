package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

const (
	parseBatchSize  = 10000
	maxParseWorkers = 10
)

// columnIndex maps column names to their position in the header. The required
// schema is checked as a set, so column order in the file does not matter.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	for _, col := range models.RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, errors.Validation(fmt.Sprintf(
				"CSV must contain columns: %s", strings.Join(models.RequiredColumns, ", ")))
		}
	}
	return idx, nil
}

// readDataset decodes a full CSV source into typed records, preserving row
// order. Rows are coerced in batches across a bounded worker pool; a single
// row that fails coercion fails the whole read.
func readDataset(ctx context.Context, r io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.LoadWrap(err, "failed to read CSV header")
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.LoadWrap(err, "malformed CSV row")
		}
		rows = append(rows, row)
	}

	records := make(models.Dataset, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for start := 0; start < len(rows); start += parseBatchSize {
		end := min(start+parseBatchSize, len(rows))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			for i := start; i < end; i++ {
				rec, err := parseRecord(rows[i], cols)
				if err != nil {
					// +2: one for the header, one for 1-based numbering.
					return errors.LoadWrap(err, fmt.Sprintf("row %d cannot be coerced", i+2))
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseRecord(row []string, cols map[string]int) (models.Record, error) {
	field := func(name string) string {
		return strings.TrimSpace(row[cols[name]])
	}

	saleID, err := strconv.Atoi(field("Sale_ID"))
	if err != nil {
		return models.Record{}, fmt.Errorf("Sale_ID: %w", err)
	}

	date, err := time.Parse(models.DateLayout, field("Date"))
	if err != nil {
		return models.Record{}, fmt.Errorf("Date: %w", err)
	}

	units, err := strconv.Atoi(field("Units_Sold"))
	if err != nil {
		return models.Record{}, fmt.Errorf("Units_Sold: %w", err)
	}

	price, err := strconv.ParseFloat(field("Price_Per_Unit"), 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("Price_Per_Unit: %w", err)
	}

	revenue, err := strconv.ParseFloat(field("Revenue"), 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("Revenue: %w", err)
	}

	return models.Record{
		SaleID:       saleID,
		Date:         date,
		UnitsSold:    units,
		PricePerUnit: price,
		Revenue:      revenue,
		Region:       field("Region"),
		SalesChannel: field("Sales_Channel"),
	}, nil
}
