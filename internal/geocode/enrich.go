package geocode

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"icndb/internal"
	"icndb/internal/util"
)

// batchSize rows are flushed together so an interrupted run keeps the
// already-enriched prefix of the file.
const batchSize = 10

type EnrichOptions struct {
	InputPath  string
	OutputPath string
	StartRow   int // data rows dropped before processing starts
	MaxRows    int // stop after this many lookups, 0 means no cap
}

type EnrichStats struct {
	Rows      int // data rows written to the output
	Processed int // rows that went through a lookup
	Succeeded int
}

type EnrichService struct {
	geocoder *Geocoder
}

func NewEnrichService(geocoder *Geocoder) *EnrichService {
	return &EnrichService{geocoder: geocoder}
}

// EnrichCSV streams the report export and appends the five geocoding
// columns to every row. Aggregate rows and rows without a usable street
// cell pass through unchanged with status "skipped".
func (s *EnrichService) EnrichCSV(ctx context.Context, opts EnrichOptions) (EnrichStats, error) {
	in, err := os.Open(opts.InputPath)
	if err != nil {
		return EnrichStats{}, err
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return EnrichStats{}, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)

	out, err := os.Create(opts.OutputPath)
	if err != nil {
		return EnrichStats{}, err
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	outHeader := append(append([]string{}, header...),
		internal.ColFormattedAddress,
		internal.ColLatitude,
		internal.ColLongitude,
		internal.ColGeocodeService,
		internal.ColGeocodeStatus,
	)
	if err := writer.Write(outHeader); err != nil {
		return EnrichStats{}, err
	}

	for i := 0; i < opts.StartRow; i++ {
		if _, err := reader.Read(); err != nil {
			break
		}
	}

	stats := EnrichStats{}
	pending := 0
	for {
		if opts.MaxRows > 0 && stats.Processed >= opts.MaxRows {
			break
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		street := cell(row, index, internal.ColBillingStreet)
		label := cell(row, index, internal.ColDetailedItemID)

		var result internal.GeocodeResult
		if ShouldSkip(street, label) {
			result = internal.GeocodeResult{Status: internal.GeocodeSkipped}
		} else {
			result = s.geocoder.Enrich(ctx,
				street,
				cell(row, index, internal.ColBillingCity),
				cell(row, index, internal.ColBillingState),
				cell(row, index, internal.ColBillingZip),
			)
			stats.Processed++
			if result.Status == internal.GeocodeSuccess {
				stats.Succeeded++
			}
			fmt.Printf("geocoded n=%d ok=%d status=%s address=%s\n", stats.Processed, stats.Succeeded, result.Status, result.FormattedAddress)
		}

		record := append(append([]string{}, row...),
			result.FormattedAddress,
			util.FloatString(result.Latitude),
			util.FloatString(result.Longitude),
			util.StringValue(result.Service),
			string(result.Status),
		)
		if err := writer.Write(record); err != nil {
			return stats, err
		}
		stats.Rows++

		pending++
		if pending >= batchSize {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return stats, err
			}
			pending = 0
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, err
	}
	return stats, nil
}

// headerIndex maps trimmed column names to positions; the first header cell
// may carry a BOM artifact from the exporting tool.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = util.TrimBOM(name)
		}
		index[strings.TrimSpace(name)] = i
	}
	return index
}

// cell reads a row by column name, tolerating short rows and columns absent
// from the header.
func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
