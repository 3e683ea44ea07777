package pipeline

import (
	"context"
	"fmt"

	"icndb/internal"
	"icndb/internal/config"
	"icndb/internal/geocode"
	"icndb/internal/util"
)

// RowEnricher is the geocoding collaborator: best-effort coordinates for
// one row's address fragments, always a result, never an error.
type RowEnricher interface {
	Enrich(ctx context.Context, street, city, state, postcode string) internal.GeocodeResult
}

// ProcessingService drives one full pass: read an export, optionally run
// the enricher over the rows in memory, fold them through the engine.
// Exporters consume the returned dataset separately.
type ProcessingService struct {
	cfg      config.Config
	enricher RowEnricher
}

func NewProcessingService(cfg config.Config, enricher RowEnricher) *ProcessingService {
	return &ProcessingService{cfg: cfg, enricher: enricher}
}

// NormalizeFile reads a source export and folds it in one call.
func (s *ProcessingService) NormalizeFile(path string) (internal.Dataset, error) {
	rows, err := ReadSourceRows(path)
	if err != nil {
		return internal.Dataset{}, err
	}
	fmt.Printf("processing %s rows=%d\n", path, len(rows))
	return s.Normalize(rows), nil
}

// Normalize folds rows in file order and reports per-entity counts.
func (s *ProcessingService) Normalize(rows []internal.SourceRow) internal.Dataset {
	engine := NewEngine()
	every := s.cfg.ProgressEvery
	for i, row := range rows {
		engine.ProcessRow(row)
		if every > 0 && (i+1)%every == 0 {
			fmt.Printf("normalize progress rows=%d\n", i+1)
		}
	}

	ds := engine.Dataset()
	fmt.Printf("extraction done items=%d detailedItems=%d sectors=%d organisations=%d capabilities=%d\n",
		len(ds.Items), len(ds.DetailedItems), len(ds.Sectors), len(ds.Organisations), len(ds.Capabilities))
	return ds
}

// EnrichRows runs the geocoding collaborator over raw rows in memory,
// filling the same five columns the file-level pass appends. Lookup
// failures degrade to a status value and never stop the pass.
func (s *ProcessingService) EnrichRows(ctx context.Context, rows []internal.SourceRow) {
	if s.enricher == nil {
		return
	}
	for i := range rows {
		row := &rows[i]
		if row.Values == nil {
			row.Values = map[string]string{}
		}

		street := row.Get(internal.ColBillingStreet)
		label := row.Get(internal.ColDetailedItemID)

		var result internal.GeocodeResult
		if geocode.ShouldSkip(street, label) {
			result = internal.GeocodeResult{Status: internal.GeocodeSkipped}
		} else {
			result = s.enricher.Enrich(ctx,
				street,
				row.Get(internal.ColBillingCity),
				row.Get(internal.ColBillingState),
				row.Get(internal.ColBillingZip),
			)
		}

		row.Values[internal.ColFormattedAddress] = result.FormattedAddress
		row.Values[internal.ColLatitude] = util.FloatString(result.Latitude)
		row.Values[internal.ColLongitude] = util.FloatString(result.Longitude)
		row.Values[internal.ColGeocodeService] = util.StringValue(result.Service)
		row.Values[internal.ColGeocodeStatus] = string(result.Status)
	}
}
