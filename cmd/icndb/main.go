package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"icndb/internal"
	"icndb/internal/config"
	"icndb/internal/geocode"
	"icndb/internal/pipeline"
	"icndb/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "geocode":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "alldata.csv", "source csv path")
		output := fs.String("output", "", "enriched csv path")
		start := fs.Int("start", 0, "data rows to skip before the first lookup")
		max := fs.Int("max", 0, "stop after this many lookups (0 = all)")
		test := fs.Bool("test", false, "trial run: 10 lookups into a test artifact")
		_ = fs.Parse(os.Args[2:])

		limit := *max
		out := strings.TrimSpace(*output)
		if *test {
			if limit == 0 {
				limit = 10
			}
			if out == "" {
				out = filepath.Join(cfg.OutputDir, "test_geocoding_results.csv")
			}
		}
		if out == "" {
			out = filepath.Join(cfg.OutputDir, "alldata_with_coordinates.csv")
		}
		must(os.MkdirAll(filepath.Dir(out), 0o755))

		db, cache := openCache(cfg)
		if db != nil {
			defer db.Close()
		}

		svc := geocode.NewEnrichService(geocode.New(cfg, cache))
		stats, err := svc.EnrichCSV(context.Background(), geocode.EnrichOptions{
			InputPath:  *input,
			OutputPath: out,
			StartRow:   *start,
			MaxRows:    limit,
		})
		must(err)

		if db != nil {
			must(db.SetMetadata("geocode.last_run", time.Now().UTC().Format(time.RFC3339)))
			cached, err := db.CountGeocodes()
			must(err)
			fmt.Printf("geocode cache size=%d path=%s\n", cached, cfg.CacheDBPath)
		}
		if stats.Processed > 0 {
			rate := float64(stats.Succeeded) * 100 / float64(stats.Processed)
			fmt.Printf("geocode done rows=%d processed=%d succeeded=%d rate=%.1f%% output=%s\n",
				stats.Rows, stats.Processed, stats.Succeeded, rate, out)
		} else {
			fmt.Printf("geocode done rows=%d processed=0 output=%s\n", stats.Rows, out)
		}
	case "normalize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "source export (.csv, .xlsx or .html)")
		sqlOut := fs.String("sql", "", "insert-statement artifact path")
		csvDir := fs.String("csvDir", "", "flat-file directory")
		xlsxOut := fs.String("xlsx", "", "workbook artifact path (optional)")
		sqlOnly := fs.Bool("sqlOnly", false, "write only the sql artifact")
		csvOnly := fs.Bool("csvOnly", false, "write only the flat files")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		if *sqlOnly && *csvOnly {
			must(fmt.Errorf("--sqlOnly and --csvOnly are mutually exclusive"))
		}

		svc := pipeline.NewProcessingService(cfg, nil)
		ds, err := svc.NormalizeFile(*input)
		must(err)

		if !*csvOnly {
			path := orDefault(*sqlOut, filepath.Join(cfg.OutputDir, "database_inserts.sql"))
			must(pipeline.ExportSQL(ds, path, filepath.Base(*input)))
			fmt.Printf("sql artifact written inserts=%d path=%s\n", insertCount(ds), path)
		}
		if !*sqlOnly {
			dir := orDefault(*csvDir, filepath.Join(cfg.OutputDir, "normalized_csv"))
			must(pipeline.ExportCSVDir(ds, dir))
			fmt.Printf("flat files written dir=%s\n", dir)
		}
		if strings.TrimSpace(*xlsxOut) != "" {
			must(pipeline.ExportXLSX(ds, *xlsxOut))
			fmt.Printf("workbook written path=%s\n", *xlsxOut)
		}
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "source export (.csv, .xlsx or .html)")
		outDir := fs.String("out", "", "artifact directory")
		skipGeocode := fs.Bool("skipGeocode", false, "normalize without address lookups")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		dir := orDefault(*outDir, cfg.OutputDir)

		var enricher pipeline.RowEnricher
		var db *storage.DB
		if !*skipGeocode {
			var cache geocode.Cache
			db, cache = openCache(cfg)
			if db != nil {
				defer db.Close()
			}
			enricher = geocode.New(cfg, cache)
		}

		rows, err := pipeline.ReadSourceRows(*input)
		must(err)
		fmt.Printf("processing %s rows=%d\n", *input, len(rows))

		svc := pipeline.NewProcessingService(cfg, enricher)
		svc.EnrichRows(context.Background(), rows)
		ds := svc.Normalize(rows)

		sqlPath := filepath.Join(dir, "database_inserts.sql")
		must(pipeline.ExportSQL(ds, sqlPath, filepath.Base(*input)))
		must(pipeline.ExportCSVDir(ds, filepath.Join(dir, "normalized_csv")))
		must(pipeline.ExportXLSX(ds, filepath.Join(dir, "normalized.xlsx")))

		if db != nil {
			must(db.SetMetadata("run.last_run", time.Now().UTC().Format(time.RFC3339)))
		}
		fmt.Printf("run done inserts=%d dir=%s\n", insertCount(ds), dir)
	default:
		usage()
		os.Exit(1)
	}
}

// openCache opens the geocode cache when enabled. A disabled cache yields a
// nil Cache interface, not a typed nil.
func openCache(cfg config.Config) (*storage.DB, geocode.Cache) {
	if !cfg.GeocoderCacheEnabled {
		return nil, nil
	}
	db, err := storage.Open(cfg.CacheDBPath)
	must(err)
	return db, db
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func insertCount(ds internal.Dataset) int {
	return len(ds.Items) + len(ds.DetailedItems) + len(ds.Sectors) + len(ds.Organisations) + len(ds.Capabilities)
}

func usage() {
	fmt.Println("usage: icndb <command>")
	fmt.Println("commands:")
	fmt.Println("  geocode --input=alldata.csv [--output=...] [--start=0] [--max=0] [--test]")
	fmt.Println("  normalize --input=alldata.csv [--sql=...] [--csvDir=...] [--xlsx=...] [--sqlOnly|--csvOnly]")
	fmt.Println("  run --input=alldata.csv [--out=...] [--skipGeocode]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
