package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"icndb/internal"
	"icndb/internal/util"
)

// ReadSourceRows loads a capability-register export, dispatching on the
// file extension. Every format yields the same name-keyed row stream;
// LineNo matches the row number a spreadsheet user sees, with the header
// as row 1.
func ReadSourceRows(path string) ([]internal.SourceRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVRows(path)
	case ".xlsx", ".xls":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return parseXLSXRows(blob)
	case ".html", ".htm":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return parseHTMLRows(string(blob))
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

func readCSVRows(path string) ([]internal.SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsFromTable(header, records), nil
}

func parseXLSXRows(blob []byte) ([]internal.SourceRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheets[0])
	}
	return rowsFromTable(rows[0], rows[1:]), nil
}

func parseHTMLRows(html string) ([]internal.SourceRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("document has no table")
	}

	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	// Cell text is trimmed but not space-collapsed: header names carry
	// significant interior spacing.
	header := []string{}
	trs.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		header = append(header, strings.TrimSpace(cell.Text()))
	})

	records := [][]string{}
	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		record := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			record = append(record, strings.TrimSpace(cell.Text()))
		})
		records = append(records, record)
	})

	return rowsFromTable(header, records), nil
}

func rowsFromTable(header []string, records [][]string) []internal.SourceRow {
	names := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = util.TrimBOM(name)
		}
		names[i] = strings.TrimSpace(name)
	}

	out := make([]internal.SourceRow, 0, len(records))
	for i, record := range records {
		values := make(map[string]string, len(names))
		for j, name := range names {
			if name == "" || j >= len(record) {
				continue
			}
			values[name] = record[j]
		}
		out = append(out, internal.SourceRow{LineNo: i + 2, Values: values})
	}
	return out
}
