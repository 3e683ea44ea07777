package pipeline

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"icndb/internal"
	"icndb/internal/util"
)

var (
	itemHeader         = []string{"itemId", "itemName"}
	detailedItemHeader = []string{"detailedItemId", "detailedItemName", "itemId"}
	sectorHeader       = []string{"sectorMappingId", "sectorName"}
	organisationHeader = []string{
		"organisationId", "organisationName", "billingStreet", "billingCity",
		"billingStateProvince", "billingZipPostalCode", "formattedAddress",
		"latitude", "longitude",
	}
	capabilityHeader = []string{
		"organisationCapability", "organisationId", "itemId", "detailedItemId",
		"capabilityType", "validationDate", "sectorMappingId",
	}
)

// ExportSQL renders one INSERT statement per collection entry, grouped by
// table, in insertion order. sourceName lands in the artifact's comment
// header.
func ExportSQL(ds internal.Dataset, outputPath, sourceName string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "-- SQL INSERT statements for ICN Database\n")
	fmt.Fprintf(w, "-- Generated from %s\n\n", sourceName)

	fmt.Fprintf(w, "-- Items table inserts\n")
	for _, item := range ds.Items {
		fmt.Fprintf(w, "INSERT INTO Items (itemId, itemName) VALUES (%s, %s);\n",
			sqlString(item.ItemID), sqlString(item.ItemName))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "-- DetailedItems table inserts\n")
	for _, di := range ds.DetailedItems {
		fmt.Fprintf(w, "INSERT INTO DetailedItems (detailedItemId, detailedItemName, itemId) VALUES (%s, %s, %s);\n",
			sqlString(di.DetailedItemID), sqlString(di.DetailedItemName), sqlValue(di.ItemID))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "-- Sectors table inserts\n")
	for _, sector := range ds.Sectors {
		fmt.Fprintf(w, "INSERT INTO Sectors (sectorMappingId, sectorName) VALUES (%s, %s);\n",
			sqlString(sector.SectorMappingID), sqlString(sector.SectorName))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "-- Organisations table inserts\n")
	for _, org := range ds.Organisations {
		values := []string{
			sqlString(org.OrganisationID),
			sqlValue(org.OrganisationName),
			sqlValue(org.BillingStreet),
			sqlValue(org.BillingCity),
			sqlValue(org.BillingStateProvince),
			sqlValue(org.BillingZipPostalCode),
			sqlValue(org.FormattedAddress),
			sqlFloat(org.Latitude),
			sqlFloat(org.Longitude),
		}
		fmt.Fprintf(w, "INSERT INTO Organisations (%s) VALUES (%s);\n",
			strings.Join(organisationHeader, ", "), strings.Join(values, ", "))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "-- Capabilities table inserts\n")
	for _, cap := range ds.Capabilities {
		values := []string{
			sqlString(cap.OrganisationCapability),
			sqlString(cap.OrganisationID),
			sqlValue(cap.ItemID),
			sqlValue(cap.DetailedItemID),
			sqlValue(cap.CapabilityType),
			sqlValue(cap.ValidationDate),
			sqlValue(cap.SectorMappingID),
		}
		fmt.Fprintf(w, "INSERT INTO Capabilities (%s) VALUES (%s);\n",
			strings.Join(capabilityHeader, ", "), strings.Join(values, ", "))
	}

	return w.Flush()
}

// ExportCSVDir writes one flat file per entity under dir, headers fixed,
// rows in insertion order.
func ExportCSVDir(ds internal.Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "items.csv"), itemHeader, itemRecords(ds.Items)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "detailed_items.csv"), detailedItemHeader, detailedItemRecords(ds.DetailedItems)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "sectors.csv"), sectorHeader, sectorRecords(ds.Sectors)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "organisations.csv"), organisationHeader, organisationRecords(ds.Organisations)); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, "capabilities.csv"), capabilityHeader, capabilityRecords(ds.Capabilities))
}

// ExportXLSX writes the five collections as one workbook, a sheet per
// entity, mirroring the flat-file headers.
func ExportXLSX(ds internal.Dataset, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Items"); err != nil {
		return err
	}
	writeSheet(f, "Items", itemHeader, itemRecords(ds.Items))

	for _, sheet := range []struct {
		name    string
		header  []string
		records [][]string
	}{
		{"DetailedItems", detailedItemHeader, detailedItemRecords(ds.DetailedItems)},
		{"Sectors", sectorHeader, sectorRecords(ds.Sectors)},
		{"Organisations", organisationHeader, organisationRecords(ds.Organisations)},
		{"Capabilities", capabilityHeader, capabilityRecords(ds.Capabilities)},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}
		writeSheet(f, sheet.name, sheet.header, sheet.records)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeSheet(f *excelize.File, sheet string, header []string, records [][]string) {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, record := range records {
		for c, value := range record {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func itemRecords(items []internal.Item) [][]string {
	out := make([][]string, 0, len(items))
	for _, item := range items {
		out = append(out, []string{item.ItemID, item.ItemName})
	}
	return out
}

func detailedItemRecords(items []internal.DetailedItem) [][]string {
	out := make([][]string, 0, len(items))
	for _, di := range items {
		out = append(out, []string{di.DetailedItemID, di.DetailedItemName, util.StringValue(di.ItemID)})
	}
	return out
}

func sectorRecords(sectors []internal.Sector) [][]string {
	out := make([][]string, 0, len(sectors))
	for _, sector := range sectors {
		out = append(out, []string{sector.SectorMappingID, sector.SectorName})
	}
	return out
}

func organisationRecords(orgs []internal.Organisation) [][]string {
	out := make([][]string, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, []string{
			org.OrganisationID,
			util.StringValue(org.OrganisationName),
			util.StringValue(org.BillingStreet),
			util.StringValue(org.BillingCity),
			util.StringValue(org.BillingStateProvince),
			util.StringValue(org.BillingZipPostalCode),
			util.StringValue(org.FormattedAddress),
			util.FloatString(org.Latitude),
			util.FloatString(org.Longitude),
		})
	}
	return out
}

func capabilityRecords(caps []internal.Capability) [][]string {
	out := make([][]string, 0, len(caps))
	for _, cap := range caps {
		out = append(out, []string{
			cap.OrganisationCapability,
			cap.OrganisationID,
			util.StringValue(cap.ItemID),
			util.StringValue(cap.DetailedItemID),
			util.StringValue(cap.CapabilityType),
			util.StringValue(cap.ValidationDate),
			util.StringValue(cap.SectorMappingID),
		})
	}
	return out
}

func sqlString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func sqlValue(v *string) string {
	if v == nil || *v == "" {
		return "NULL"
	}
	return sqlString(*v)
}

func sqlFloat(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
