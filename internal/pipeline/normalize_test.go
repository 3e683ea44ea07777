package pipeline

import (
	"reflect"
	"testing"

	"icndb/internal"
)

func row(values map[string]string) internal.SourceRow {
	return internal.SourceRow{Values: values}
}

func runEngine(rows ...internal.SourceRow) internal.Dataset {
	engine := NewEngine()
	for _, r := range rows {
		engine.ProcessRow(r)
	}
	return engine.Dataset()
}

func TestEngineCarryForwardGrouping(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps",
			internal.ColItemID:           "IT-1",
			internal.ColItemName:         "Industrial",
			internal.ColSectorMappingID:  "SM-1",
			internal.ColSectorName:       "Water",
			internal.ColOrganisationID:   "ORG-1",
			internal.ColCapability:       "Pump casting",
		}),
		row(map[string]string{
			internal.ColItemID:         "IT-2",
			internal.ColItemName:       "Industrial",
			internal.ColOrganisationID: "ORG-2",
			internal.ColCapability:     "Pump machining",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-3",
			internal.ColCapability:     "Pump painting",
		}),
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-2",
			internal.ColDetailedItemName: "Valves",
			internal.ColItemID:           "IT-3",
			internal.ColItemName:         "Industrial",
			internal.ColSectorMappingID:  "SM-2",
			internal.ColSectorName:       "Energy",
			internal.ColOrganisationID:   "ORG-4",
			internal.ColCapability:       "Valve casting",
		}),
	)

	if len(ds.Capabilities) != 4 {
		t.Fatalf("capabilities=%d", len(ds.Capabilities))
	}

	for i, want := range []string{"DI-1", "DI-1", "DI-1", "DI-2"} {
		got := ds.Capabilities[i].DetailedItemID
		if got == nil || *got != want {
			t.Fatalf("capability %d detailedItemId=%v want %s", i, got, want)
		}
	}
	for i, want := range []string{"SM-1", "SM-1", "SM-1", "SM-2"} {
		got := ds.Capabilities[i].SectorMappingID
		if got == nil || *got != want {
			t.Fatalf("capability %d sectorMappingId=%v want %s", i, got, want)
		}
	}

	// Item references are the row's own cell, never carried.
	if got := ds.Capabilities[1].ItemID; got == nil || *got != "IT-2" {
		t.Fatalf("capability 1 itemId=%v", got)
	}
	if got := ds.Capabilities[2].ItemID; got != nil {
		t.Fatalf("capability 2 itemId=%v want nil", *got)
	}

	if len(ds.DetailedItems) != 2 {
		t.Fatalf("detailedItems=%d", len(ds.DetailedItems))
	}
	first := ds.DetailedItems[0]
	if first.DetailedItemID != "DI-1" || first.DetailedItemName != "Pumps" || first.ItemID == nil || *first.ItemID != "IT-1" {
		t.Fatalf("detailedItems[0]=%+v", first)
	}
}

func TestEngineSkipsRowsWithoutOrganisation(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-9",
			internal.ColDetailedItemName: "Ghost",
			internal.ColItemID:           "IT-9",
			internal.ColItemName:         "Ghost",
			internal.ColSectorMappingID:  "SM-9",
			internal.ColSectorName:       "Ghost",
			internal.ColCapability:       "Ghost work",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-1",
			internal.ColCapability:     "Real work",
		}),
	)

	if len(ds.Items) != 0 || len(ds.DetailedItems) != 0 || len(ds.Sectors) != 0 {
		t.Fatalf("registrations leaked from skipped row: %+v", ds)
	}
	if len(ds.Capabilities) != 1 {
		t.Fatalf("capabilities=%d", len(ds.Capabilities))
	}
	// The skipped row never advanced the slots either.
	if ds.Capabilities[0].DetailedItemID != nil || ds.Capabilities[0].SectorMappingID != nil {
		t.Fatalf("carry-forward advanced by skipped row: %+v", ds.Capabilities[0])
	}
}

func TestEngineSubtotalRows(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps",
			internal.ColSectorMappingID:  "SM-1",
			internal.ColSectorName:       "Water",
			internal.ColOrganisationID:   "ORG-1",
			internal.ColCapability:       "Pump casting",
		}),
		row(map[string]string{
			internal.ColDetailedItemID: "Subtotal DI-1",
			internal.ColOrganisationID: "ORG-2",
			internal.ColCapability:     "Should not exist",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-3",
			internal.ColCapability:     "Pump painting",
		}),
		row(map[string]string{
			internal.ColDetailedItemID:  "DI-2",
			internal.ColSectorMappingID: "Subtotal",
			internal.ColSectorName:      "Energy",
			internal.ColOrganisationID:  "ORG-4",
			internal.ColCapability:      "Valve casting",
		}),
	)

	if len(ds.Capabilities) != 3 {
		t.Fatalf("capabilities=%d", len(ds.Capabilities))
	}
	// The aggregate row neither reset nor advanced the detailed-item slot.
	if got := ds.Capabilities[1].DetailedItemID; got == nil || *got != "DI-1" {
		t.Fatalf("carry-forward after subtotal=%v", got)
	}
	// A sentinel cell in the sector column leaves that slot untouched too.
	if got := ds.Capabilities[2].SectorMappingID; got == nil || *got != "SM-1" {
		t.Fatalf("sector slot after sentinel=%v", got)
	}
	if len(ds.Sectors) != 1 || ds.Sectors[0].SectorName != "Water" {
		t.Fatalf("sectors=%+v", ds.Sectors)
	}
}

func TestEngineOrganisationCaseFold(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColOrganisationID:   "org-1",
			internal.ColOrganisationName: "Acme Pty Ltd",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-1",
			internal.ColBillingStreet:  "1 Main St",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "Org-1",
			internal.ColBillingCity:    "Melbourne",
		}),
	)

	if len(ds.Organisations) != 1 {
		t.Fatalf("organisations=%d", len(ds.Organisations))
	}
	org := ds.Organisations[0]
	if org.OrganisationID != "ORG-1" {
		t.Fatalf("id=%s", org.OrganisationID)
	}
	if org.OrganisationName == nil || *org.OrganisationName != "Acme Pty Ltd" {
		t.Fatalf("name=%v", org.OrganisationName)
	}
	if org.BillingStreet == nil || *org.BillingStreet != "1 Main St" {
		t.Fatalf("street=%v", org.BillingStreet)
	}
	if org.BillingCity == nil || *org.BillingCity != "Melbourne" {
		t.Fatalf("city=%v", org.BillingCity)
	}
}

func TestEngineOrganisationMergeFirstWins(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColOrganisationID:   "ORG-1",
			internal.ColOrganisationName: "Acme",
		}),
		row(map[string]string{
			internal.ColOrganisationID:   "ORG-1",
			internal.ColOrganisationName: "ACME Holdings",
			internal.ColBillingStreet:    "1 Main St",
		}),
	)

	org := ds.Organisations[0]
	if *org.OrganisationName != "Acme" {
		t.Fatalf("name overwritten: %s", *org.OrganisationName)
	}
	if org.BillingStreet == nil || *org.BillingStreet != "1 Main St" {
		t.Fatalf("street not filled: %v", org.BillingStreet)
	}
}

func TestEngineMergeOrderIndependence(t *testing.T) {
	a := row(map[string]string{
		internal.ColOrganisationID:   "ORG-1",
		internal.ColOrganisationName: "Acme",
		internal.ColLatitude:         "-37.8136",
	})
	b := row(map[string]string{
		internal.ColOrganisationID: "org-1",
		internal.ColBillingStreet:  "1 Main St",
		internal.ColLongitude:      "144.9631",
	})

	forward := runEngine(a, b).Organisations[0]
	reverse := runEngine(b, a).Organisations[0]
	if !reflect.DeepEqual(forward, reverse) {
		t.Fatalf("merge depends on order:\n%+v\n%+v", forward, reverse)
	}
}

func TestEngineItemFirstWriteWins(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColOrganisationID: "ORG-1",
			internal.ColItemID:         "IT-1",
			internal.ColItemName:       "First",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-2",
			internal.ColItemID:         "IT-1",
			internal.ColItemName:       "Second",
		}),
	)

	if len(ds.Items) != 1 || ds.Items[0].ItemName != "First" {
		t.Fatalf("items=%+v", ds.Items)
	}
}

func TestReopenedGroupKeepsFirstRegistration(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps",
			internal.ColOrganisationID:   "ORG-1",
		}),
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-2",
			internal.ColDetailedItemName: "Valves",
			internal.ColOrganisationID:   "ORG-2",
		}),
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps Again",
			internal.ColOrganisationID:   "ORG-3",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-4",
			internal.ColCapability:     "Pump casting",
		}),
	)

	if len(ds.DetailedItems) != 2 {
		t.Fatalf("detailedItems=%+v", ds.DetailedItems)
	}
	if ds.DetailedItems[0].DetailedItemName != "Pumps" {
		t.Fatalf("reopened group overwrote registration: %+v", ds.DetailedItems[0])
	}
	// The reopened run still carries forward for later blank rows.
	last := ds.Capabilities[len(ds.Capabilities)-1]
	if last.DetailedItemID == nil || *last.DetailedItemID != "DI-1" {
		t.Fatalf("carry-forward after reopen=%v", last.DetailedItemID)
	}
}

func TestEngineRegistersIDWhenNameArrivesLater(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID: "DI-1",
			internal.ColOrganisationID: "ORG-1",
		}),
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps",
			internal.ColOrganisationID:   "ORG-2",
		}),
	)

	if len(ds.DetailedItems) != 1 || ds.DetailedItems[0].DetailedItemName != "Pumps" {
		t.Fatalf("detailedItems=%+v", ds.DetailedItems)
	}
}

func TestEngineSectorRegisteredFromCarriedID(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColSectorMappingID: "SM-1",
			internal.ColOrganisationID:  "ORG-1",
		}),
		row(map[string]string{
			internal.ColSectorName:     "Water",
			internal.ColOrganisationID: "ORG-2",
		}),
	)

	if len(ds.Sectors) != 1 {
		t.Fatalf("sectors=%+v", ds.Sectors)
	}
	if ds.Sectors[0].SectorMappingID != "SM-1" || ds.Sectors[0].SectorName != "Water" {
		t.Fatalf("sectors[0]=%+v", ds.Sectors[0])
	}
}

func TestEngineCapabilityAssembly(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColDetailedItemID:   "DI-1",
			internal.ColDetailedItemName: "Pumps",
			internal.ColSectorMappingID:  "SM-1",
			internal.ColSectorName:       "Water",
			internal.ColItemID:           "IT-1",
			internal.ColItemName:         "Industrial",
			internal.ColOrganisationID:   "org-1",
			internal.ColCapability:       "Pump casting",
			internal.ColCapabilityType:   "Manufacture",
			internal.ColValidationDate:   "05/03/2024",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-2",
			internal.ColCapability:     "Pump painting",
			internal.ColValidationDate: "not-a-date",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-3",
		}),
	)

	if len(ds.Capabilities) != 2 {
		t.Fatalf("capabilities=%d", len(ds.Capabilities))
	}

	first := ds.Capabilities[0]
	if first.OrganisationID != "ORG-1" {
		t.Fatalf("organisationId=%s", first.OrganisationID)
	}
	if first.ValidationDate == nil || *first.ValidationDate != "2024-03-05" {
		t.Fatalf("validationDate=%v", first.ValidationDate)
	}
	if first.CapabilityType == nil || *first.CapabilityType != "Manufacture" {
		t.Fatalf("capabilityType=%v", first.CapabilityType)
	}

	second := ds.Capabilities[1]
	if second.ValidationDate != nil {
		t.Fatalf("bad date should be nil, got %v", *second.ValidationDate)
	}
	if second.ItemID != nil || second.CapabilityType != nil {
		t.Fatalf("blank cells should be nil: %+v", second)
	}
}

func TestEngineCoordinateParsing(t *testing.T) {
	ds := runEngine(
		row(map[string]string{
			internal.ColOrganisationID: "ORG-1",
			internal.ColLatitude:       "0",
			internal.ColLongitude:      "144.9631",
		}),
		row(map[string]string{
			internal.ColOrganisationID: "ORG-2",
			internal.ColLatitude:       "garbage",
			internal.ColLongitude:      "151.2093",
		}),
	)

	first := ds.Organisations[0]
	if first.Latitude == nil || *first.Latitude != 0 {
		t.Fatalf("zero latitude dropped: %v", first.Latitude)
	}

	second := ds.Organisations[1]
	if second.Latitude != nil {
		t.Fatalf("garbage latitude parsed: %v", *second.Latitude)
	}
	if second.Longitude == nil || *second.Longitude != 151.2093 {
		t.Fatalf("longitude should parse independently: %v", second.Longitude)
	}
}

func TestEngineEmptyInput(t *testing.T) {
	ds := runEngine()
	if len(ds.Items) != 0 || len(ds.DetailedItems) != 0 || len(ds.Sectors) != 0 ||
		len(ds.Organisations) != 0 || len(ds.Capabilities) != 0 {
		t.Fatalf("dataset=%+v", ds)
	}
}
