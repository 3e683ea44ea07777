package pipeline

import (
	"strconv"
	"strings"

	"icndb/internal"
	"icndb/internal/util"
)

// Engine folds source rows into the five normalized collections. One engine
// owns one run: collections and carry-forward slots live on the instance,
// rows must arrive in file order, and the result is read via Dataset once
// the pass is complete.
type Engine struct {
	items         []internal.Item
	itemIndex     map[string]int
	detailedItems []internal.DetailedItem
	detailedIndex map[string]int
	sectors       []internal.Sector
	sectorIndex   map[string]int
	organisations []internal.Organisation
	orgIndex      map[string]int
	capabilities  []internal.Capability

	detailedSlot GroupSlot
	sectorSlot   GroupSlot
}

func NewEngine() *Engine {
	return &Engine{
		itemIndex:     map[string]int{},
		detailedIndex: map[string]int{},
		sectorIndex:   map[string]int{},
		orgIndex:      map[string]int{},
	}
}

// ProcessRow folds one row. Rows without an organisation id and aggregate
// rows are excluded entirely: they register nothing and never touch the
// carry-forward slots.
func (e *Engine) ProcessRow(row internal.SourceRow) {
	orgIDRaw := row.Get(internal.ColOrganisationID)
	label := row.Get(internal.ColDetailedItemID)
	if orgIDRaw == "" || strings.HasPrefix(label, internal.SubtotalMarker) {
		return
	}

	itemID := row.Get(internal.ColItemID)
	if itemName := row.Get(internal.ColItemName); itemID != "" && itemName != "" {
		e.registerItem(itemID, itemName)
	}

	detailedID, opened := e.detailedSlot.Advance(label)
	if opened {
		if name := row.Get(internal.ColDetailedItemName); name != "" {
			e.registerDetailedItem(*detailedID, name, itemID)
		}
	}

	sectorID, _ := e.sectorSlot.Advance(row.Get(internal.ColSectorMappingID))
	if sectorID != nil {
		if name := row.Get(internal.ColSectorName); name != "" {
			e.registerSector(*sectorID, name)
		}
	}

	orgID := strings.ToUpper(orgIDRaw)
	e.mergeOrganisation(orgID, row)

	if capability := row.Get(internal.ColCapability); capability != "" {
		e.capabilities = append(e.capabilities, internal.Capability{
			OrganisationCapability: capability,
			OrganisationID:         orgID,
			ItemID:                 util.StringOrNil(itemID),
			DetailedItemID:         detailedID,
			CapabilityType:         util.StringOrNil(row.Get(internal.ColCapabilityType)),
			ValidationDate:         util.NormalizeDate(row.Get(internal.ColValidationDate)),
			SectorMappingID:        sectorID,
		})
	}
}

// Dataset hands the accumulated collections to exporters. Each collection
// preserves first-observation order.
func (e *Engine) Dataset() internal.Dataset {
	return internal.Dataset{
		Items:         e.items,
		DetailedItems: e.detailedItems,
		Sectors:       e.sectors,
		Organisations: e.organisations,
		Capabilities:  e.capabilities,
	}
}

func (e *Engine) registerItem(id, name string) {
	if _, ok := e.itemIndex[id]; ok {
		return
	}
	e.itemIndex[id] = len(e.items)
	e.items = append(e.items, internal.Item{ItemID: id, ItemName: name})
}

func (e *Engine) registerDetailedItem(id, name, itemID string) {
	if _, ok := e.detailedIndex[id]; ok {
		return
	}
	e.detailedIndex[id] = len(e.detailedItems)
	e.detailedItems = append(e.detailedItems, internal.DetailedItem{
		DetailedItemID:   id,
		DetailedItemName: name,
		ItemID:           util.StringOrNil(itemID),
	})
}

func (e *Engine) registerSector(id, name string) {
	if _, ok := e.sectorIndex[id]; ok {
		return
	}
	e.sectorIndex[id] = len(e.sectors)
	e.sectors = append(e.sectors, internal.Sector{SectorMappingID: id, SectorName: name})
}

// mergeOrganisation creates or progressively fills the record for a
// case-normalized organisation id. Fields only move from absent to present;
// a later conflicting value never overwrites an earlier one.
func (e *Engine) mergeOrganisation(id string, row internal.SourceRow) {
	latitude := parseCoordinate(row.Get(internal.ColLatitude))
	longitude := parseCoordinate(row.Get(internal.ColLongitude))

	idx, ok := e.orgIndex[id]
	if !ok {
		e.orgIndex[id] = len(e.organisations)
		e.organisations = append(e.organisations, internal.Organisation{
			OrganisationID:       id,
			OrganisationName:     util.StringOrNil(row.Get(internal.ColOrganisationName)),
			BillingStreet:        util.StringOrNil(row.Get(internal.ColBillingStreet)),
			BillingCity:          util.StringOrNil(row.Get(internal.ColBillingCity)),
			BillingStateProvince: util.StringOrNil(row.Get(internal.ColBillingState)),
			BillingZipPostalCode: util.StringOrNil(row.Get(internal.ColBillingZip)),
			FormattedAddress:     util.StringOrNil(row.Get(internal.ColFormattedAddress)),
			Latitude:             latitude,
			Longitude:            longitude,
		})
		return
	}

	org := &e.organisations[idx]
	if org.OrganisationName == nil {
		org.OrganisationName = util.StringOrNil(row.Get(internal.ColOrganisationName))
	}
	if org.BillingStreet == nil {
		org.BillingStreet = util.StringOrNil(row.Get(internal.ColBillingStreet))
	}
	if org.BillingCity == nil {
		org.BillingCity = util.StringOrNil(row.Get(internal.ColBillingCity))
	}
	if org.BillingStateProvince == nil {
		org.BillingStateProvince = util.StringOrNil(row.Get(internal.ColBillingState))
	}
	if org.BillingZipPostalCode == nil {
		org.BillingZipPostalCode = util.StringOrNil(row.Get(internal.ColBillingZip))
	}
	if org.FormattedAddress == nil {
		org.FormattedAddress = util.StringOrNil(row.Get(internal.ColFormattedAddress))
	}
	if org.Latitude == nil {
		org.Latitude = latitude
	}
	if org.Longitude == nil {
		org.Longitude = longitude
	}
}

// parseCoordinate is best-effort: a cell that does not parse is absent, and
// latitude and longitude parse independently. A parsed 0 is a value.
func parseCoordinate(input string) *float64 {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
