package internal

import "strings"

// Column names as written by the capability-register report export. All
// lookups are by header name, never by position; the first header cell may
// carry a UTF-8 BOM artifact which readers strip before building the map.
const (
	ColDetailedItemID   = "Detailed Item ID  ↓"
	ColDetailedItemName = "Detailed Item Name"
	ColItemID           = "Item ID"
	ColItemName         = "Item Name"
	ColSectorMappingID  = "Sector Mapping ID"
	ColSectorName       = "Sector Name"
	ColOrganisationID   = "Organisation: Organisation ID"
	ColOrganisationName = "Organisation: Organisation Name"
	ColBillingStreet    = "Organisation: Billing Street"
	ColBillingCity      = "Organisation: Billing City"
	ColBillingState     = "Organisation: Billing State/Province"
	ColBillingZip       = "Organisation: Billing Zip/Postal Code"
	ColCapability       = "Organisation Capability"
	ColCapabilityType   = "Capability Type"
	ColValidationDate   = "Validation Date"
	ColFormattedAddress = "Formatted_Address"
	ColLatitude         = "Latitude"
	ColLongitude        = "Longitude"
	ColGeocodeService   = "Geocoding_Service"
	ColGeocodeStatus    = "Geocoding_Status"
)

// SubtotalMarker labels aggregate rows in the export; such rows carry no
// organisation data and never open a carry-forward group.
const SubtotalMarker = "Subtotal"

type SourceRow struct {
	LineNo int
	Values map[string]string
}

// Get returns the trimmed cell value for a column, or "" when the column is
// absent from the input.
func (r SourceRow) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

type Item struct {
	ItemID   string
	ItemName string
}

type DetailedItem struct {
	DetailedItemID   string
	DetailedItemName string
	ItemID           *string
}

type Sector struct {
	SectorMappingID string
	SectorName      string
}

type Organisation struct {
	OrganisationID       string
	OrganisationName     *string
	BillingStreet        *string
	BillingCity          *string
	BillingStateProvince *string
	BillingZipPostalCode *string
	FormattedAddress     *string
	Latitude             *float64
	Longitude            *float64
}

type Capability struct {
	OrganisationCapability string
	OrganisationID         string
	ItemID                 *string
	DetailedItemID         *string
	CapabilityType         *string
	ValidationDate         *string
	SectorMappingID        *string
}

// Dataset holds the five normalized collections in insertion order. It is
// assembled by one engine pass and read-only once handed to exporters.
type Dataset struct {
	Items         []Item
	DetailedItems []DetailedItem
	Sectors       []Sector
	Organisations []Organisation
	Capabilities  []Capability
}

type GeocodeStatus string

const (
	GeocodeSuccess    GeocodeStatus = "success"
	GeocodeFailed     GeocodeStatus = "failed"
	GeocodeEmptyInput GeocodeStatus = "empty_input"
	GeocodeSkipped    GeocodeStatus = "skipped"
)

type GeocodeResult struct {
	FormattedAddress string
	Latitude         *float64
	Longitude        *float64
	Service          *string
	Status           GeocodeStatus
}
