package util

import (
	"strconv"
	"strings"
)

// naMarker is the spreadsheet error value that leaks into address cells of
// the export; it carries no data and is treated as blank.
const naMarker = "#N/A"

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

// StringValue is the inverse of StringOrNil for rendering: absent becomes
// the empty cell.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// FloatString renders a coordinate with the shortest exact decimal form, or
// an empty cell for absent.
func FloatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// StringOrNil maps a blank cell to an explicit absent value.
func StringOrNil(input string) *string {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	return &s
}

// CleanCell trims a raw cell and drops the #N/A marker.
func CleanCell(input string) string {
	s := strings.TrimSpace(input)
	if s == naMarker {
		return ""
	}
	return s
}

// TrimBOM strips the UTF-8 byte-order mark some exports prepend to the
// first header cell.
func TrimBOM(input string) string {
	return strings.TrimPrefix(input, "\uFEFF")
}

// JoinAddress assembles a geocoding query from billing address fragments.
// Blank and #N/A fragments are skipped; a street's trailing comma is dropped
// so the joined string does not double up separators.
func JoinAddress(street, city, state, postcode string) string {
	parts := make([]string, 0, 4)
	if s := CleanCell(street); s != "" {
		parts = append(parts, strings.TrimRight(s, ","))
	}
	if s := CleanCell(city); s != "" {
		parts = append(parts, s)
	}
	if s := CleanCell(state); s != "" {
		parts = append(parts, s)
	}
	if s := CleanCell(postcode); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
