package util

import (
	"strings"
	"time"
)

// NormalizeDate rewrites a dd/mm/yyyy validation date to yyyy-mm-dd. Values
// already in yyyy-mm-dd form pass through; anything else is nil. Parsing is
// best-effort and never reports an error; a bad date must not abort a pass.
func NormalizeDate(input string) *string {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	if strings.Contains(s, "/") {
		parsed, err := time.Parse("2/1/2006", s)
		if err != nil {
			return nil
		}
		return StringPtr(parsed.Format("2006-01-02"))
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return StringPtr(s)
	}
	return nil
}
