package notify

import "strings"

// DefaultCountryCode is prefixed to numbers entered without one.
const DefaultCountryCode = "+91"

// FormatPhone strips spaces and dashes and adds DefaultCountryCode
// unless the number already starts with "+".
func FormatPhone(phone string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" || strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	return DefaultCountryCode + cleaned
}
