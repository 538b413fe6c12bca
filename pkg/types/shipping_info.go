package types

import "strings"

// ShippingInfo is the destination block captured at checkout.
type ShippingInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Region   string `json:"region,omitempty"`
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	PostCode string `json:"postCode,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// AddressLines returns the non-empty address parts in display order.
func (s ShippingInfo) AddressLines() []string {
	lines := make([]string, 0, 4)
	for _, part := range []string{s.Street, s.City, s.Region, s.PostCode} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
