package types

import "strings"

// Address is a saved delivery or shipping address selected at checkout.
type Address struct {
	ID         string  `json:"id,omitempty"`
	Label      string  `json:"label,omitempty"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postalCode" validate:"required"`
	Country    string  `json:"country,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// IsZero reports whether no address was selected.
func (a *Address) IsZero() bool {
	if a == nil {
		return true
	}
	return strings.TrimSpace(a.ID) == "" && strings.TrimSpace(a.Line1) == ""
}
