package model

import "time"

const (
	AddressShipping = "SHIPPING"
	AddressBilling  = "BILLING"
	AddressBoth     = "BOTH"
)

type Address struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	IsDefault  bool      `json:"is_default"`
	FullName   string    `json:"full_name"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OverlappingAddressTypes lists the stored types that serve lookups of t.
func OverlappingAddressTypes(t string) []string {
	switch t {
	case AddressShipping:
		return []string{AddressShipping, AddressBoth}
	case AddressBilling:
		return []string{AddressBilling, AddressBoth}
	default:
		return []string{AddressShipping, AddressBilling, AddressBoth}
	}
}

// AddressSnapshot is the copy of an address frozen into an order.
type AddressSnapshot struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}
