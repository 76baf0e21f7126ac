package model

import (
	"fmt"
	"strings"
)

// Item is an inventory record keyed by its item code.
type Item struct {
	ItemCode          string  `json:"item_code"`
	Name              string  `json:"name"`
	Image             *string `json:"image"`
	Description       *string `json:"description"`
	Quantity          int     `json:"quantity"`
	ProcurementDate   Date    `json:"procurement_date"`
	ManufacturingDate *Date   `json:"manufacturing_date"`
	ExpiryDate        *Date   `json:"expiry_date"`
}

// ValidationError reports a field that failed boundary validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the item against the data model rules. The item code may be
// empty; the store generates one on create.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if i.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if i.ProcurementDate.IsZero() {
		return &ValidationError{Field: "procurement_date", Reason: "required"}
	}
	return nil
}

// Clone returns a deep copy of the item so stored records never share
// pointers with callers.
func (i Item) Clone() Item {
	c := i
	if i.Image != nil {
		v := *i.Image
		c.Image = &v
	}
	if i.Description != nil {
		v := *i.Description
		c.Description = &v
	}
	if i.ManufacturingDate != nil {
		v := *i.ManufacturingDate
		c.ManufacturingDate = &v
	}
	if i.ExpiryDate != nil {
		v := *i.ExpiryDate
		c.ExpiryDate = &v
	}
	return c
}

// SearchFilter selects items in a search. Nil fields impose no constraint.
type SearchFilter struct {
	Name            *string
	ProcurementDate *Date
	ExpiryDate      *Date
}

// Matches reports whether the item satisfies every set filter.
func (f SearchFilter) Matches(item Item) bool {
	if f.Name != nil && *f.Name != "" &&
		!strings.Contains(strings.ToLower(item.Name), strings.ToLower(*f.Name)) {
		return false
	}
	if f.ProcurementDate != nil && !item.ProcurementDate.Equal(*f.ProcurementDate) {
		return false
	}
	if f.ExpiryDate != nil {
		if item.ExpiryDate == nil || !item.ExpiryDate.Equal(*f.ExpiryDate) {
			return false
		}
	}
	return true
}
