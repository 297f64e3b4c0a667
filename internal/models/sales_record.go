package models

import "time"

// SalesRecord is one invoice line as reported by the ERP
type SalesRecord struct {
	ID       int64     `json:"id,omitempty" db:"id"`
	Date     time.Time `json:"date" db:"sale_date"`
	Dealer   string    `json:"dealer" db:"dealer"`
	State    string    `json:"state" db:"state"`
	City     string    `json:"city" db:"city"`
	Category string    `json:"category" db:"category"`
	Product  string    `json:"product" db:"product"`
	Value    float64   `json:"value" db:"value"`       // Revenue (INR)
	Quantity float64   `json:"quantity" db:"quantity"` // Units
}

// Field returns the record's value for a dimension
func (r SalesRecord) Field(d Dimension) string {
	switch d {
	case DimensionDealer:
		return r.Dealer
	case DimensionState:
		return r.State
	case DimensionCity:
		return r.City
	case DimensionProduct:
		return r.Product
	case DimensionCategory:
		return r.Category
	}
	return ""
}
