package repository

import "github.com/shopspring/decimal"

// Product is a shop catalog item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

// Practitioner is a bookable wellness practitioner.
type Practitioner struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Bio             string  `json:"bio"`
	Rating          float64 `json:"rating"`
	YearsExperience int32   `json:"years_experience"`
}
