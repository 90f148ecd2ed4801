package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Queries is the pgx-backed implementation of Querier.
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a Queries instance over the given pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const listProducts = `
SELECT id, name, category, description, price::text, stock, image_url
FROM products
ORDER BY id
`

// ListProducts returns the full product catalog. Stock filtering is applied by
// the caller so the fallback policy stays in one place.
func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.pool.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &price, &p.Stock, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price for product %d: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const listPractitioners = `
SELECT id, name, specialization, bio, rating, years_experience
FROM practitioners
ORDER BY id
`

// ListPractitioners returns the full practitioner catalog.
func (q *Queries) ListPractitioners(ctx context.Context) ([]Practitioner, error) {
	rows, err := q.pool.Query(ctx, listPractitioners)
	if err != nil {
		return nil, fmt.Errorf("failed to query practitioners: %w", err)
	}
	defer rows.Close()

	var practitioners []Practitioner
	for rows.Next() {
		var p Practitioner
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialization, &p.Bio, &p.Rating, &p.YearsExperience); err != nil {
			return nil, fmt.Errorf("failed to scan practitioner row: %w", err)
		}
		practitioners = append(practitioners, p)
	}
	return practitioners, rows.Err()
}
