package repository

import "context"

// Querier is the read surface the chat handlers depend on. Tests substitute
// in-memory implementations.
type Querier interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListPractitioners(ctx context.Context) ([]Practitioner, error)
}
