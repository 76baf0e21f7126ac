// Package store holds inventory items keyed by item code.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/model"
)

// Store errors.
var (
	ErrDuplicateItemCode = errors.New("item code already exists")
	ErrItemNotFound      = errors.New("item not found")
	ErrItemCodeMismatch  = errors.New("item code in path and body differ")
)

// Store is an item store. Implementations make every method atomic with
// respect to the others and never leave a partial write visible.
type Store interface {
	// Create inserts item, generating an item code when it is empty.
	Create(ctx context.Context, item model.Item) (model.Item, error)

	// Get returns the item stored under code.
	Get(ctx context.Context, code string) (model.Item, error)

	// Update replaces the item stored under code. item.ItemCode must equal code.
	Update(ctx context.Context, code string, item model.Item) (model.Item, error)

	// Delete removes the item stored under code.
	Delete(ctx context.Context, code string) error

	// Search returns every item matching the filter in insertion order.
	Search(ctx context.Context, filter model.SearchFilter) ([]model.Item, error)
}

// newItemCode returns a random v4 UUID that exists reports as unused.
func newItemCode(exists func(string) (bool, error)) (string, error) {
	for {
		code := uuid.NewString()
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}
