// Package views stores the accumulated state of listing page views.
package views

//go:generate mockgen -source=views.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"

	"spacetraveling/internal/listing"
)

// ErrViewNotFound is returned when a view id is unknown or expired.
var ErrViewNotFound = errors.New("view not found")

// Store persists listing views under generated ids. Save refreshes the
// expiry of an existing view.
type Store interface {
	Create(ctx context.Context, state listing.State) (string, error)
	Load(ctx context.Context, id string) (listing.State, error)
	Save(ctx context.Context, id string, state listing.State) error
}
