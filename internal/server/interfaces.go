package server

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/invalidation"
	"spacetraveling/internal/service"
)

type Blog interface {
	FirstPage(ctx context.Context) (*domain.Page, error)
	FetchPage(ctx context.Context, cursor string) (*domain.Page, error)
	Post(ctx context.Context, uid string) (*service.PostView, error)
	Recent(ctx context.Context) ([]domain.PostSummary, error)
}

// Invalidator broadcasts cache invalidations.
type Invalidator interface {
	Publish(ctx context.Context, msg invalidation.Message) error
}
