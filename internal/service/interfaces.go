package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"spacetraveling/internal/domain"
)

// ContentSource is the headless content API.
type ContentSource interface {
	QueryPage(ctx context.Context, pageSize int, cursor string) (*domain.Page, error)
	QueryAllIdentifiers(ctx context.Context) ([]string, error)
	GetByUID(ctx context.Context, kind, uid string) (*domain.PostDetail, error)
}

type Renderer interface {
	AsText(body domain.RichText) string
	AsHTML(body domain.RichText) string
}

type PrerenderStateStore interface {
	Get(ctx context.Context, name string) (*domain.PrerenderState, error)
	Update(ctx context.Context, state *domain.PrerenderState) error
}
