package scraper

import (
	"context"
	"errors"
)

var (
	ErrEmptyURL  = errors.New("product URL is empty")
	ErrBadStatus = errors.New("unexpected HTTP status")
)

// PageGetter returns the markup of a product page.
type PageGetter interface {
	GetPage(ctx context.Context, url string) (string, error)
}

// PageGetterFunc adapts a function to PageGetter.
type PageGetterFunc func(ctx context.Context, url string) (string, error)

func (f PageGetterFunc) GetPage(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
