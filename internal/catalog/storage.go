package catalog

import (
	"context"
	"time"
)

// Storage persists whole catalog snapshots. Load returns (nil, nil) when
// nothing has been saved yet.
type Storage interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
	Ping(ctx context.Context) error
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
