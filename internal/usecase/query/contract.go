package query

import (
	"context"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Repository resolves a source clause into document paths.
type Repository interface {
	List(ctx context.Context, source string) ([]string, error)
}

// Loader reads one document's property bag.
type Loader interface {
	Load(ctx context.Context, path string) (props.Bag, error)
}
