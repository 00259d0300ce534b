package corpus

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("poem not found")

// Accessor is the read-only view the match engine and validator depend on.
type Accessor interface {
	All(ctx context.Context) ([]Poem, error)
	ByID(ctx context.Context, id string) (Poem, error)
	// FilterByMaxKimariji returns poems whose decisive-prefix length is at
	// most n, the eligibility pool for a level.
	FilterByMaxKimariji(ctx context.Context, n int) ([]Poem, error)
}
