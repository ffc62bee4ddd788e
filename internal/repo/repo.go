// Package repo is the persistence contract used by the presentation
// adapters, with live feeds for every list and search query.
package repo

import (
	"context"
	"time"

	"github.com/erazemk/nfsee/internal/live"
	"github.com/erazemk/nfsee/internal/model"
)

// Repository is the store contract. Point lookups return nil without an
// error when nothing matches. Failures of the underlying store are returned
// as *store.StorageError; an item referencing a missing container fails with
// store.ErrInvalidContainer.
type Repository interface {
	// ListContainers streams all containers ordered by name.
	ListContainers(ctx context.Context) (*live.Feed[[]model.Container], error)
	GetContainer(ctx context.Context, id int64) (*model.Container, error)
	InsertContainer(ctx context.Context, c model.Container) (*model.Container, error)
	UpdateContainer(ctx context.Context, c model.Container) error
	// DeleteContainer deletes c and all of its items atomically.
	DeleteContainer(ctx context.Context, c model.Container) error

	// ListItems streams the items of one container that are not REMOVED,
	// ordered by name.
	ListItems(ctx context.Context, containerID int64) (*live.Feed[[]model.Item], error)
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	InsertItem(ctx context.Context, item model.Item) (*model.Item, error)
	UpdateItem(ctx context.Context, item model.Item) error
	DeleteItem(ctx context.Context, item model.Item) error
	// ToggleItem flips an item between IN and OUT.
	ToggleItem(ctx context.Context, id int64) (*model.Item, error)

	// SearchItems streams the items matching q across all containers.
	SearchItems(ctx context.Context, q model.SearchQuery) (*live.Feed[[]model.ItemSearchResult], error)

	// SeedIfEmpty inserts the sample data when there are no containers.
	SeedIfEmpty(ctx context.Context) (bool, error)

	// Now is the time indicators are evaluated against.
	Now() time.Time
}
