package repo

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/nfsee/internal/live"
	"github.com/erazemk/nfsee/internal/metrics"
	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/store"
)

// SQLite implements Repository on top of the store package. All mutations
// must go through it so live feeds are notified.
type SQLite struct {
	db      *sql.DB
	hub     *live.Hub
	log     *slog.Logger
	metrics *metrics.Metrics
	clock   model.Clock
}

var _ Repository = (*SQLite)(nil)

// Option configures a SQLite repository.
type Option func(*SQLite)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *SQLite) { r.log = l }
}

// WithMetrics sets the metrics. The default registers with a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *SQLite) { r.metrics = m }
}

// WithClock sets the clock used for toggles, seeding and indicators.
func WithClock(c model.Clock) Option {
	return func(r *SQLite) { r.clock = c }
}

// New returns a repository over a migrated database.
func New(db *sql.DB, opts ...Option) *SQLite {
	r := &SQLite{
		db:    db,
		hub:   live.NewHub(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock: model.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New(prometheus.NewRegistry())
	}
	return r
}

// Now returns the repository clock's current time.
func (r *SQLite) Now() time.Time {
	return r.clock()
}

// check logs and counts storage failures. Other errors are expected
// outcomes and pass through silently.
func (r *SQLite) check(op string, err error) error {
	if err != nil && store.IsStorageFailure(err) {
		r.log.Error("storage failure", "op", op, "error", err)
		r.metrics.StorageFailure(op)
	}
	return err
}

func (r *SQLite) committed(entity, op string, topics live.Topic, attrs ...any) {
	r.metrics.Mutation(entity, op)
	r.log.Debug(entity+" "+op, attrs...)
	r.hub.Publish(topics)
}

func watch[T any](ctx context.Context, r *SQLite, kind string, topics live.Topic, query live.QueryFunc[T]) (*live.Feed[T], error) {
	feed, err := live.Watch(ctx, r.hub, topics, func(ctx context.Context) (T, error) {
		r.metrics.Snapshot(kind)
		v, err := query(ctx)
		return v, r.check(kind, err)
	})
	if err != nil {
		return nil, err
	}

	r.metrics.ActiveFeeds.Inc()
	go func() {
		<-feed.Done()
		r.metrics.ActiveFeeds.Dec()
	}()
	return feed, nil
}

func (r *SQLite) ListContainers(ctx context.Context) (*live.Feed[[]model.Container], error) {
	return watch(ctx, r, "containers", live.Containers, func(ctx context.Context) ([]model.Container, error) {
		return store.ListContainers(ctx, r.db)
	})
}

func (r *SQLite) GetContainer(ctx context.Context, id int64) (*model.Container, error) {
	c, err := store.GetContainer(ctx, r.db, id)
	return c, r.check("get container", err)
}

func (r *SQLite) InsertContainer(ctx context.Context, c model.Container) (*model.Container, error) {
	created, err := store.CreateContainer(ctx, r.db, c)
	if err != nil {
		return nil, r.check("insert container", err)
	}
	r.committed("container", "create", live.Containers, "id", created.ID)
	return created, nil
}

func (r *SQLite) UpdateContainer(ctx context.Context, c model.Container) error {
	if err := store.UpdateContainer(ctx, r.db, c); err != nil {
		return r.check("update container", err)
	}
	r.committed("container", "update", live.Containers, "id", c.ID)
	return nil
}

func (r *SQLite) DeleteContainer(ctx context.Context, c model.Container) error {
	if err := store.DeleteContainer(ctx, r.db, c.ID); err != nil {
		return r.check("delete container", err)
	}
	r.committed("container", "delete", live.All, "id", c.ID)
	return nil
}

func (r *SQLite) ListItems(ctx context.Context, containerID int64) (*live.Feed[[]model.Item], error) {
	return watch(ctx, r, "items", live.Items, func(ctx context.Context) ([]model.Item, error) {
		return store.ListItems(ctx, r.db, containerID)
	})
}

func (r *SQLite) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, r.db, id)
	return item, r.check("get item", err)
}

func (r *SQLite) InsertItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.clock()
	}
	created, err := store.CreateItem(ctx, r.db, item)
	if err != nil {
		return nil, r.check("insert item", err)
	}
	r.committed("item", "create", live.Items, "id", created.ID, "container_id", created.ContainerID)
	return created, nil
}

func (r *SQLite) UpdateItem(ctx context.Context, item model.Item) error {
	if err := store.UpdateItem(ctx, r.db, item); err != nil {
		return r.check("update item", err)
	}
	r.committed("item", "update", live.Items, "id", item.ID)
	return nil
}

func (r *SQLite) DeleteItem(ctx context.Context, item model.Item) error {
	if err := store.DeleteItem(ctx, r.db, item.ID); err != nil {
		return r.check("delete item", err)
	}
	r.committed("item", "delete", live.Items, "id", item.ID)
	return nil
}

func (r *SQLite) ToggleItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.ToggleItem(ctx, r.db, id, r.clock)
	if err != nil || item == nil {
		return nil, r.check("toggle item", err)
	}
	r.committed("item", "toggle", live.Items, "id", id, "status", item.Status)
	return item, nil
}

func (r *SQLite) SearchItems(ctx context.Context, q model.SearchQuery) (*live.Feed[[]model.ItemSearchResult], error) {
	return watch(ctx, r, "search", live.All, func(ctx context.Context) ([]model.ItemSearchResult, error) {
		return store.SearchItems(ctx, r.db, q)
	})
}

func (r *SQLite) SeedIfEmpty(ctx context.Context) (bool, error) {
	seeded, err := store.SeedIfEmpty(ctx, r.db, r.clock())
	if err != nil {
		return false, r.check("seed", err)
	}
	if seeded {
		r.log.Info("sample data seeded")
		r.committed("sample", "seed", live.All)
	}
	return seeded, nil
}
