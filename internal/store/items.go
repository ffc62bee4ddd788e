package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/nfsee/internal/model"
)

const itemColumns = `id, name, category, status, container_id, created_at, marked_out_at`

func scanItem(s scanner) (model.Item, error) {
	var item model.Item
	var category sql.NullString
	if err := s.Scan(&item.ID, &item.Name, &category, &item.Status, &item.ContainerID, &item.CreatedAt, &item.MarkedOutAt); err != nil {
		return item, err
	}
	item.Category = category.String
	return item, nil
}

func checkStatus(status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

// CreateItem inserts an item into an existing container. The ID of item is
// ignored, an empty status means IN and a zero CreatedAt is set to the
// current time. An OUT item without MarkedOutAt is stamped with CreatedAt;
// MarkedOutAt is dropped for any other status.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	if item.Status == "" {
		item.Status = model.StatusIn
	}
	if err := checkStatus(item.Status); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	item.CreatedAt = utc(item.CreatedAt)
	switch {
	case item.Status != model.StatusOut:
		item.MarkedOutAt = nil
	case item.MarkedOutAt == nil:
		t := item.CreatedAt
		item.MarkedOutAt = &t
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	ok, err := containerExists(ctx, tx, item.ContainerID)
	if err != nil {
		return nil, storageErr("checking container", err)
	}
	if !ok {
		return nil, fmt.Errorf("creating item in container %d: %w", item.ContainerID, ErrInvalidContainer)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (name, category, status, container_id, created_at, marked_out_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name, nullString(item.Category), item.Status, item.ContainerID, item.CreatedAt, nullTime(item.MarkedOutAt),
	)
	if err != nil {
		return nil, storageErr("creating item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("getting item id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing item", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if there is none. REMOVED items are
// returned too.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting item", err)
	}
	return &item, nil
}

// ListItems returns a container's items that are not REMOVED, ordered by name.
func ListItems(ctx context.Context, db *sql.DB, containerID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE container_id = ? AND status != 'REMOVED'
		 ORDER BY name, id`, containerID,
	)
	if err != nil {
		return nil, storageErr("listing items", err)
	}
	return collectItems(rows, "listing items")
}

// ListAllItems returns every item in every container, REMOVED ones included,
// ordered by ID.
func ListAllItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, storageErr("listing all items", err)
	}
	return collectItems(rows, "listing all items")
}

func collectItems(rows *sql.Rows, op string) ([]model.Item, error) {
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scanning item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

// UpdateItem replaces an item's mutable fields. CreatedAt is never changed
// and MarkedOutAt is cleared for IN items. Moving the item to a container
// that does not exist fails with ErrInvalidContainer; updating an item that
// does not exist is a no-op.
func UpdateItem(ctx context.Context, db *sql.DB, item model.Item) error {
	if err := checkStatus(item.Status); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if item.Status == model.StatusIn {
		item.MarkedOutAt = nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	ok, err := containerExists(ctx, tx, item.ContainerID)
	if err != nil {
		return storageErr("checking container", err)
	}
	if !ok {
		return fmt.Errorf("moving item %d to container %d: %w", item.ID, item.ContainerID, ErrInvalidContainer)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, status = ?, container_id = ?, marked_out_at = ?
		 WHERE id = ?`,
		item.Name, nullString(item.Category), item.Status, item.ContainerID, nullTime(item.MarkedOutAt), item.ID,
	)
	if err != nil {
		return storageErr("updating item", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing item update", err)
	}
	return nil
}

// DeleteItem permanently deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return storageErr("deleting item", err)
	}
	return nil
}

// ToggleItem flips an item between IN and OUT at now and returns the updated
// item, or nil if there is no such item. REMOVED items fail with
// ErrNotToggleable.
func ToggleItem(ctx context.Context, db *sql.DB, id int64, now model.Clock) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting item", err)
	}

	if !item.Toggle(now().UTC()) {
		return nil, fmt.Errorf("toggling item %d (%s): %w", id, item.Status, ErrNotToggleable)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, marked_out_at = ? WHERE id = ?`,
		item.Status, nullTime(item.MarkedOutAt), id,
	)
	if err != nil {
		return nil, storageErr("toggling item", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing item toggle", err)
	}
	return &item, nil
}
