package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/erazemk/nfsee/internal/model"
)

const containerColumns = `id, name, location_label, created_at`

func scanContainer(s scanner) (model.Container, error) {
	var c model.Container
	var location sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &location, &c.CreatedAt); err != nil {
		return c, err
	}
	c.LocationLabel = location.String
	return c, nil
}

// CreateContainer inserts a container. The ID of c is ignored; a zero
// CreatedAt is set to the current time.
func CreateContainer(ctx context.Context, db *sql.DB, c model.Container) (*model.Container, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO containers (name, location_label, created_at) VALUES (?, ?, ?)`,
		c.Name, nullString(c.LocationLabel), utc(c.CreatedAt),
	)
	if err != nil {
		return nil, storageErr("creating container", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("getting container id", err)
	}

	return GetContainer(ctx, db, id)
}

// GetContainer returns a container by ID, or nil if there is none.
func GetContainer(ctx context.Context, db *sql.DB, id int64) (*model.Container, error) {
	c, err := scanContainer(db.QueryRowContext(ctx,
		`SELECT `+containerColumns+` FROM containers WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting container", err)
	}
	return &c, nil
}

// ListContainers returns all containers ordered by name.
func ListContainers(ctx context.Context, db *sql.DB) ([]model.Container, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+containerColumns+` FROM containers ORDER BY name, id`,
	)
	if err != nil {
		return nil, storageErr("listing containers", err)
	}
	defer rows.Close()

	var containers []model.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, storageErr("scanning container", err)
		}
		containers = append(containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("listing containers", err)
	}
	return containers, nil
}

// UpdateContainer replaces a container's name and location. Updating a
// container that does not exist is a no-op.
func UpdateContainer(ctx context.Context, db *sql.DB, c model.Container) error {
	_, err := db.ExecContext(ctx,
		`UPDATE containers SET name = ?, location_label = ? WHERE id = ?`,
		c.Name, nullString(c.LocationLabel), c.ID,
	)
	if err != nil {
		return storageErr("updating container", err)
	}
	return nil
}

// DeleteContainer deletes a container together with all of its items in a
// single transaction.
func DeleteContainer(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE container_id = ?`, id); err != nil {
		return storageErr("deleting container items", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id); err != nil {
		return storageErr("deleting container", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing container delete", err)
	}
	return nil
}

// containerExists reports whether a container with id exists.
func containerExists(ctx context.Context, q querier, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM containers WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
