package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/nfsee/internal/model"
)

type sampleItem struct {
	name     string
	category string
	status   model.Status
	outFor   time.Duration
}

type sampleContainer struct {
	name     string
	location string
	items    []sampleItem
}

const day = 24 * time.Hour

// sampleData exercises search, the status filter and every indicator:
// "Extension cord" is yellow, "Holiday lights" is red and "Old phone
// charger" is hidden.
var sampleData = []sampleContainer{
	{"Garage – Blue Bin #1", "Garage", []sampleItem{
		{"Power drill", "Tools", model.StatusIn, 0},
		{"Extension cord", "Tools", model.StatusOut, 3 * day},
		{"Paint brushes", "Supplies", model.StatusIn, 0},
	}},
	{"Kitchen Drawer", "Kitchen", []sampleItem{
		{"Measuring tape", "Tools", model.StatusIn, 0},
		{"Screwdriver set", "Tools", model.StatusIn, 0},
		{"Old phone charger", "Electronics", model.StatusRemoved, 0},
	}},
	{"Closet Shelf", "Bedroom", []sampleItem{
		{"Holiday lights", "Decor", model.StatusOut, 15 * day},
		{"Winter gloves", "Clothing", model.StatusIn, 0},
		{"Photo albums", "Memorabilia", model.StatusIn, 0},
	}},
}

// SeedIfEmpty inserts the sample containers and items when there are no
// containers yet. The emptiness check and the inserts share one immediate
// transaction, so concurrent callers seed at most once. It reports whether
// anything was inserted.
func SeedIfEmpty(ctx context.Context, db *sql.DB, now time.Time) (bool, error) {
	now = now.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM containers`).Scan(&count); err != nil {
		return false, storageErr("counting containers", err)
	}
	if count > 0 {
		return false, nil
	}

	for _, sc := range sampleData {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO containers (name, location_label, created_at) VALUES (?, ?, ?)`,
			sc.name, nullString(sc.location), now,
		)
		if err != nil {
			return false, storageErr("seeding container", err)
		}
		containerID, err := result.LastInsertId()
		if err != nil {
			return false, storageErr("getting container id", err)
		}

		for _, si := range sc.items {
			var markedOutAt *time.Time
			if si.status == model.StatusOut {
				t := now.Add(-si.outFor)
				markedOutAt = &t
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO items (name, category, status, container_id, created_at, marked_out_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				si.name, nullString(si.category), si.status, containerID, now, nullTime(markedOutAt),
			)
			if err != nil {
				return false, storageErr("seeding item", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("committing seed data", err)
	}
	return true, nil
}
