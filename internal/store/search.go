package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/nfsee/internal/model"
)

// SearchItems returns the items matching q across all containers, joined to
// their container and ordered by item name then ID. It agrees with
// model.Search over the same data.
func SearchItems(ctx context.Context, db *sql.DB, q model.SearchQuery) ([]model.ItemSearchResult, error) {
	query := `SELECT i.id, i.name, i.category, i.status, i.container_id, i.created_at, i.marked_out_at,
	                 c.name AS container_name, c.location_label AS container_location
	          FROM items i
	          JOIN containers c ON c.id = i.container_id
	          WHERE i.status != 'REMOVED'`
	var args []any

	if q.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, q.Status)
	}
	if q.HasText() {
		query += ` AND (instr(casefold(i.name), casefold(?)) > 0
		             OR instr(casefold(i.category), casefold(?)) > 0
		             OR instr(casefold(c.name), casefold(?)) > 0)`
		args = append(args, q.Text, q.Text, q.Text)
	}
	query += ` ORDER BY i.name, i.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("searching items", err)
	}
	defer rows.Close()

	var results []model.ItemSearchResult
	for rows.Next() {
		var r model.ItemSearchResult
		var category, location sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &category, &r.Status, &r.ContainerID, &r.CreatedAt, &r.MarkedOutAt,
			&r.ContainerName, &location); err != nil {
			return nil, storageErr("scanning search result", err)
		}
		r.Category = category.String
		r.ContainerLocation = location.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("searching items", err)
	}
	return results, nil
}
