package model

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// ItemSearchResult is an item joined with its owning container's name and
// location. It is read-only and only produced by searches.
type ItemSearchResult struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category,omitempty"`
	Status            Status     `json:"status"`
	ContainerID       int64      `json:"container_id"`
	CreatedAt         time.Time  `json:"created_at"`
	MarkedOutAt       *time.Time `json:"marked_out_at,omitempty"`
	ContainerName     string     `json:"container_name"`
	ContainerLocation string     `json:"container_location,omitempty"`
}

// Indicator returns the result's status indicator at now.
func (r ItemSearchResult) Indicator(now time.Time) Indicator {
	return IndicatorFor(r.Status, r.CreatedAt, r.MarkedOutAt, now)
}

// SearchQuery selects items across all containers. The zero value matches
// every item that is not REMOVED.
type SearchQuery struct {
	// Text is matched case-insensitively as a substring of the item name,
	// category or container name. Blank text matches everything.
	Text string
	// Status keeps only items with this status when non-empty.
	Status Status
}

// HasText reports whether the query filters by text.
func (q SearchQuery) HasText() bool {
	return strings.TrimSpace(q.Text) != ""
}

// Fold is the case folding used for text matching. The SQLite store exposes
// the same function to SQL so both search paths agree.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Matches reports whether item, held by container c, passes the query.
func (q SearchQuery) Matches(item Item, c Container) bool {
	if item.Status == StatusRemoved {
		return false
	}
	if q.Status != "" && item.Status != q.Status {
		return false
	}
	if !q.HasText() {
		return true
	}
	needle := Fold(q.Text)
	return strings.Contains(Fold(item.Name), needle) ||
		strings.Contains(Fold(item.Category), needle) ||
		strings.Contains(Fold(c.Name), needle)
}

// Search runs q over in-memory collections, joining items to containers by
// ContainerID. Items whose container is missing are skipped. Results are
// ordered by item name, then ID.
func Search(containers []Container, items []Item, q SearchQuery) []ItemSearchResult {
	byID := make(map[int64]Container, len(containers))
	for _, c := range containers {
		byID[c.ID] = c
	}

	var results []ItemSearchResult
	for _, item := range items {
		c, ok := byID[item.ContainerID]
		if !ok || !q.Matches(item, c) {
			continue
		}
		results = append(results, ItemSearchResult{
			ID:                item.ID,
			Name:              item.Name,
			Category:          item.Category,
			Status:            item.Status,
			ContainerID:       item.ContainerID,
			CreatedAt:         item.CreatedAt,
			MarkedOutAt:       item.MarkedOutAt,
			ContainerName:     c.Name,
			ContainerLocation: c.LocationLabel,
		})
	}

	slices.SortStableFunc(results, func(a, b ItemSearchResult) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return results
}
