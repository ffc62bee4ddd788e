package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultItemName is the placeholder name of a freshly created item.
const DefaultItemName = "New Item"

// Status is the state of an item relative to its container.
type Status string

// Item statuses.
const (
	StatusIn      Status = "IN"
	StatusOut     Status = "OUT"
	StatusRemoved Status = "REMOVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIn, StatusOut, StatusRemoved:
		return true
	}
	return false
}

// ParseStatus parses a status name, ignoring case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown item status %q", s)
	}
	return st, nil
}

// Item is a tracked belonging that lives in exactly one container.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category,omitempty"`
	Status      Status     `json:"status"`
	ContainerID int64      `json:"container_id"`
	CreatedAt   time.Time  `json:"created_at"`
	MarkedOutAt *time.Time `json:"marked_out_at,omitempty"`
}

// Indicator returns the item's status indicator at now.
func (i Item) Indicator(now time.Time) Indicator {
	return IndicatorFor(i.Status, i.CreatedAt, i.MarkedOutAt, now)
}

// Toggle flips an IN item to OUT (stamping MarkedOutAt) and an OUT item back
// to IN (clearing it). It reports false and leaves the item untouched for any
// other status.
func (i *Item) Toggle(now time.Time) bool {
	switch i.Status {
	case StatusIn:
		i.Status = StatusOut
		t := now
		i.MarkedOutAt = &t
		return true
	case StatusOut:
		i.Status = StatusIn
		i.MarkedOutAt = nil
		return true
	}
	return false
}
