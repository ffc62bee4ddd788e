package model

import "time"

// DefaultContainerName is the placeholder name of a freshly created container.
const DefaultContainerName = "New Container"

// Container is a physical place (bin, drawer, shelf, garage box) that holds items.
type Container struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	LocationLabel string    `json:"location_label,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
