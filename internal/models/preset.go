package models

import "time"

// Preset is a named set of caption style defaults. Style uses the JSON field
// names of subtitle.StyleConfig and may be partial.
type Preset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Style       map[string]any `json:"style"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}
