package domain

import "time"

// Category is a node of the category tree. Names are not unique.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryWithParent is a category plus its immediate parent, if any.
type CategoryWithParent struct {
	Category
	Parent *CategoryRef `json:"parent,omitempty"`
}

// CategoryInput carries the writable fields of a category. Updates replace
// all of them, so a nil ParentID makes the category a root.
type CategoryInput struct {
	// ID is the id carried in an update body, zero when absent.
	ID          int64
	Name        string
	ParentID    *int64
	Description string
	SortOrder   int
}
