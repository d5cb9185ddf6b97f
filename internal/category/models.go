// Package category implements the category catalog and its trash
// lifecycle. The "Unknown" category is a sentinel: jokes whose only
// live category is "Unknown" are hidden from client actors.
package category

import "time"

// Category groups jokes. Description is optional.
type Category struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// JokePreview is the slim joke view embedded in a category detail
// response.
type JokePreview struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// Detail is the category show payload: the category plus a random
// sample of its jokes.
type Detail struct {
	Category *Category     `json:"category"`
	Jokes    []JokePreview `json:"jokes"`
}

// Input carries validated fields for creating or updating a category.
type Input struct {
	Title       string  `json:"title" binding:"required,min=4"`
	Description *string `json:"description" binding:"omitempty,min=6"`
}
