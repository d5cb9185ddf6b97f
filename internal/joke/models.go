// Package joke implements the joke catalog: CRUD, search, the public
// random endpoint, category associations and the trash lifecycle.
package joke

import "time"

// Joke is a user-authored joke. CategoryIDs carries the associated
// category set when a single joke is loaded.
type Joke struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	UserID      string     `json:"user_id"`
	CategoryIDs []string   `json:"categories,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Input carries validated fields for creating or updating a joke.
type Input struct {
	Title      string   `json:"title" binding:"required,min=3,max=128"`
	Content    string   `json:"content" binding:"required,min=3,max=512"`
	Categories []string `json:"categories" binding:"required,min=1"`
}
