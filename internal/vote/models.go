// Package vote implements the vote ledger: one vote per user per
// joke, cast as like (+1), dislike (-1) or removal (0).
package vote

import "time"

// Vote is a single (user, joke) ledger entry.
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	JokeID    string    `json:"joke_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CastInput carries the vote payload. Zero removes an existing vote,
// so the field is a pointer to tell 0 apart from absent.
type CastInput struct {
	Rating *int `json:"rating" binding:"required,oneof=-1 0 1"`
}

// Outcome describes what a cast did to the ledger.
type Outcome int

// Cast outcomes.
const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeRemoved
)

// CastResult is the service-level result of a cast.
type CastResult struct {
	Vote    *Vote
	Outcome Outcome
}
