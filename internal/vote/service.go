package vote

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/joke"
	"github.com/jokehub/jokehub/internal/user"
)

// JokeFinder resolves active jokes. Satisfied by the joke repository.
type JokeFinder interface {
	GetByID(ctx context.Context, id string) (*joke.Joke, error)
}

// UserFinder resolves active users. Satisfied by the user repository.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service implements the vote ledger on top of the repository.
type Service struct {
	repo   Repository
	jokes  JokeFinder
	users  UserFinder
	logger *zap.Logger
}

// NewService creates a vote service.
func NewService(repo Repository, jokes JokeFinder, users UserFinder, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		jokes:  jokes,
		users:  users,
		logger: logger.With(zap.String("component", "vote-service")),
	}
}

// Cast records the actor's vote on a joke. Rating 0 removes the
// existing vote, a nonzero rating updates it in place or creates a
// fresh entry. A concurrent first cast that loses the insert race is
// retried once as an update so the single-vote invariant holds.
func (s *Service) Cast(ctx context.Context, actor authz.Actor, jokeID string, rating int) (*CastResult, error) {
	if _, err := s.jokes.GetByID(ctx, jokeID); err != nil {
		if errors.Is(err, joke.ErrNotFound) {
			return nil, commonerrors.NotFound("Joke not found")
		}
		return nil, commonerrors.DatabaseError("get joke", err)
	}

	existing, err := s.repo.Get(ctx, actor.ID, jokeID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, commonerrors.DatabaseError("get vote", err)
	}

	if rating == 0 {
		if existing == nil {
			return nil, commonerrors.NotFound("No vote to remove")
		}
		if d := authz.CanDeleteVote(actor, existing.UserID); !d.Allowed {
			return nil, commonerrors.Forbidden("Unauthorized")
		}
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, commonerrors.DatabaseError("delete vote", err)
		}
		return &CastResult{Outcome: OutcomeRemoved}, nil
	}

	if existing != nil {
		if d := authz.CanUpdateVote(actor, existing.UserID); !d.Allowed {
			return nil, commonerrors.Forbidden("Unauthorized")
		}
		if err := s.repo.UpdateRating(ctx, existing.ID, rating); err != nil {
			return nil, commonerrors.DatabaseError("update vote", err)
		}
		existing.Rating = rating
		return &CastResult{Vote: existing, Outcome: OutcomeUpdated}, nil
	}

	if d := authz.CanCreateVote(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	now := time.Now().UTC()
	v := &Vote{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		JokeID:    jokeID,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.repo.Create(ctx, v)
	if err == nil {
		return &CastResult{Vote: v, Outcome: OutcomeCreated}, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return nil, commonerrors.DatabaseError("create vote", err)
	}

	// Lost the insert race to a concurrent cast on the same pair.
	// Re-read and apply the rating as an update; no second retry.
	s.logger.Debug("vote insert conflict, retrying as update",
		zap.String("user_id", actor.ID),
		zap.String("joke_id", jokeID))
	current, err := s.repo.Get(ctx, actor.ID, jokeID)
	if err != nil {
		return nil, commonerrors.DatabaseError("get vote after conflict", err)
	}
	if err := s.repo.UpdateRating(ctx, current.ID, rating); err != nil {
		return nil, commonerrors.DatabaseError("update vote after conflict", err)
	}
	current.Rating = rating
	return &CastResult{Vote: current, Outcome: OutcomeUpdated}, nil
}

// ClearUser removes every vote a user has cast. Admin actors cannot
// clear votes of admins or the superuser.
func (s *Service) ClearUser(ctx context.Context, actor authz.Actor, userID string) error {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return commonerrors.NotFound("User not found")
		}
		return commonerrors.DatabaseError("get user", err)
	}

	if d := authz.CanClearUserVotes(actor, authz.Subject{ID: target.ID, Roles: target.Roles}); !d.Allowed {
		if d.Reason == authz.ReasonRoleCeiling {
			return commonerrors.Forbidden("Cannot clear votes for this user")
		}
		return commonerrors.Forbidden("Unauthorized")
	}

	removed, err := s.repo.DeleteByUser(ctx, target.ID)
	if err != nil {
		return commonerrors.DatabaseError("clear user votes", err)
	}
	if removed == 0 {
		return commonerrors.NotFound("No votes found for this user")
	}
	return nil
}

// ResetAll clears the entire ledger.
func (s *Service) ResetAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanResetAllVotes(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return commonerrors.DatabaseError("reset votes", err)
	}
	if removed == 0 {
		return commonerrors.NotFound("No votes to reset")
	}
	return nil
}

// PurgeByUser implements user.VotePurger for the user deletion
// cascade. The caller is already authorized and an empty ledger is
// not an error here.
func (s *Service) PurgeByUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}
