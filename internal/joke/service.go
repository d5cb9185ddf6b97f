package joke

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// Service implements the joke catalog on top of the repository.
type Service struct {
	repo     Repository
	logger   *zap.Logger
	pageSize int
}

// NewService creates a joke service.
func NewService(repo Repository, logger *zap.Logger, pageSize int) *Service {
	return &Service{
		repo:     repo,
		logger:   logger.With(zap.String("component", "joke-service")),
		pageSize: pageSize,
	}
}

// PageSize returns the configured page size.
func (s *Service) PageSize() int {
	return s.pageSize
}

// clientScoped reports whether catalog reads must pass the client
// visibility filter for this actor.
func clientScoped(actor authz.Actor) bool {
	return actor.HasRole(authz.RoleClient)
}

// List returns a page of jokes. Client actors only see jokes attached
// to a live category other than "Unknown".
func (s *Service) List(ctx context.Context, actor authz.Actor, page int) ([]Joke, int, error) {
	if d := authz.CanBrowseJokes(actor); !d.Allowed {
		return nil, 0, commonerrors.Forbidden("Unauthorized")
	}
	jokes, total, err := s.repo.List(ctx, clientScoped(actor), (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, 0, commonerrors.DatabaseError("list jokes", err)
	}
	return jokes, total, nil
}

// Get returns a single joke. For client actors a joke outside the
// visibility filter reads as not found, not forbidden.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (*Joke, error) {
	j, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanViewJoke(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	if clientScoped(actor) {
		visible, err := s.repo.HasVisibleCategory(ctx, j.ID)
		if err != nil {
			return nil, commonerrors.DatabaseError("check joke visibility", err)
		}
		if !visible {
			return nil, commonerrors.NotFound("Joke not found")
		}
	}
	return j, nil
}

// Create adds a joke owned by the actor and attaches its categories.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (*Joke, error) {
	if d := authz.CanCreateJoke(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	now := time.Now().UTC()
	j := &Joke{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Content:     input.Content,
		UserID:      actor.ID,
		CategoryIDs: input.Categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			return nil, commonerrors.ValidationError("The selected categories are invalid.")
		}
		return nil, commonerrors.DatabaseError("create joke", err)
	}
	return j, nil
}

// Update changes a joke's title, content and category set. Owners may
// edit their own jokes; moderation needs the blanket permission.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (*Joke, error) {
	j, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanUpdateJoke(actor, j.UserID); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	j.Title = input.Title
	j.Content = input.Content
	j.CategoryIDs = input.Categories
	if err := s.repo.Update(ctx, j); err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			return nil, commonerrors.ValidationError("The selected categories are invalid.")
		}
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Joke not found")
		}
		return nil, commonerrors.DatabaseError("update joke", err)
	}
	return j, nil
}

// Delete soft-deletes a joke.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	j, err := s.findActive(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanDeleteJoke(actor, j.UserID); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	if err := s.repo.SoftDelete(ctx, j.ID); err != nil {
		return commonerrors.DatabaseError("delete joke", err)
	}
	return nil
}

// Search returns jokes matching the keyword in title or content,
// client-filtered for client actors.
func (s *Service) Search(ctx context.Context, actor authz.Actor, keyword string) ([]Joke, error) {
	if d := authz.CanBrowseJokes(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	jokes, err := s.repo.Search(ctx, keyword, clientScoped(actor))
	if err != nil {
		return nil, commonerrors.DatabaseError("search jokes", err)
	}
	if len(jokes) == 0 {
		return nil, commonerrors.NotFound("Joke not found")
	}
	return jokes, nil
}

// Random returns one random visible joke. The endpoint is public so
// no actor is involved.
func (s *Service) Random(ctx context.Context) (*Joke, error) {
	j, err := s.repo.Random(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("No jokes available")
		}
		return nil, commonerrors.DatabaseError("random joke", err)
	}
	return j, nil
}

// Trash lists soft-deleted jokes.
func (s *Service) Trash(ctx context.Context, actor authz.Actor) ([]Joke, error) {
	if d := authz.CanViewTrashedJokes(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	jokes, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return nil, commonerrors.DatabaseError("list trashed jokes", err)
	}
	if len(jokes) == 0 {
		return nil, commonerrors.NotFound("No soft deleted jokes found")
	}
	return jokes, nil
}

// RestoreOne brings a joke back from the trash.
func (s *Service) RestoreOne(ctx context.Context, actor authz.Actor, id string) (*Joke, error) {
	j, err := s.findTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanRestoreJoke(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	if err := s.repo.Restore(ctx, j.ID); err != nil {
		return nil, commonerrors.DatabaseError("restore joke", err)
	}
	j.DeletedAt = nil
	return j, nil
}

// RestoreAll restores trashed jokes. Client actors only touch their
// own rows; staff and admin restore everything.
func (s *Service) RestoreAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanRestoreAllJokes(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	return s.forEachTrashed(ctx, actor, s.repo.Restore)
}

// PurgeOne permanently removes a trashed joke.
func (s *Service) PurgeOne(ctx context.Context, actor authz.Actor, id string) (*Joke, error) {
	j, err := s.findTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanForceDeleteJoke(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	if err := s.repo.Purge(ctx, j.ID); err != nil {
		return nil, commonerrors.DatabaseError("purge joke", err)
	}
	return j, nil
}

// PurgeAll permanently removes trashed jokes, own rows only for
// client actors.
func (s *Service) PurgeAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanEmptyJokeTrash(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	return s.forEachTrashed(ctx, actor, s.repo.Purge)
}

// TrashByOwner soft-deletes all of a user's jokes. Used by the user
// deletion cascade; the caller is already authorized.
func (s *Service) TrashByOwner(ctx context.Context, ownerID string) error {
	return s.repo.TrashByOwner(ctx, ownerID)
}

func (s *Service) forEachTrashed(ctx context.Context, actor authz.Actor, apply func(context.Context, string) error) error {
	jokes, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return commonerrors.DatabaseError("list trashed jokes", err)
	}
	if len(jokes) == 0 {
		return commonerrors.NotFound("No soft deleted jokes found")
	}
	own := clientScoped(actor)
	for i := range jokes {
		if own && jokes[i].UserID != actor.ID {
			continue
		}
		if err := apply(ctx, jokes[i].ID); err != nil {
			return commonerrors.DatabaseError("apply trash operation", err)
		}
	}
	return nil
}

func (s *Service) findActive(ctx context.Context, id string) (*Joke, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Joke not found")
		}
		return nil, commonerrors.DatabaseError("get joke", err)
	}
	return j, nil
}

func (s *Service) findTrashed(ctx context.Context, id string) (*Joke, error) {
	j, err := s.repo.GetTrashed(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Joke not found")
		}
		return nil, commonerrors.DatabaseError("get trashed joke", err)
	}
	return j, nil
}
