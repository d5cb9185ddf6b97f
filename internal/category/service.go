package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// jokeSampleSize is how many random jokes a category detail carries.
const jokeSampleSize = 5

// Service implements the category catalog on top of the repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a category service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With(zap.String("component", "category-service")),
	}
}

// List returns all active categories.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Category, error) {
	if d := authz.CanBrowseCategories(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, commonerrors.DatabaseError("list categories", err)
	}
	return categories, nil
}

// Get returns a category detail with a random sample of its jokes.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (*Detail, error) {
	c, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanViewCategory(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	jokes, err := s.repo.RandomJokes(ctx, c.ID, jokeSampleSize)
	if err != nil {
		return nil, commonerrors.DatabaseError("sample category jokes", err)
	}
	return &Detail{Category: c, Jokes: jokes}, nil
}

// Create adds a category.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (*Category, error) {
	if d := authz.CanCreateCategory(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	now := time.Now().UTC()
	c := &Category{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, commonerrors.DatabaseError("create category", err)
	}
	return c, nil
}

// Update changes a category's title and description.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (*Category, error) {
	if d := authz.CanUpdateCategory(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	c, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Title = input.Title
	c.Description = input.Description
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Category not found")
		}
		return nil, commonerrors.DatabaseError("update category", err)
	}
	return c, nil
}

// Delete soft-deletes a category. Its joke associations stay in place
// for a later restore.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if d := authz.CanDeleteCategory(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	c, err := s.findActive(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, c.ID); err != nil {
		return commonerrors.DatabaseError("delete category", err)
	}
	return nil
}

// Search returns active categories matching the keyword.
func (s *Service) Search(ctx context.Context, actor authz.Actor, keyword string) ([]Category, error) {
	if d := authz.CanBrowseCategories(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	categories, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, commonerrors.DatabaseError("search categories", err)
	}
	if len(categories) == 0 {
		return nil, commonerrors.NotFound("Category not found")
	}
	return categories, nil
}

// Trash lists soft-deleted categories.
func (s *Service) Trash(ctx context.Context, actor authz.Actor) ([]Category, error) {
	if d := authz.CanViewTrashedCategories(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	categories, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return nil, commonerrors.DatabaseError("list trashed categories", err)
	}
	if len(categories) == 0 {
		return nil, commonerrors.NotFound("No soft deleted categories found")
	}
	return categories, nil
}

// RestoreOne brings a category back from the trash with its joke
// associations intact.
func (s *Service) RestoreOne(ctx context.Context, actor authz.Actor, id string) (*Category, error) {
	if d := authz.CanRestoreCategory(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	c, err := s.findTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, c.ID); err != nil {
		return nil, commonerrors.DatabaseError("restore category", err)
	}
	c.DeletedAt = nil
	return c, nil
}

// RestoreAll restores every trashed category.
func (s *Service) RestoreAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanRestoreAllCategories(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	return s.forEachTrashed(ctx, s.repo.Restore)
}

// PurgeOne permanently removes a trashed category.
func (s *Service) PurgeOne(ctx context.Context, actor authz.Actor, id string) (*Category, error) {
	if d := authz.CanForceDeleteCategory(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	c, err := s.findTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Purge(ctx, c.ID); err != nil {
		return nil, commonerrors.DatabaseError("purge category", err)
	}
	return c, nil
}

// PurgeAll permanently removes every trashed category.
func (s *Service) PurgeAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanEmptyCategoryTrash(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	return s.forEachTrashed(ctx, s.repo.Purge)
}

func (s *Service) forEachTrashed(ctx context.Context, apply func(context.Context, string) error) error {
	categories, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return commonerrors.DatabaseError("list trashed categories", err)
	}
	if len(categories) == 0 {
		return commonerrors.NotFound("No soft deleted categories found")
	}
	for i := range categories {
		if err := apply(ctx, categories[i].ID); err != nil {
			return commonerrors.DatabaseError("apply trash operation", err)
		}
	}
	return nil
}

func (s *Service) findActive(ctx context.Context, id string) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Category not found")
		}
		return nil, commonerrors.DatabaseError("get category", err)
	}
	return c, nil
}

func (s *Service) findTrashed(ctx context.Context, id string) (*Category, error) {
	c, err := s.repo.GetTrashed(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Category not found")
		}
		return nil, commonerrors.DatabaseError("get trashed category", err)
	}
	return c, nil
}
