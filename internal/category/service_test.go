package category

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// fakeRepository is an in-memory category store with canned joke
// samples.
type fakeRepository struct {
	categories map[string]*Category
	jokes      map[string][]JokePreview
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		categories: make(map[string]*Category),
		jokes:      make(map[string][]JokePreview),
	}
}

func (f *fakeRepository) add(c Category) {
	copy := c
	f.categories[c.ID] = &copy
}

func (f *fakeRepository) Create(ctx context.Context, c *Category) error {
	copy := *c
	f.categories[c.ID] = &copy
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, c *Category) error {
	stored, ok := f.categories[c.ID]
	if !ok || stored.DeletedAt != nil {
		return ErrNotFound
	}
	copy := *c
	f.categories[c.ID] = &copy
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	c, ok := f.categories[id]
	if !ok || c.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeRepository) GetTrashed(ctx context.Context, id string) (*Category, error) {
	c, ok := f.categories[id]
	if !ok || c.DeletedAt == nil {
		return nil, ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeRepository) List(ctx context.Context) ([]Category, error) {
	var out []Category
	for _, c := range f.categories {
		if c.DeletedAt == nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepository) Search(ctx context.Context, keyword string) ([]Category, error) {
	var out []Category
	for _, c := range f.categories {
		if c.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(c.Title), strings.ToLower(keyword)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListTrashed(ctx context.Context) ([]Category, error) {
	var out []Category
	for _, c := range f.categories {
		if c.DeletedAt != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepository) RandomJokes(ctx context.Context, categoryID string, limit int) ([]JokePreview, error) {
	jokes := f.jokes[categoryID]
	if len(jokes) > limit {
		jokes = jokes[:limit]
	}
	return jokes, nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok || c.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	return nil
}

func (f *fakeRepository) Restore(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok || c.DeletedAt == nil {
		return ErrNotFound
	}
	c.DeletedAt = nil
	return nil
}

func (f *fakeRepository) Purge(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok || c.DeletedAt == nil {
		return ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func testActor(id string, roles ...authz.Role) authz.Actor {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return authz.Actor{
		ID:            id,
		Roles:         names,
		Permissions:   authz.GrantsForRoles(names),
		EmailVerified: true,
	}
}

func TestGetCategoryDetail(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	repo.jokes["c1"] = []JokePreview{
		{ID: "j1", Title: "One"},
		{ID: "j2", Title: "Two"},
	}
	svc := NewService(repo, zap.NewNop())
	client := testActor("client-1", authz.RoleClient)

	detail, err := svc.Get(context.Background(), client, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Puns", detail.Category.Title)
	assert.Len(t, detail.Jokes, 2)
}

func TestGetCategorySampleIsCapped(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	for i := 0; i < 8; i++ {
		repo.jokes["c1"] = append(repo.jokes["c1"], JokePreview{ID: string(rune('a' + i))})
	}
	svc := NewService(repo, zap.NewNop())

	detail, err := svc.Get(context.Background(), testActor("c", authz.RoleClient), "c1")
	require.NoError(t, err)
	assert.Len(t, detail.Jokes, jokeSampleSize)
}

func TestCreateCategoryRequiresStaff(t *testing.T) {
	svc := NewService(newFakeRepository(), zap.NewNop())

	_, err := svc.Create(context.Background(), testActor("c1", authz.RoleClient), Input{Title: "Puns"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	c, err := svc.Create(context.Background(), testActor("s1", authz.RoleStaff), Input{Title: "Puns"})
	require.NoError(t, err)
	assert.Equal(t, "Puns", c.Title)
}

func TestUpdateCategory(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	svc := NewService(repo, zap.NewNop())
	desc := "wordplay and worse"

	c, err := svc.Update(context.Background(), testActor("s1", authz.RoleStaff), "c1", Input{
		Title:       "Wordplay",
		Description: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, "Wordplay", c.Title)
	require.NotNil(t, c.Description)
	assert.Equal(t, desc, *c.Description)
}

func TestCategoryTrashLifecycle(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	staff := testActor("s1", authz.RoleStaff)

	require.NoError(t, svc.Delete(ctx, staff, "c1"))

	_, err := svc.Get(ctx, staff, "c1")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))

	trashed, err := svc.Trash(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, trashed, 1)

	c, err := svc.RestoreOne(ctx, staff, "c1")
	require.NoError(t, err)
	assert.Nil(t, c.DeletedAt)
}

func TestCategoryPurgePermissions(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, testActor("s1", authz.RoleStaff), "c1"))

	// Staff cannot purge, admins can.
	_, err := svc.PurgeOne(ctx, testActor("s1", authz.RoleStaff), "c1")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	_, err = svc.PurgeOne(ctx, testActor("a1", authz.RoleAdmin), "c1")
	require.NoError(t, err)
	_, err = repo.GetTrashed(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryEmptyTrash(t *testing.T) {
	svc := NewService(newFakeRepository(), zap.NewNop())
	root := testActor("root", authz.RoleSuperuser)

	_, err := svc.Trash(context.Background(), root)
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "No soft deleted categories found")

	err = svc.PurgeAll(context.Background(), root)
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
}

func TestCategoryPurgeAllIsSuperuserOnly(t *testing.T) {
	repo := newFakeRepository()
	now := time.Now().UTC()
	repo.add(Category{ID: "c1", Title: "Puns", DeletedAt: &now})
	svc := NewService(repo, zap.NewNop())

	err := svc.PurgeAll(context.Background(), testActor("a1", authz.RoleAdmin))
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	require.NoError(t, svc.PurgeAll(context.Background(), testActor("root", authz.RoleSuperuser)))
	remaining, _ := repo.ListTrashed(context.Background())
	assert.Empty(t, remaining)
}

func TestSearchCategories(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Category{ID: "c1", Title: "Puns"})
	svc := NewService(repo, zap.NewNop())
	client := testActor("c1", authz.RoleClient)

	categories, err := svc.Search(context.Background(), client, "pun")
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	_, err = svc.Search(context.Background(), client, "dark")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "Category not found")
}
