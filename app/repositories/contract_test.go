package repositories

import (
	"context"
	"testing"
	"time"

	"sakibee/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

// testContentRepository runs the behaviour every ContentRepository must share
// against a freshly seeded store.
func testContentRepository(t *testing.T, newRepo func(t *testing.T) ContentRepository) {
	ctx := context.Background()

	t.Run("seeds categories and posts", func(t *testing.T) {
		repo := newRepo(t)

		categories, err := repo.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 3)
		assert.Equal(t, "Technology", categories[0].Name)
		assert.Equal(t, "Health", categories[1].Name)
		assert.Equal(t, "LifeStyle", categories[2].Name)
		require.NotNil(t, categories[0].Description)
		assert.Equal(t, "Description 1", *categories[0].Description)

		posts, err := repo.ListPosts(ctx, nil)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		for _, p := range posts {
			require.NotNil(t, p.Category)
			assert.Equal(t, p.CategoryID, p.Category.ID)
			assert.False(t, p.HasFeatureImage())
		}
	})

	t.Run("filters by category", func(t *testing.T) {
		repo := newRepo(t)

		posts, err := repo.ListPosts(ctx, uintPtr(2))
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Health Post 1", posts[0].Title)

		posts, err = repo.ListPosts(ctx, uintPtr(99))
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("orders newest first", func(t *testing.T) {
		repo := newRepo(t)

		newer := &models.Post{Title: "Newer", Content: "c", CategoryID: 1, PublishDate: SeedDate.AddDate(0, 1, 0)}
		_, err := repo.CreatePost(ctx, newer)
		require.NoError(t, err)

		posts, err := repo.ListPosts(ctx, nil)
		require.NoError(t, err)
		require.Len(t, posts, 4)
		assert.Equal(t, "Newer", posts[0].Title)
		// Same publish date falls back to the higher id first.
		assert.Equal(t, uint(3), posts[1].ID)
		assert.Equal(t, uint(1), posts[3].ID)
	})

	t.Run("missing post is nil without error", func(t *testing.T) {
		repo := newRepo(t)

		post, err := repo.GetPost(ctx, 404, LoadOptions{Category: true, Comments: true})
		assert.NoError(t, err)
		assert.Nil(t, post)
	})

	t.Run("create and get post", func(t *testing.T) {
		repo := newRepo(t)

		post := &models.Post{Title: "Hello", Content: "World", Author: "Ann", CategoryID: 3}
		post.SetImagePath("/images/a.png")
		id, err := repo.CreatePost(ctx, post)
		require.NoError(t, err)
		assert.Greater(t, id, uint(3))
		assert.Equal(t, id, post.ID)
		assert.False(t, post.PublishDate.IsZero())

		got, err := repo.GetPost(ctx, id, LoadOptions{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "/images/a.png", got.ImagePath())
		assert.Nil(t, got.Category)

		got, err = repo.GetPost(ctx, id, LoadOptions{Category: true, Comments: true})
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, "LifeStyle", got.Category.Name)
		assert.Empty(t, got.Comments)
	})

	t.Run("create with unknown category violates constraint", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.CreatePost(ctx, &models.Post{Title: "t", Content: "c", CategoryID: 42})
		assert.ErrorIs(t, err, ErrConstraint)
	})

	t.Run("update replaces every column", func(t *testing.T) {
		repo := newRepo(t)

		post := &models.Post{Title: "Before", Content: "c", CategoryID: 1}
		post.SetImagePath("/images/old.jpg")
		id, err := repo.CreatePost(ctx, post)
		require.NoError(t, err)

		date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
		update := &models.Post{ID: id, Title: "After", Content: "c2", Author: "Bob", CategoryID: 2, PublishDate: date}
		require.NoError(t, repo.UpdatePost(ctx, update))

		got, err := repo.GetPost(ctx, id, LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "After", got.Title)
		assert.Equal(t, "Bob", got.Author)
		assert.Equal(t, uint(2), got.CategoryID)
		assert.True(t, date.Equal(got.PublishDate))
		assert.False(t, got.HasFeatureImage())
	})

	t.Run("update missing post", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.UpdatePost(ctx, &models.Post{ID: 999, Title: "t", Content: "c", CategoryID: 1, PublishDate: SeedDate})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("comments are stamped and listed", func(t *testing.T) {
		repo := newRepo(t)

		client := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
		comment, err := repo.AddComment(ctx, &models.Comment{UserName: "u1", Content: "first", PostID: 1, CommentDate: client})
		require.NoError(t, err)
		assert.NotZero(t, comment.ID)
		assert.False(t, comment.CommentDate.Equal(client))

		_, err = repo.AddComment(ctx, &models.Comment{UserName: "u2", Content: "second", PostID: 1})
		require.NoError(t, err)

		post, err := repo.GetPost(ctx, 1, LoadOptions{Comments: true})
		require.NoError(t, err)
		require.Len(t, post.Comments, 2)
		assert.Equal(t, uint(1), post.Comments[0].PostID)
		assert.Equal(t, "first", post.Comments[0].Content)
		assert.Equal(t, "second", post.Comments[1].Content)

		other, err := repo.GetPost(ctx, 2, LoadOptions{Comments: true})
		require.NoError(t, err)
		assert.Empty(t, other.Comments)
	})

	t.Run("comment on missing post violates constraint", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.AddComment(ctx, &models.Comment{UserName: "u", Content: "c", PostID: 404})
		assert.ErrorIs(t, err, ErrConstraint)
	})

	t.Run("rejects blank required fields", func(t *testing.T) {
		repo := newRepo(t)
		var fe models.FieldErrors

		_, err := repo.CreatePost(ctx, &models.Post{Title: " ", Content: "c", CategoryID: 1})
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "title")

		err = repo.UpdatePost(ctx, &models.Post{ID: 1, Title: "t", Content: "\t", CategoryID: 1, PublishDate: SeedDate})
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "content")

		_, err = repo.AddComment(ctx, &models.Comment{UserName: "  ", Content: "c", PostID: 1})
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "userName")

		post, err := repo.GetPost(ctx, 1, LoadOptions{Comments: true})
		require.NoError(t, err)
		assert.Equal(t, "Content of Tech Post 1", post.Content)
		assert.Empty(t, post.Comments)
		posts, err := repo.ListPosts(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, posts, 3)
	})

	t.Run("delete removes post and comments", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.AddComment(ctx, &models.Comment{UserName: "u", Content: "c", PostID: 2})
		require.NoError(t, err)

		require.NoError(t, repo.DeletePost(ctx, 2))

		post, err := repo.GetPost(ctx, 2, LoadOptions{Comments: true})
		require.NoError(t, err)
		assert.Nil(t, post)

		posts, err := repo.ListPosts(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, posts, 2)

		categories, err := repo.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 3)
	})
}
