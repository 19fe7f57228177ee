package repositories

import (
	"context"
	"errors"

	"sakibee/app/models"
)

var (
	// ErrNotFound is returned when an update targets a row that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint wraps foreign key violations, e.g. a post with an unknown category.
	ErrConstraint = errors.New("constraint violation")
)

// LoadOptions selects the relations GetPost attaches.
type LoadOptions struct {
	Category bool
	Comments bool
}

// ContentRepository is the persistence boundary for categories, posts and comments.
// Lookups of missing rows return a nil result and a nil error.
type ContentRepository interface {
	// ListPosts returns posts with their category attached, newest first.
	// A non-nil categoryID restricts the result to that category.
	ListPosts(ctx context.Context, categoryID *uint) ([]*models.Post, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetPost(ctx context.Context, id uint, opts LoadOptions) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) (uint, error)
	// UpdatePost replaces every column of an existing post.
	UpdatePost(ctx context.Context, post *models.Post) error
	// DeletePost removes the post and its comments.
	DeletePost(ctx context.Context, id uint) error
	// AddComment stores the comment, stamping its date with the current time.
	AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Close() error
}
