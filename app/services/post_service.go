package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"sakibee/app/models"
	"sakibee/app/repositories"
	"sakibee/app/storage"
)

// ErrNotFound is returned when the requested post does not exist.
var ErrNotFound = errors.New("post not found")

// Field error messages for the feature image.
const (
	FeatureImageField = "featureImage"
	MsgImageRequired  = "Please upload an image file."
	MsgImageFormat    = "Invalid image format. Allowed formats are .jpg, .jpeg, .png"
)

// Upload is an image file submitted with a post form.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Empty reports whether no usable file was submitted.
func (u *Upload) Empty() bool {
	return u == nil || u.Content == nil || u.Size <= 0
}

// ListView is the data behind the post listing.
type ListView struct {
	Posts      []*models.Post
	Categories []*models.Category
	CategoryID *uint
}

// FormView is the data behind the create and edit forms. Errors is empty for
// a fresh form.
type FormView struct {
	PostID     uint
	Input      models.PostInput
	ImagePath  string
	Categories []*models.Category
	Errors     models.FieldErrors
}

// PostService implements the post workflow on top of a content repository
// and an image store.
type PostService struct {
	repo   repositories.ContentRepository
	images storage.ImageStore
	logger *slog.Logger
}

// NewPostService creates a new PostService
func NewPostService(repo repositories.ContentRepository, images storage.ImageStore, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// List returns the posts, optionally restricted to one category, and every category.
func (s *PostService) List(ctx context.Context, categoryID *uint) (*ListView, error) {
	posts, err := s.repo.ListPosts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &ListView{Posts: posts, Categories: categories, CategoryID: categoryID}, nil
}

// NewForm returns an empty create form.
func (s *PostService) NewForm(ctx context.Context) (*FormView, error) {
	return s.formView(ctx, 0, models.PostInput{}, "", nil)
}

// Create validates the input and image, stores the image and then the post.
// A non-nil FormView means the form has to be shown again with its errors.
func (s *PostService) Create(ctx context.Context, input models.PostInput, upload *Upload) (*FormView, error) {
	if errs, err := fieldErrors(input); err != nil {
		return nil, err
	} else if errs != nil {
		return s.formView(ctx, 0, input, "", errs)
	}
	if upload.Empty() {
		return s.formView(ctx, 0, input, "", models.FieldErrors{FeatureImageField: MsgImageRequired})
	}
	if !storage.IsAllowedImage(upload.Filename) {
		return s.formView(ctx, 0, input, "", models.FieldErrors{FeatureImageField: MsgImageFormat})
	}

	path, err := s.images.Save(ctx, upload.Content, upload.Filename)
	if err != nil {
		return nil, err
	}

	post := input.ToPost()
	post.SetImagePath(path)
	if _, err := s.repo.CreatePost(ctx, post); err != nil {
		s.discardImage(ctx, path)
		return nil, err
	}

	s.logger.Info("post created", "id", post.ID, "image", path)
	return nil, nil
}

// EditForm returns the edit form filled with the stored post.
func (s *PostService) EditForm(ctx context.Context, id uint) (*FormView, error) {
	post, err := s.getPost(ctx, id, repositories.LoadOptions{})
	if err != nil {
		return nil, err
	}
	return s.formView(ctx, id, models.PostInputFrom(post), post.ImagePath(), nil)
}

// Update replaces the stored post with the input. Without a new upload the
// previous image is kept; with one the new image replaces the old file.
func (s *PostService) Update(ctx context.Context, id uint, input models.PostInput, upload *Upload) (*FormView, error) {
	existing, err := s.getPost(ctx, id, repositories.LoadOptions{})
	if err != nil {
		return nil, err
	}
	oldPath := existing.ImagePath()

	if errs, err := fieldErrors(input); err != nil {
		return nil, err
	} else if errs != nil {
		return s.formView(ctx, id, input, oldPath, errs)
	}

	post := input.ToPost()
	post.ID = id
	if input.PublishDate == nil {
		post.PublishDate = existing.PublishDate
	}
	post.SetImagePath(oldPath)

	var newPath string
	if !upload.Empty() {
		if !storage.IsAllowedImage(upload.Filename) {
			return s.formView(ctx, id, input, oldPath, models.FieldErrors{FeatureImageField: MsgImageFormat})
		}
		newPath, err = s.images.Save(ctx, upload.Content, upload.Filename)
		if err != nil {
			return nil, err
		}
		post.SetImagePath(newPath)
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		if newPath != "" {
			s.discardImage(ctx, newPath)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if newPath != "" && oldPath != "" {
		s.discardImage(ctx, oldPath)
	}
	s.logger.Info("post updated", "id", id, "image", post.ImagePath())
	return nil, nil
}

// DeleteForm returns the post shown on the delete confirmation page.
func (s *PostService) DeleteForm(ctx context.Context, id uint) (*models.Post, error) {
	return s.getPost(ctx, id, repositories.LoadOptions{Category: true})
}

// Delete removes the post's image, when it has one, and then the post.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	post, err := s.getPost(ctx, id, repositories.LoadOptions{})
	if err != nil {
		return err
	}

	if post.HasFeatureImage() {
		if err := s.images.Delete(ctx, post.ImagePath()); err != nil {
			return err
		}
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", "id", id)
	return nil
}

// Details returns the post with its category and comments.
func (s *PostService) Details(ctx context.Context, id uint) (*models.Post, error) {
	return s.getPost(ctx, id, repositories.LoadOptions{Category: true, Comments: true})
}

func (s *PostService) getPost(ctx context.Context, id uint, opts repositories.LoadOptions) (*models.Post, error) {
	post, err := s.repo.GetPost(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// formView is the one place a form is assembled, so every re-render carries
// the category options.
func (s *PostService) formView(ctx context.Context, id uint, input models.PostInput, imagePath string, errs models.FieldErrors) (*FormView, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = models.FieldErrors{}
	}
	return &FormView{
		PostID:     id,
		Input:      input,
		ImagePath:  imagePath,
		Categories: categories,
		Errors:     errs,
	}, nil
}

// discardImage removes an image the post no longer references. Failures are
// logged, the post write already happened.
func (s *PostService) discardImage(ctx context.Context, path string) {
	if err := s.images.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete image", "path", path, "error", err)
	}
}

// fieldErrors splits a validation result into rule violations and failures.
func fieldErrors(v interface{ Validate() error }) (models.FieldErrors, error) {
	err := v.Validate()
	if err == nil {
		return nil, nil
	}
	var fe models.FieldErrors
	if errors.As(err, &fe) {
		return fe, nil
	}
	return nil, fmt.Errorf("failed to validate input: %w", err)
}
