package services

import (
	"context"

	"sakibee/app/models"
	"sakibee/app/repositories"
)

// CommentAck is returned to the page that submitted a comment.
type CommentAck struct {
	UserName    string `json:"userName"`
	Content     string `json:"content"`
	CommentDate string `json:"commentDate"`
}

// AddComment validates and stores a comment on an existing post. The comment
// date is always the server's clock. Validation failures are models.FieldErrors.
// The acknowledgement carries the stored values; the page inserts them as text.
func (s *PostService) AddComment(ctx context.Context, input models.CommentInput) (*CommentAck, error) {
	if errs, err := fieldErrors(input); err != nil {
		return nil, err
	} else if errs != nil {
		return nil, errs
	}

	if _, err := s.getPost(ctx, input.PostID, repositories.LoadOptions{}); err != nil {
		return nil, err
	}

	comment, err := s.repo.AddComment(ctx, input.ToComment())
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added", "id", comment.ID, "post", comment.PostID)
	return &CommentAck{
		UserName:    comment.UserName,
		Content:     comment.Content,
		CommentDate: comment.CommentDate.Format(models.CommentDateLayout),
	}, nil
}
