package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"sakibee/app/models"
	"sakibee/app/services"

	"github.com/go-chi/render"
)

// maxCommentBody caps the JSON body of a comment submission.
const maxCommentBody = 64 << 10

// CommentController handles asynchronous comment submissions.
type CommentController struct {
	postService *services.PostService
	logger      *slog.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(service *services.PostService, logger *slog.Logger) *CommentController {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentController{postService: service, logger: logger}
}

// Create stores a comment and answers with the acknowledgement the page renders.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var input models.CommentInput
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxCommentBody), &input); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ack, err := cc.postService.AddComment(r.Context(), input)
	if err != nil {
		var fe models.FieldErrors
		switch {
		case errors.As(err, &fe):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, render.M{"errors": fe})
		case errors.Is(err, services.ErrNotFound):
			errorJSON(w, r, http.StatusNotFound, "post not found")
		default:
			cc.logger.Error("failed to add comment", "post", input.PostID, "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	render.JSON(w, r, ack)
}
