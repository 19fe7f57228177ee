package controllers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sakibee/app/models"
	"sakibee/app/services"
)

// DefaultMaxUpload caps multipart bodies when no limit is configured.
const DefaultMaxUpload int64 = 10 << 20

// PostController handles the post pages and forms.
type PostController struct {
	pages
	postService *services.PostService
	maxUpload   int64
}

// NewPostController creates a new PostController. maxUpload <= 0 selects DefaultMaxUpload.
func NewPostController(service *services.PostService, templates map[string]*template.Template, maxUpload int64, logger *slog.Logger) *PostController {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &PostController{
		pages:       pages{templates: templates, logger: logger},
		postService: service,
		maxUpload:   maxUpload,
	}
}

// Index lists the posts, filtered by the categoryId query when it is a valid id.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	var categoryID *uint
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 0); err == nil {
			v := uint(id)
			categoryID = &v
		}
	}

	view, err := pc.postService.List(r.Context(), categoryID)
	if err != nil {
		pc.serverError(w, r, err)
		return
	}
	pc.render(w, r, "posts/index", http.StatusOK, view)
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	view, err := pc.postService.NewForm(r.Context())
	if err != nil {
		pc.serverError(w, r, err)
		return
	}
	pc.render(w, r, "posts/create", http.StatusOK, view)
}

// Create handles the create form submission.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	input, upload, done, ok := pc.parsePostForm(w, r)
	if !ok {
		return
	}
	defer done()

	view, err := pc.postService.Create(r.Context(), input, upload)
	if err != nil {
		pc.serverError(w, r, err)
		return
	}
	if view != nil {
		pc.render(w, r, "posts/create", http.StatusOK, view)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Edit displays the edit form of an existing post.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}

	view, err := pc.postService.EditForm(r.Context(), id)
	if err != nil {
		pc.handleError(w, r, err)
		return
	}
	pc.render(w, r, "posts/edit", http.StatusOK, view)
}

// Update handles the edit form submission.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}
	input, upload, done, ok := pc.parsePostForm(w, r)
	if !ok {
		return
	}
	defer done()

	view, err := pc.postService.Update(r.Context(), id, input, upload)
	if err != nil {
		pc.handleError(w, r, err)
		return
	}
	if view != nil {
		pc.render(w, r, "posts/edit", http.StatusOK, view)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ConfirmDelete displays the delete confirmation page.
func (pc *PostController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}

	post, err := pc.postService.DeleteForm(r.Context(), id)
	if err != nil {
		pc.handleError(w, r, err)
		return
	}
	pc.render(w, r, "posts/delete", http.StatusOK, post)
}

// Delete removes the post once confirmed.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}

	if err := pc.postService.Delete(r.Context(), id); err != nil {
		pc.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Show displays a post with its comments.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}

	post, err := pc.postService.Details(r.Context(), id)
	if err != nil {
		pc.handleError(w, r, err)
		return
	}
	pc.render(w, r, "posts/details", http.StatusOK, post)
}

func (pc *PostController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotFound) {
		pc.sendError(w, r, http.StatusNotFound)
		return
	}
	pc.serverError(w, r, err)
}

// parsePostForm reads the post fields and the optional featureImage file.
// done releases the uploaded file. On failure the response is already written.
func (pc *PostController) parsePostForm(w http.ResponseWriter, r *http.Request) (models.PostInput, *services.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, pc.maxUpload)
	if err := r.ParseMultipartForm(pc.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pc.sendError(w, r, http.StatusRequestEntityTooLarge)
		} else {
			pc.sendError(w, r, http.StatusBadRequest)
		}
		return models.PostInput{}, nil, nil, false
	}

	input := models.PostInput{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: r.FormValue("content"),
		Author:  strings.TrimSpace(r.FormValue("author")),
	}
	if id, err := strconv.ParseUint(r.FormValue("categoryId"), 10, 0); err == nil {
		input.CategoryID = uint(id)
	}
	if date, err := time.Parse(models.DateLayout, r.FormValue("publishDate")); err == nil {
		input.PublishDate = &date
	}

	file, header, err := r.FormFile("featureImage")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			pc.logger.Warn("failed to read uploaded image", "error", err)
		}
		return input, nil, func() {}, true
	}
	upload := &services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
	return input, upload, func() { file.Close() }, true
}
