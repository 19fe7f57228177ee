package controllers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"sakibee/app/storage"

	"github.com/gorilla/mux"
)

// ImageController serves uploaded images from the image store.
type ImageController struct {
	store  storage.ImageStore
	logger *slog.Logger
}

// NewImageController creates a new ImageController
func NewImageController(store storage.ImageStore, logger *slog.Logger) *ImageController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageController{store: store, logger: logger}
}

// Show streams the image named by the {name} route variable.
func (ic *ImageController) Show(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !storage.IsAllowedImage(name) {
		http.NotFound(w, r)
		return
	}

	rc, err := ic.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		ic.logger.Error("failed to open image", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mime.TypeByExtension(storage.Extension(name)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		ic.logger.Warn("failed to stream image", "name", name, "error", err)
	}
}
