// Package storage keeps uploaded feature images outside the database and
// hands out the root-relative paths under which they are served.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix every stored image is served under.
const PublicPrefix = "/images/"

// AllowedExtensions lists the accepted image extensions, lower-case.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png"}

var (
	// ErrImageNotFound is returned by Open when no image has the given name.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidName is returned for names that do not resolve inside the store.
	ErrInvalidName = errors.New("invalid image name")
)

// ImageStore saves, serves and deletes uploaded images.
type ImageStore interface {
	// Save stores the bytes under a freshly generated name that keeps the
	// lower-cased extension of originalFilename and returns its public path.
	Save(ctx context.Context, r io.Reader, originalFilename string) (string, error)
	// Delete removes the image behind publicPath. Missing images are not an error.
	Delete(ctx context.Context, publicPath string) error
	// Open returns the content of the image called name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Extension returns the lower-cased extension of filename, including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsAllowedImage reports whether filename has one of the AllowedExtensions.
func IsAllowedImage(filename string) bool {
	ext := Extension(filename)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// NewName returns a random 128-bit name carrying the extension of originalFilename.
func NewName(originalFilename string) string {
	return uuid.NewString() + Extension(originalFilename)
}

// PublicPath returns the root-relative path an image called name is served under.
func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPublicPath extracts the file name from a public path. Bare names
// are accepted as well. Names that would escape the image directory are rejected.
func NameFromPublicPath(publicPath string) (string, error) {
	name := path.Base(strings.ReplaceAll(publicPath, "\\", "/"))
	if err := checkName(name); err != nil {
		return "", err
	}
	return name, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || name == "/" || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
