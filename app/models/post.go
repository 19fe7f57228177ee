package models

import (
	"errors"
	"time"
)

// Validate checks the post against its field rules.
func (p *Post) Validate() error {
	return Validate(p)
}

// SetDefaults fills in the publish date when the caller left it empty.
func (p *Post) SetDefaults(now time.Time) {
	if p.PublishDate.IsZero() {
		p.PublishDate = now
	}
}

// HasFeatureImage reports whether the post references an uploaded image.
func (p *Post) HasFeatureImage() bool {
	return p.FeatureImagePath != nil && *p.FeatureImagePath != ""
}

// ImagePath returns the feature image path or "" when there is none.
func (p *Post) ImagePath() string {
	if !p.HasFeatureImage() {
		return ""
	}
	return *p.FeatureImagePath
}

// SetImagePath sets the feature image path; "" clears it.
func (p *Post) SetImagePath(path string) {
	if path == "" {
		p.FeatureImagePath = nil
		return
	}
	p.FeatureImagePath = &path
}

// AddComment attaches a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	p.Comments = append(p.Comments, comment)
	return nil
}

// Detached returns a shallow copy without the loaded relations.
func (p *Post) Detached() *Post {
	cp := *p
	cp.Category = nil
	cp.Comments = nil
	return &cp
}
