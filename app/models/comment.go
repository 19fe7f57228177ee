package models

import (
	"errors"
	"time"
)

// Validate checks the comment against its field rules.
func (c *Comment) Validate() error {
	return Validate(c)
}

// Stamp sets the comment date. It always overwrites, the client never chooses it.
func (c *Comment) Stamp(now time.Time) {
	c.CommentDate = now
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}
