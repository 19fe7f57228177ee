package models

import "time"

// DateLayout is the layout of the publishDate form field.
const DateLayout = "2006-01-02"

// CommentDateLayout formats comment dates for display, e.g. "March 07, 2024".
const CommentDateLayout = "January 02, 2006"

// PostInput is the typed form payload for creating and editing posts.
type PostInput struct {
	Title       string     `form:"title" validate:"required,notblank,max=200"`
	Content     string     `form:"content" validate:"required,notblank"`
	Author      string     `form:"author" validate:"max=100"`
	CategoryID  uint       `form:"categoryId" validate:"required"`
	PublishDate *time.Time `form:"publishDate"`
}

// Validate checks the input against the post field rules.
func (in PostInput) Validate() error {
	return Validate(in)
}

// ToPost maps the input onto a new, unsaved post.
func (in PostInput) ToPost() *Post {
	p := &Post{
		Title:      in.Title,
		Content:    in.Content,
		Author:     in.Author,
		CategoryID: in.CategoryID,
	}
	if in.PublishDate != nil {
		p.PublishDate = *in.PublishDate
	}
	return p
}

// PostInputFrom builds the form payload for an existing post.
func PostInputFrom(p *Post) PostInput {
	date := p.PublishDate
	return PostInput{
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		CategoryID:  p.CategoryID,
		PublishDate: &date,
	}
}

// CommentInput is the JSON payload of an asynchronous comment submission.
// It has no date field; the server stamps the comment date.
type CommentInput struct {
	UserName string `json:"userName" validate:"required,notblank,max=100"`
	Content  string `json:"content" validate:"required,notblank"`
	PostID   uint   `json:"postId" validate:"required"`
}

// Validate checks the input against the comment field rules.
func (in CommentInput) Validate() error {
	return Validate(in)
}

// ToComment maps the input onto a new, unsaved comment.
func (in CommentInput) ToComment() *Comment {
	return &Comment{
		UserName: in.UserName,
		Content:  in.Content,
		PostID:   in.PostID,
	}
}
