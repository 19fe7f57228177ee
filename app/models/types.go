package models

import "time"

// Category groups posts. Deleting a category is not supported.
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"name" form:"name" validate:"required,notblank,max=100"`
	Description *string `json:"description,omitempty"`
	Posts       []*Post `gorm:"-" json:"-" validate:"-"`
}

// Post represents a blog post with its category and comments.
type Post struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:200;not null" json:"title" form:"title" validate:"required,notblank,max=200"`
	Content          string     `gorm:"type:text;not null" json:"content" form:"content" validate:"required,notblank"`
	Author           string     `gorm:"size:100" json:"author" form:"author" validate:"max=100"`
	FeatureImagePath *string    `json:"featureImagePath"`
	PublishDate      time.Time  `gorm:"not null" json:"publishDate"`
	CategoryID       uint       `gorm:"not null;index" json:"categoryId" form:"categoryId" validate:"required"`
	Category         *Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty" validate:"-"`
	Comments         []*Comment `gorm:"constraint:OnDelete:CASCADE;" json:"comments,omitempty" validate:"-"`
}

// Comment represents a reader comment on a blog post.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserName    string    `gorm:"size:100;not null" json:"userName" form:"userName" validate:"required,notblank,max=100"`
	Content     string    `gorm:"type:text;not null" json:"content" form:"content" validate:"required,notblank"`
	CommentDate time.Time `gorm:"not null" json:"commentDate"`
	PostID      uint      `gorm:"not null;index" json:"postId" form:"postId" validate:"required"`
	Post        *Post     `gorm:"-" json:"-" validate:"-"`
}
