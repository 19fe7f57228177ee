package repositories

import (
	"time"

	"sakibee/app/models"
)

// SeedDate is the publish date of the sample posts.
var SeedDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// SeedCategories returns the fixed categories created at schema initialization.
func SeedCategories() []*models.Category {
	return []*models.Category{
		{ID: 1, Name: "Technology", Description: strPtr("Description 1")},
		{ID: 2, Name: "Health", Description: strPtr("Description 2")},
		{ID: 3, Name: "LifeStyle", Description: strPtr("Description 3")},
	}
}

// SeedPosts returns one fixed sample post per seed category. They carry no
// feature image since no file backs them.
func SeedPosts() []*models.Post {
	return []*models.Post{
		{ID: 1, Title: "Tech Post 1", Content: "Content of Tech Post 1", Author: "John Doe", PublishDate: SeedDate, CategoryID: 1},
		{ID: 2, Title: "Health Post 1", Content: "Content of Health Post 1", Author: "Jane Doe", PublishDate: SeedDate, CategoryID: 2},
		{ID: 3, Title: "Lifestyle Post 1", Content: "Content of Lifestyle Post 1", Author: "Alex Smith", PublishDate: SeedDate, CategoryID: 3},
	}
}
