// Package mock provides an in-memory ContentRepository for service and handler tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sakibee/app/models"
	"sakibee/app/repositories"
)

// Repository keeps categories, posts and comments in maps. It is seeded with
// the same rows as a fresh database.
type Repository struct {
	categories    map[uint]*models.Category
	posts         map[uint]*models.Post
	comments      map[uint]*models.Comment
	nextPostID    uint
	nextCommentID uint
	mutex         sync.RWMutex

	// Now stamps comments and defaults publish dates.
	Now func() time.Time
	// CreateErr, UpdateErr and DeleteErr, when set, are returned by the
	// matching write instead of touching the maps.
	CreateErr error
	UpdateErr error
	DeleteErr error
}

var _ repositories.ContentRepository = (*Repository)(nil)

func NewRepository() *Repository {
	m := &Repository{Now: time.Now}
	m.Clear()
	return m
}

// Clear resets the repository to the seed rows.
func (m *Repository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.categories = make(map[uint]*models.Category)
	m.posts = make(map[uint]*models.Post)
	m.comments = make(map[uint]*models.Comment)
	for _, c := range repositories.SeedCategories() {
		m.categories[c.ID] = c
	}
	for _, p := range repositories.SeedPosts() {
		m.posts[p.ID] = p
		m.nextPostID = max(m.nextPostID, p.ID)
	}
	m.nextCommentID = 0
}

// PostCount returns the number of stored posts.
func (m *Repository) PostCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.posts)
}

func (m *Repository) ListPosts(ctx context.Context, categoryID *uint) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var posts []*models.Post
	for _, p := range m.posts {
		if categoryID != nil && p.CategoryID != *categoryID {
			continue
		}
		cp := p.Detached()
		cp.Category = m.categoryCopy(p.CategoryID)
		posts = append(posts, cp)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PublishDate.Equal(posts[j].PublishDate) {
			return posts[i].PublishDate.After(posts[j].PublishDate)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (m *Repository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	categories := make([]*models.Category, 0, len(m.categories))
	for id := range m.categories {
		categories = append(categories, m.categoryCopy(id))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (m *Repository) GetPost(ctx context.Context, id uint, opts repositories.LoadOptions) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := p.Detached()
	if opts.Category {
		cp.Category = m.categoryCopy(p.CategoryID)
	}
	if opts.Comments {
		comments := m.commentsOf(id)
		cp.Comments = make([]*models.Comment, 0, len(comments))
		for _, c := range comments {
			if err := cp.AddComment(c); err != nil {
				return nil, err
			}
		}
	}
	return cp, nil
}

func (m *Repository) CreatePost(ctx context.Context, post *models.Post) (uint, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	if err := post.Validate(); err != nil {
		return 0, err
	}
	if _, ok := m.categories[post.CategoryID]; !ok {
		return 0, fmt.Errorf("%w: category %d does not exist", repositories.ErrConstraint, post.CategoryID)
	}

	post.SetDefaults(m.Now())
	m.nextPostID++
	post.ID = m.nextPostID
	m.posts[post.ID] = post.Detached()
	return post.ID, nil
}

func (m *Repository) UpdatePost(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if err := post.Validate(); err != nil {
		return err
	}
	if _, ok := m.posts[post.ID]; !ok {
		return repositories.ErrNotFound
	}
	if _, ok := m.categories[post.CategoryID]; !ok {
		return fmt.Errorf("%w: category %d does not exist", repositories.ErrConstraint, post.CategoryID)
	}
	m.posts[post.ID] = post.Detached()
	return nil
}

func (m *Repository) DeletePost(ctx context.Context, id uint) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	delete(m.posts, id)
	return nil
}

func (m *Repository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.Stamp(m.Now())
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	p, ok := m.posts[comment.PostID]
	if !ok {
		return nil, fmt.Errorf("%w: post %d does not exist", repositories.ErrConstraint, comment.PostID)
	}
	if err := comment.SetPost(p.Detached()); err != nil {
		return nil, err
	}
	m.nextCommentID++
	comment.ID = m.nextCommentID
	stored := *comment
	stored.Post = nil
	m.comments[comment.ID] = &stored
	return comment, nil
}

func (m *Repository) Close() error {
	return nil
}

func (m *Repository) categoryCopy(id uint) *models.Category {
	c, ok := m.categories[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (m *Repository) commentsOf(postID uint) []*models.Comment {
	comments := []*models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CommentDate.Equal(comments[j].CommentDate) {
			return comments[i].CommentDate.Before(comments[j].CommentDate)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}
