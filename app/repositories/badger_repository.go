package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sakibee/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerRepository implements ContentRepository on an embedded Badger store.
// Entities are JSON values; relations are resolved inside one read transaction.
type BadgerRepository struct {
	db    *badger.DB
	owned bool
	now   func() time.Time
}

// OpenBadger opens (or creates) the store at path, seeding it when empty.
// An empty path opens an in-memory store.
func OpenBadger(path string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	repo := NewBadgerRepository(db)
	repo.owned = true
	if err := repo.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewBadgerRepository wraps an open Badger DB. Close leaves the DB open.
func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db, now: time.Now}
}

// Migrate inserts the seed rows when the store holds no category.
func (r *BadgerRepository) Migrate(ctx context.Context) error {
	return r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(CategoryKeyPrefix)})
		it.Rewind()
		seeded := it.Valid()
		it.Close()
		if seeded {
			return nil
		}

		var maxCategory, maxPost uint
		for _, c := range SeedCategories() {
			if err := setEntity(txn, categoryKey(c.ID), c); err != nil {
				return fmt.Errorf("failed to seed category: %w", err)
			}
			maxCategory = max(maxCategory, c.ID)
		}
		for _, p := range SeedPosts() {
			if err := setEntity(txn, postKey(p.ID), p); err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
			maxPost = max(maxPost, p.ID)
		}
		if err := setSequence(txn, CategorySeqKey, maxCategory); err != nil {
			return err
		}
		return setSequence(txn, PostSeqKey, maxPost)
	})
}

func (r *BadgerRepository) ListPosts(ctx context.Context, categoryID *uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		categories, err := loadCategories(txn)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.Category, len(categories))
		for _, c := range categories {
			byID[c.ID] = c
		}

		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: []byte(PostKeyPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			if categoryID != nil && post.CategoryID != *categoryID {
				continue
			}
			post.Category = byID[post.CategoryID]
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PublishDate.Equal(posts[j].PublishDate) {
			return posts[i].PublishDate.After(posts[j].PublishDate)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (r *BadgerRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		categories, err = loadCategories(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func loadCategories(txn *badger.Txn) ([]*models.Category, error) {
	var categories []*models.Category
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: []byte(CategoryKeyPrefix)})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		var category models.Category
		err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &category)
		})
		if err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (r *BadgerRepository) GetPost(ctx context.Context, id uint, opts LoadOptions) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var p models.Post
		found, err := getEntity(txn, postKey(id), &p)
		if err != nil || !found {
			return err
		}

		if opts.Category {
			var c models.Category
			ok, err := getEntity(txn, categoryKey(p.CategoryID), &c)
			if err != nil {
				return err
			}
			if ok {
				p.Category = &c
			}
		}
		if opts.Comments {
			comments, err := loadComments(txn, id)
			if err != nil {
				return err
			}
			p.Comments = make([]*models.Comment, 0, len(comments))
			for _, c := range comments {
				if err := p.AddComment(c); err != nil {
					return err
				}
			}
		}
		post = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return post, nil
}

func loadComments(txn *badger.Txn, postID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: commentPrefix(postID)})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		var comment models.Comment
		err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		})
		if err != nil {
			return nil, err
		}
		comments = append(comments, &comment)
	}
	return comments, nil
}

func (r *BadgerRepository) CreatePost(ctx context.Context, post *models.Post) (uint, error) {
	post.SetDefaults(r.now())
	if err := post.Validate(); err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, categoryKey(post.CategoryID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: category %d does not exist", ErrConstraint, post.CategoryID)
		}

		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		return setEntity(txn, postKey(id), post.Detached())
	})
	if err != nil {
		post.ID = 0
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	return post.ID, nil
}

func (r *BadgerRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("failed to update post %d: %w", post.ID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, postKey(post.ID))
		if err != nil {
			return fmt.Errorf("failed to update post %d: %w", post.ID, err)
		}
		if !ok {
			return ErrNotFound
		}

		ok, err = exists(txn, categoryKey(post.CategoryID))
		if err != nil {
			return fmt.Errorf("failed to update post %d: %w", post.ID, err)
		}
		if !ok {
			return fmt.Errorf("failed to update post %d: %w: category %d does not exist", post.ID, ErrConstraint, post.CategoryID)
		}
		return setEntity(txn, postKey(post.ID), post.Detached())
	})
}

func (r *BadgerRepository) DeletePost(ctx context.Context, id uint) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		it := txn.NewIterator(badger.IteratorOptions{Prefix: commentPrefix(id)})
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(postKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}

func (r *BadgerRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.Stamp(r.now())
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		var post models.Post
		ok, err := getEntity(txn, postKey(comment.PostID), &post)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: post %d does not exist", ErrConstraint, comment.PostID)
		}
		if err := comment.SetPost(&post); err != nil {
			return err
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id
		stored := *comment
		stored.Post = nil
		return setEntity(txn, commentKey(comment.PostID, id), &stored)
	})
	if err != nil {
		comment.ID = 0
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

func (r *BadgerRepository) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}
