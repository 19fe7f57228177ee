package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sakibee/app/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// postColumns are written by UpdatePost. Relations are never saved through a post.
var postColumns = []string{"title", "content", "author", "feature_image_path", "publish_date", "category_id"}

// GormRepository implements ContentRepository on a relational database.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// GormOptions selects the database a GormRepository talks to.
type GormOptions struct {
	Driver   string // "sqlite" or "postgres"
	DSN      string
	LogLevel logger.LogLevel
}

// OpenGorm connects to the database, migrates the schema and seeds a fresh one.
func OpenGorm(opts GormOptions) (*GormRepository, error) {
	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := NewGormRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// NewGormRepository wraps an open connection. The schema is not touched.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		if dsn == "" {
			return nil, errors.New("sqlite dsn is required")
		}
		if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
			path := strings.SplitN(dsn, "?", 2)[0]
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(withForeignKeys(dsn)), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// withForeignKeys turns on foreign key enforcement for every SQLite connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Migrate creates the tables and inserts the seed rows when no category exists yet.
func (r *GormRepository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&models.Category{}, &models.Post{}, &models.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if count > 0 {
			return nil
		}

		if err := tx.Omit(clause.Associations).Create(SeedCategories()).Error; err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(SeedPosts()).Error; err != nil {
			return fmt.Errorf("failed to seed posts: %w", err)
		}

		// Explicit ids do not advance Postgres sequences.
		if tx.Dialector.Name() == "postgres" {
			for _, table := range []string{"categories", "posts"} {
				stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))", table, table)
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to reset %s sequence: %w", table, err)
				}
			}
		}
		return nil
	})
}

func (r *GormRepository) ListPosts(ctx context.Context, categoryID *uint) ([]*models.Post, error) {
	q := r.db.WithContext(ctx).Preload("Category").Order("publish_date DESC").Order("id DESC")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var posts []*models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *GormRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepository) GetPost(ctx context.Context, id uint, opts LoadOptions) (*models.Post, error) {
	q := r.db.WithContext(ctx)
	if opts.Category {
		q = q.Preload("Category")
	}
	if opts.Comments {
		q = q.Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comment_date").Order("id")
		})
	}

	var post models.Post
	err := q.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

func (r *GormRepository) CreatePost(ctx context.Context, post *models.Post) (uint, error) {
	post.SetDefaults(r.now())
	if err := post.Validate(); err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return 0, fmt.Errorf("failed to create post: %w", translate(err))
	}
	return post.ID, nil
}

func (r *GormRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("failed to update post %d: %w", post.ID, err)
	}
	row := post.Detached()
	res := r.db.WithContext(ctx).Model(row).Select(postColumns).Updates(row)
	if res.Error != nil {
		return fmt.Errorf("failed to update post %d: %w", post.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments of post %d: %w", id, err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, err)
		}
		return nil
	})
}

func (r *GormRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.Stamp(r.now())
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", translate(err))
	}
	return comment, nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver foreign key failures onto ErrConstraint.
func translate(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) ||
		strings.Contains(strings.ToLower(err.Error()), "foreign key") {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
