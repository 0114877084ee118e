package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/avkorolev/yatube/models"
)

// gormRepo implements the per-entity repositories on a shared gorm handle.
// ListAll orders by primary key so callers can compare tables row by row.
type gormRepo[T any] struct {
	db *gorm.DB
}

func (r gormRepo[T]) Insert(ctx context.Context, row *T) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r gormRepo[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r gormRepo[T]) ListAll(ctx context.Context) ([]T, error) {
	var rows []T
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r gormRepo[T]) CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error) {
	var count int64
	var row T
	tx := r.db.WithContext(ctx).Model(&row)
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NewPosts returns a gorm-backed PostRepository.
func NewPosts(db *gorm.DB) PostRepository { return gormRepo[models.Post]{db: db} }

// NewComments returns a gorm-backed CommentRepository.
func NewComments(db *gorm.DB) CommentRepository { return gormRepo[models.Comment]{db: db} }

// NewGroups returns a gorm-backed GroupRepository.
func NewGroups(db *gorm.DB) GroupRepository { return gormRepo[models.Group]{db: db} }

// NewUsers returns a gorm-backed UserRepository.
func NewUsers(db *gorm.DB) UserRepository { return gormRepo[models.User]{db: db} }

// NewFollows returns a gorm-backed FollowRepository.
func NewFollows(db *gorm.DB) FollowRepository { return gormRepo[models.Follow]{db: db} }
