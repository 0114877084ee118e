// Package repository exposes explicit data accessors over the entity tables,
// decoupled from HTTP handling. The black-box suites use them for fixtures and
// for asserting table state after each simulated request.
package repository

import (
	"context"

	"github.com/avkorolev/yatube/models"
)

// PostRepository covers the post table.
type PostRepository interface {
	Insert(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error)
}

// CommentRepository covers the comment table.
type CommentRepository interface {
	Insert(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListAll(ctx context.Context) ([]models.Comment, error)
	CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error)
}

// GroupRepository covers the group table.
type GroupRepository interface {
	Insert(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	ListAll(ctx context.Context) ([]models.Group, error)
	CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error)
}

// UserRepository covers the user table.
type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error)
}

// FollowRepository covers the follow table.
type FollowRepository interface {
	Insert(ctx context.Context, follow *models.Follow) error
	GetByID(ctx context.Context, id uint) (*models.Follow, error)
	ListAll(ctx context.Context) ([]models.Follow, error)
	CountWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error)
}
