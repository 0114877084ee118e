package migrations

import (
	"gorm.io/gorm"

	"github.com/avkorolev/yatube/models"
)

// Steps is the full, append-only migration history. New steps go at the end
// and must never rewrite earlier ones.
func Steps() []Step {
	return []Step{
		{
			ID: "0001_users",
			Migrate: func(tx *gorm.DB) error {
				return createTableIfMissing(tx, &models.User{})
			},
		},
		{
			ID:       "0002_groups",
			Requires: []string{"0001_users"},
			Migrate: func(tx *gorm.DB) error {
				return createTableIfMissing(tx, &models.Group{})
			},
		},
		{
			ID:       "0003_posts",
			Requires: []string{"0001_users", "0002_groups"},
			Migrate: func(tx *gorm.DB) error {
				return createTableIfMissing(tx, &models.Post{})
			},
		},
		{
			// Databases created before the image attachment existed gain the
			// column here; fresh databases already have it from 0003_posts.
			ID:       "0004_post_image",
			Requires: []string{"0003_posts"},
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.Post{}, "Image") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.Post{}, "Image")
			},
		},
		{
			ID:       "0005_comments",
			Requires: []string{"0001_users", "0003_posts"},
			Migrate: func(tx *gorm.DB) error {
				return createTableIfMissing(tx, &models.Comment{})
			},
		},
		{
			ID:       "0006_follow",
			Requires: []string{"0001_users"},
			Migrate: func(tx *gorm.DB) error {
				return createTableIfMissing(tx, &models.Follow{})
			},
		},
		{
			// Duplicate (user, author) edges are meaningless; back the
			// handler-level idempotency with a schema constraint.
			ID:       "0007_follow_unique",
			Requires: []string{"0006_follow"},
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex(&models.Follow{}, "idx_follows_user_author") {
					return nil
				}
				return tx.Migrator().CreateIndex(&models.Follow{}, "idx_follows_user_author")
			},
		},
	}
}

func createTableIfMissing(tx *gorm.DB, model interface{}) error {
	if tx.Migrator().HasTable(model) {
		return nil
	}
	return tx.Migrator().CreateTable(model)
}
