package models

import "time"

// Follow is a directed edge meaning User follows Author. Both ends cascade on
// user deletion. The composite unique index keeps the edge single; handlers
// treat a repeated follow as a no-op rather than an error.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_follows_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"index;not null;uniqueIndex:idx_follows_user_author" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
