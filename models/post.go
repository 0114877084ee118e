package models

import "time"

// Post represents a user-authored content item, optionally grouped and illustrated.
//
// PubDate is set once at creation and never changes afterwards; edits touch
// text and group only. Image holds a path relative to the media root, e.g.
// "posts/small.gif", empty when the post has no attachment.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"column:pub_date;autoCreateTime;index" json:"pub_date"`
	UserID   uint      `gorm:"index;not null" json:"user_id"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Image    string    `gorm:"size:512" json:"image"`
	User     User      `json:"author"`
	Group    *Group    `json:"group,omitempty"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}
