package models

// Group is a named category posts may belong to. Its lifecycle is independent
// from posts: reassigning or deleting a post never touches the group row, and
// deleting a group detaches its posts instead of removing them.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Posts       []Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
