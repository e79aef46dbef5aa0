package models

import "time"

// Comment belongs to exactly one post. Insertion order follows ID.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"commentId"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	AuthorID  uint      `gorm:"not null;index" json:"authorId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
