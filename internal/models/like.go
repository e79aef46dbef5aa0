package models

import "time"

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeState is the like-set membership of one user on one post after a like or unlike.
type LikeState struct {
	PostID     uint `json:"postId"`
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}
