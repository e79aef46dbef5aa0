package models

import "time"

// Post is a discussion thread attached to a stock symbol.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"postId"`
	StockSymbol string    `gorm:"size:16;not null;index" json:"stockSymbol"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	AuthorID    uint      `gorm:"not null;index" json:"authorId"`
	TagRows     []PostTag `gorm:"foreignKey:PostID" json:"-"`
	Tags        []string  `gorm:"-" json:"tags"`
	// LikesCount is not persisted; computed from the likes table at query time
	LikesCount int       `gorm:"->;-:migration" json:"likesCount"`
	Comments   []Comment `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"-"`
}

// PostTag stores one tag of a post. Position keeps the order tags were given in.
type PostTag struct {
	PostID   uint   `gorm:"primaryKey;autoIncrement:false"`
	Tag      string `gorm:"primaryKey;size:64;index"`
	Position int    `gorm:"not null"`
}

// PostSummary is the list view of a post.
type PostSummary struct {
	PostID      uint      `json:"postId"`
	StockSymbol string    `json:"stockSymbol"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	LikesCount  int       `json:"likesCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HydrateTags copies the ordered tag rows into Tags.
func (p *Post) HydrateTags() {
	tags := make([]string, 0, len(p.TagRows))
	for _, row := range p.TagRows {
		tags = append(tags, row.Tag)
	}
	p.Tags = tags
}

// Summary returns the list view of the post.
func (p *Post) Summary() PostSummary {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostSummary{
		PostID:      p.ID,
		StockSymbol: p.StockSymbol,
		Title:       p.Title,
		Description: p.Description,
		Tags:        tags,
		LikesCount:  p.LikesCount,
		CreatedAt:   p.CreatedAt,
	}
}
