// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account.
// Email is unique and stored trimmed and lower-cased.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"userId"`
	Username       string    `gorm:"size:64;not null" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	Bio            string    `gorm:"type:text" json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
