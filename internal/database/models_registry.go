package database

import "stocktalk/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.PostTag{},
		&models.Comment{},
		&models.Like{},
	}
}
