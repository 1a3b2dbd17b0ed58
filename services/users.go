// services/users.go
package services

import (
	"fmt"

	"tournament-arena-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUser materializes the Gateway identity as a local user row.
// Idempotent — safe to call on every request path that touches a user.
func EnsureUser(db *gorm.DB, userID, email string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", models.ErrValidation)
	}

	user := models.User{ID: userID, Email: email}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", userID, err)
	}

	var out models.User
	if err := db.First(&out, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}

	// Keep the email in sync — the auth provider owns it and may change it.
	if email != "" && out.Email != email {
		if err := db.Model(&out).Update("email", email).Error; err != nil {
			return nil, fmt.Errorf("refresh user email: %w", err)
		}
		out.Email = email
	}
	return &out, nil
}
