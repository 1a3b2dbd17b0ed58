package models

import (
	"time"
)

// User is the local record for an identity supplied by the Gateway.
// Rows are materialized on first authenticated use — the auth provider
// itself lives behind the Gateway and is never called from here.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	TeamID    *string   `json:"team_id,omitempty" gorm:"index"` // weak back-reference, owned by the team registry
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
