package models

import (
	"time"
)

// Team size policy. A team is created with a full roster and must stay
// inside these bounds for the whole of its life.
const (
	MinTeamSize = 4
	MaxTeamSize = 6
)

// Team is a squad owned by exactly one user. The unique index on
// OwnerID is what turns a create/create race into a conflict instead
// of two teams.
type Team struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID   string    `json:"owner_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TeamMember is one roster slot. BgmiID is the in-game id and is
// unique across all teams.
type TeamMember struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	TeamID    string    `json:"team_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	BgmiID    string    `json:"bgmi_id" gorm:"uniqueIndex;not null"`
	Role      string    `json:"role"`
	SortOrder int       `json:"sort_order" gorm:"column:sort_order;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
