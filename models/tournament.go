package models

import (
	"time"
)

// Tournament lifecycle. Status only ever moves forward:
// registering → full (capacity reached), registering|full → completed
// (prize settled, terminal).
type Tournament struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	Title         string    `json:"title" gorm:"not null"`
	Slug          string    `json:"slug" gorm:"index"`
	PrizePool     float64   `json:"prize_pool" gorm:"default:0"`
	EntryFee      float64   `json:"entry_fee" gorm:"default:0"`
	MaxTeams      int       `json:"max_teams" gorm:"not null"`
	EnrolledTeams int       `json:"enrolled_teams" gorm:"default:0"` // always == len(Participants)
	Status        string    `json:"status" gorm:"default:'registering'"`
	PrizeSent     bool      `json:"prize_sent" gorm:"default:false"`
	RoomID        *string   `json:"room_id,omitempty"`
	RoomPass      *string   `json:"room_pass,omitempty"`
	BannerURL     string    `json:"banner_url"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:TournamentID"`
}

// Participant is a team enrolled in a tournament. The composite unique
// index keeps a team from enrolling twice even when two requests race.
type Participant struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID string    `json:"tournament_id" gorm:"not null;index;uniqueIndex:idx_tournament_team"`
	TeamID       string    `json:"team_id" gorm:"not null;uniqueIndex:idx_tournament_team"`
	TeamName     string    `json:"team_name"` // denormalized at join time
	OwnerEmail   string    `json:"owner_email" gorm:"index"`
	JoinedAt     time.Time `json:"joined_at"`
	Matchpoints  int       `json:"matchpoints" gorm:"default:0"`
}
