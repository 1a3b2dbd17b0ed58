package services

import (
	"testing"

	"tournament-arena-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateTournamentDefaults(t *testing.T) {
	ts := NewTournamentService(newTestDB(t))

	tournament, err := ts.CreateTournament(TournamentInput{
		Title:     "Summer Showdown 2026",
		PrizePool: 5000,
		EntryFee:  200,
		MaxTeams:  16,
	})
	require.NoError(t, err)
	require.Equal(t, "registering", tournament.Status)
	require.Equal(t, 0, tournament.EnrolledTeams)
	require.False(t, tournament.PrizeSent)
	require.Equal(t, "summer-showdown-2026", tournament.Slug)
}

func TestCreateTournamentValidation(t *testing.T) {
	ts := NewTournamentService(newTestDB(t))

	_, err := ts.CreateTournament(TournamentInput{Title: "  ", MaxTeams: 8})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = ts.CreateTournament(TournamentInput{Title: "No Slots", MaxTeams: 0})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = ts.CreateTournament(TournamentInput{Title: "Negative", MaxTeams: 8, EntryFee: -1})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestSetRoom(t *testing.T) {
	db := newTestDB(t)
	ts := NewTournamentService(db)

	tournament, err := ts.CreateTournament(TournamentInput{Title: "Night Scrims", MaxTeams: 4})
	require.NoError(t, err)

	updated, err := ts.SetRoom(tournament.ID, "78421", "sq4d")
	require.NoError(t, err)
	require.Equal(t, "78421", *updated.RoomID)
	require.Equal(t, "sq4d", *updated.RoomPass)

	_, err = ts.SetRoom(uuid.NewString(), "78421", "sq4d")
	require.ErrorIs(t, err, models.ErrNotFound)

	// Once completed the room is frozen.
	require.NoError(t, db.Model(&models.Tournament{}).Where("id = ?", tournament.ID).Update("status", "completed").Error)
	_, err = ts.SetRoom(tournament.ID, "99999", "new")
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestUpdateMatchpoints(t *testing.T) {
	db := newTestDB(t)
	ts := NewTournamentService(db)

	tournament, err := ts.CreateTournament(TournamentInput{Title: "Night Scrims", MaxTeams: 4})
	require.NoError(t, err)

	teamID := uuid.NewString()
	require.NoError(t, db.Create(&models.Participant{
		ID:           uuid.NewString(),
		TournamentID: tournament.ID,
		TeamID:       teamID,
		TeamName:     "Soul Reapers",
		OwnerEmail:   "owner@example.com",
	}).Error)

	participant, err := ts.UpdateMatchpoints(tournament.ID, teamID, 42)
	require.NoError(t, err)
	require.Equal(t, 42, participant.Matchpoints)

	_, err = ts.UpdateMatchpoints(tournament.ID, uuid.NewString(), 10)
	require.ErrorIs(t, err, models.ErrNotFound)
}
