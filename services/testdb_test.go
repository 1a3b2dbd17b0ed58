package services

import (
	"testing"

	"tournament-arena-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection only: every pooled connection of an in-memory
	// SQLite DB would otherwise see its own empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Tournament{},
		&models.Participant{},
		&models.Wallet{},
		&models.WalletTransaction{},
	))
	return db
}

// fundWallet runs a deposit through the normal request/approve flow so
// the ledger stays consistent with the balance.
func fundWallet(t *testing.T, ws *WalletService, userID, email string, amount float64) {
	t.Helper()
	txn, err := ws.RequestDeposit(userID, email, amount, "https://cdn.example.com/proofs/seed.jpg")
	require.NoError(t, err)
	_, err = ws.ResolveTransaction(txn.ID, "approve")
	require.NoError(t, err)
}

// roster returns n distinct members for team creation.
func roster(prefix string, n int) []MemberInput {
	members := make([]MemberInput, n)
	for i := range members {
		members[i] = MemberInput{
			Name:   prefix + string(rune('A'+i)),
			BgmiID: prefix + "-bgmi-" + string(rune('0'+i)),
			Role:   "player",
		}
	}
	members[0].Role = "igl"
	return members
}
