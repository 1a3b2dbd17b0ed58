package services

import (
	"testing"

	"tournament-arena-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateWalletIdempotent(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()

	first, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 0.0, first.Balance)

	second, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, ws.DB.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRequestDepositValidation(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()

	_, err := ws.RequestDeposit(userID, "player@example.com", 0, "https://cdn.example.com/p.jpg")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = ws.RequestDeposit(userID, "player@example.com", -50, "https://cdn.example.com/p.jpg")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = ws.RequestDeposit(userID, "player@example.com", 500, "")
	require.ErrorIs(t, err, models.ErrValidation)

	var count int64
	require.NoError(t, ws.DB.Model(&models.WalletTransaction{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestDepositApproveIsAtMostOnce(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()

	txn, err := ws.RequestDeposit(userID, "player@example.com", 500, "https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	require.Equal(t, "pending", txn.Status)
	require.Equal(t, "add", txn.Type)

	// Balance untouched while pending.
	wallet, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 0.0, wallet.Balance)

	resolved, err := ws.ResolveTransaction(txn.ID, "approve")
	require.NoError(t, err)
	require.Equal(t, "completed", resolved.Status)

	wallet, err = ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 500.0, wallet.Balance)

	// Second approval is an idempotency error and pays nothing.
	_, err = ws.ResolveTransaction(txn.ID, "approve")
	require.ErrorIs(t, err, models.ErrInvalidState)

	wallet, err = ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 500.0, wallet.Balance)
}

func TestDepositReject(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()

	txn, err := ws.RequestDeposit(userID, "player@example.com", 250, "https://cdn.example.com/p.jpg")
	require.NoError(t, err)

	resolved, err := ws.ResolveTransaction(txn.ID, "reject")
	require.NoError(t, err)
	require.Equal(t, "failed", resolved.Status)

	wallet, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 0.0, wallet.Balance)

	// failed is terminal
	_, err = ws.ResolveTransaction(txn.ID, "approve")
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestWithdrawalBelowMinimum(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()
	fundWallet(t, ws, userID, "player@example.com", 500)

	_, err := ws.RequestWithdrawal(userID, "player@example.com", 50, "player@upi")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()
	fundWallet(t, ws, userID, "player@example.com", 50)

	_, err := ws.RequestWithdrawal(userID, "player@example.com", 100, "player@upi")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	// Nothing appended, balance unchanged.
	var count int64
	require.NoError(t, ws.DB.Model(&models.WalletTransaction{}).Where("type = ?", "withdraw").Count(&count).Error)
	require.EqualValues(t, 0, count)

	wallet, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 50.0, wallet.Balance)
}

func TestWithdrawalApprovalRechecksBalance(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()
	fundWallet(t, ws, userID, "player@example.com", 500)

	// Nothing is reserved at request time, so both requests go through.
	first, err := ws.RequestWithdrawal(userID, "player@example.com", 400, "player@upi")
	require.NoError(t, err)
	second, err := ws.RequestWithdrawal(userID, "player@example.com", 300, "player@upi")
	require.NoError(t, err)

	_, err = ws.ResolveTransaction(first.ID, "approve")
	require.NoError(t, err)

	wallet, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 100.0, wallet.Balance)

	// The second approval re-checks and fails; the entry stays pending.
	_, err = ws.ResolveTransaction(second.ID, "approve")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	var stored models.WalletTransaction
	require.NoError(t, ws.DB.First(&stored, "id = ?", second.ID).Error)
	require.Equal(t, "pending", stored.Status)

	// Rejection is still possible afterwards.
	resolved, err := ws.ResolveTransaction(second.ID, "reject")
	require.NoError(t, err)
	require.Equal(t, "failed", resolved.Status)

	wallet, err = ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 100.0, wallet.Balance)
}

func TestResolveUnknownTransaction(t *testing.T) {
	ws := NewWalletService(newTestDB(t))

	_, err := ws.ResolveTransaction(uuid.NewString(), "approve")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = ws.ResolveTransaction(uuid.NewString(), "maybe")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestLedgerMatchesBalanceAfterMixedOperations(t *testing.T) {
	db := newTestDB(t)
	ws := NewWalletService(db)
	es := NewEnrollmentService(db, ws)
	userID := uuid.NewString()

	fundWallet(t, ws, userID, "player@example.com", 1000)
	fundWallet(t, ws, userID, "player@example.com", 250)

	w, err := ws.RequestWithdrawal(userID, "player@example.com", 300, "player@upi")
	require.NoError(t, err)
	_, err = ws.ResolveTransaction(w.ID, "approve")
	require.NoError(t, err)

	rejected, err := ws.RequestWithdrawal(userID, "player@example.com", 200, "player@upi")
	require.NoError(t, err)
	_, err = ws.ResolveTransaction(rejected.ID, "reject")
	require.NoError(t, err)

	_, err = ws.CreditPrize(userID, "player@example.com", 600, "prize pool: Winter Cup", uuid.NewString())
	require.NoError(t, err)

	wallet, err := ws.GetOrCreateWallet(userID, "player@example.com")
	require.NoError(t, err)
	require.Equal(t, 1550.0, wallet.Balance)

	drifts, err := es.ReconcileLedgers()
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func TestReconcileReportsDrift(t *testing.T) {
	db := newTestDB(t)
	ws := NewWalletService(db)
	es := NewEnrollmentService(db, ws)
	userID := uuid.NewString()
	fundWallet(t, ws, userID, "player@example.com", 400)

	// Corrupt the stored balance behind the ledger's back.
	require.NoError(t, db.Model(&models.Wallet{}).Where("user_id = ?", userID).Update("balance", 999).Error)

	drifts, err := es.ReconcileLedgers()
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, 999.0, drifts[0].Balance)
	require.Equal(t, 400.0, drifts[0].Ledger)
}

func TestPendingTransactionsQueue(t *testing.T) {
	ws := NewWalletService(newTestDB(t))
	userID := uuid.NewString()

	first, err := ws.RequestDeposit(userID, "player@example.com", 100, "https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	fundWallet(t, ws, userID, "player@example.com", 500)
	_, err = ws.RequestWithdrawal(userID, "player@example.com", 150, "player@upi")
	require.NoError(t, err)

	pending, err := ws.PendingTransactions()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID) // oldest first
}
