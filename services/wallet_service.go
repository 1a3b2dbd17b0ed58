// services/wallet_service.go
package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"tournament-arena-system/middleware"
	"tournament-arena-system/models"
	"tournament-arena-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinimumWithdrawal is the smallest payout a user may request.
const MinimumWithdrawal = 100.0

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// GetOrCreateWallet returns the user's wallet, creating a zero-balance
// one on first use. Idempotent — the unique index on user_id makes a
// concurrent double-create collapse into a single row.
func (s *WalletService) GetOrCreateWallet(userID, email string) (*models.Wallet, error) {
	if _, err := EnsureUser(s.DB, userID, email); err != nil {
		return nil, err
	}

	wallet := models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserEmail: email,
		Balance:   0,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	var out models.Wallet
	if err := s.DB.
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&out, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("fetch wallet: %w", err)
	}
	return &out, nil
}

// RequestDeposit appends a pending "add" entry. Balance is untouched
// until an admin approves the claim against the payment proof.
func (s *WalletService) RequestDeposit(userID, email string, amount float64, proofURL string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", models.ErrValidation)
	}
	if proofURL == "" {
		return nil, fmt.Errorf("%w: payment proof is required", models.ErrValidation)
	}

	wallet, err := s.GetOrCreateWallet(userID, email)
	if err != nil {
		return nil, err
	}

	txn := models.WalletTransaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		UserEmail:   email,
		Type:        "add",
		Flow:        "credit",
		Amount:      amount,
		Status:      "pending",
		Description: "wallet top-up",
		ProofURL:    proofURL,
	}
	if err := s.DB.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("append deposit request: %w", err)
	}
	return &txn, nil
}

// RequestWithdrawal appends a pending "withdraw" entry. The balance is
// only checked here as a courtesy — nothing is reserved, so the check
// is repeated at approval time.
func (s *WalletService) RequestWithdrawal(userID, email string, amount float64, destination string) (*models.WalletTransaction, error) {
	if amount < MinimumWithdrawal {
		return nil, fmt.Errorf("%w: minimum withdrawal is %.0f", models.ErrValidation, MinimumWithdrawal)
	}

	wallet, err := s.GetOrCreateWallet(userID, email)
	if err != nil {
		return nil, err
	}
	if destination == "" {
		if wallet.UpiID == nil || *wallet.UpiID == "" {
			return nil, fmt.Errorf("%w: destination UPI id is required", models.ErrValidation)
		}
		destination = *wallet.UpiID
	}
	if amount > wallet.Balance {
		return nil, fmt.Errorf("%w: balance %.2f, requested %.2f", models.ErrInsufficientFunds, wallet.Balance, amount)
	}

	txn := models.WalletTransaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		UserEmail:   email,
		Type:        "withdraw",
		Flow:        "debit",
		Amount:      amount,
		Status:      "pending",
		Description: "withdrawal to " + destination,
		Destination: destination,
	}
	if err := s.DB.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("append withdrawal request: %w", err)
	}
	return &txn, nil
}

// ResolveTransaction approves or rejects one pending entry. The status
// flip is a conditional UPDATE from "pending" only, so a second
// resolution of the same entry fails with ErrInvalidState no matter
// how the two calls interleave. An approval whose balance check fails
// rolls the whole thing back and the entry stays pending for manual
// retry or rejection.
func (s *WalletService) ResolveTransaction(transactionID, decision string) (*models.WalletTransaction, error) {
	if decision != "approve" && decision != "reject" {
		return nil, fmt.Errorf("%w: decision must be approve or reject", models.ErrValidation)
	}

	var txn models.WalletTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction %s", models.ErrNotFound, transactionID)
			}
			return fmt.Errorf("fetch transaction: %w", err)
		}
		if txn.Type == "tournament" {
			return fmt.Errorf("%w: tournament entries are settled internally", models.ErrInvalidState)
		}

		newStatus := "completed"
		if decision == "reject" {
			newStatus = "failed"
		}
		res := tx.Model(&models.WalletTransaction{}).
			Where("id = ? AND status = ?", transactionID, "pending").
			Update("status", newStatus)
		if res.Error != nil {
			return fmt.Errorf("update transaction status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: transaction already %s", models.ErrInvalidState, txn.Status)
		}

		if decision == "reject" {
			txn.Status = "failed"
			return nil
		}

		switch txn.Type {
		case "add":
			if err := tx.Model(&models.Wallet{}).
				Where("id = ?", txn.WalletID).
				Update("balance", gorm.Expr("balance + ?", txn.Amount)).Error; err != nil {
				return fmt.Errorf("credit balance: %w", err)
			}
		case "withdraw":
			// Re-verify funds at approval time: nothing was reserved at
			// request time and the balance may have moved since.
			res := tx.Model(&models.Wallet{}).
				Where("id = ? AND balance >= ?", txn.WalletID, txn.Amount).
				Update("balance", gorm.Expr("balance - ?", txn.Amount))
			if res.Error != nil {
				return fmt.Errorf("debit balance: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: balance below %.2f at approval time", models.ErrInsufficientFunds, txn.Amount)
			}
		}
		txn.Status = "completed"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CreditTx appends a completed tournament credit and bumps the balance
// in the caller's transaction — ledger entry and balance move as one
// persisted unit.
func (s *WalletService) CreditTx(tx *gorm.DB, userID, email string, amount float64, description, referenceID string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", models.ErrValidation)
	}
	var wallet models.Wallet
	if err := tx.First(&wallet, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: wallet for user %s", models.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("fetch wallet: %w", err)
	}

	txn := models.WalletTransaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		UserEmail:   email,
		Type:        "tournament",
		Flow:        "credit",
		Amount:      amount,
		Status:      "completed",
		Description: description,
		ReferenceID: referenceID,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("append credit entry: %w", err)
	}
	if err := tx.Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}
	return &txn, nil
}

// DebitTx appends a completed tournament debit. The balance decrement
// is conditional on sufficient funds; zero rows affected means the
// debit did not happen and the caller's transaction must roll back.
func (s *WalletService) DebitTx(tx *gorm.DB, userID, email string, amount float64, description, referenceID string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", models.ErrValidation)
	}
	var wallet models.Wallet
	if err := tx.First(&wallet, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no wallet for user", models.ErrInsufficientFunds)
		}
		return nil, fmt.Errorf("fetch wallet: %w", err)
	}

	txn := models.WalletTransaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		UserEmail:   email,
		Type:        "tournament",
		Flow:        "debit",
		Amount:      amount,
		Status:      "completed",
		Description: description,
		ReferenceID: referenceID,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("append debit entry: %w", err)
	}
	res := tx.Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", wallet.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: balance below %.2f", models.ErrInsufficientFunds, amount)
	}
	return &txn, nil
}

// CreditPrize is the standalone form of CreditTx for callers that are
// not already inside a transaction.
func (s *WalletService) CreditPrize(userID, email string, amount float64, description, referenceID string) (*models.WalletTransaction, error) {
	var txn *models.WalletTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.CreditTx(tx, userID, email, amount, description, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// SetUpiID stores the user's payout handle on the wallet.
func (s *WalletService) SetUpiID(userID, email, upiID string) (*models.Wallet, error) {
	if upiID == "" {
		return nil, fmt.Errorf("%w: upi_id is required", models.ErrValidation)
	}
	wallet, err := s.GetOrCreateWallet(userID, email)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Wallet{}).Where("id = ?", wallet.ID).Update("upi_id", upiID).Error; err != nil {
		return nil, fmt.Errorf("update upi id: %w", err)
	}
	wallet.UpiID = &upiID
	return wallet, nil
}

// PendingTransactions lists the admin approval queue, oldest first.
func (s *WalletService) PendingTransactions() ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	if err := s.DB.
		Where("status = ?", "pending").
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	return txns, nil
}

// --- HTTP handlers ---

func (s *WalletService) HandleGetWallet(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	wallet, err := s.GetOrCreateWallet(ident.UserID, ident.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "wallet": wallet})
}

func (s *WalletService) HandleEnsureWallet(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	wallet, err := s.GetOrCreateWallet(ident.UserID, ident.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "wallet": wallet})
}

func (s *WalletService) HandleSetUpiID(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	var req struct {
		UpiID string `json:"upi_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	wallet, err := s.SetUpiID(ident.UserID, ident.Email, req.UpiID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "wallet": wallet})
}

// HandleDepositRequest accepts a multipart form: "amount" plus a
// "screenshot" file that is pushed to R2 as the payment proof.
func (s *WalletService) HandleDepositRequest(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)

	amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be a number"})
	}

	proofURL := c.FormValue("screenshot_url")
	if screenshot, ferr := c.FormFile("screenshot"); ferr == nil && screenshot.Size > 0 {
		ext := filepath.Ext(screenshot.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "proofs/" + uuid.NewString() + ext
		url, uerr := utils.UploadFileToR2(screenshot, key)
		if uerr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload payment proof"})
		}
		proofURL = url
	}

	txn, err := s.RequestDeposit(ident.UserID, ident.Email, amount, proofURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "transaction": txn})
}

func (s *WalletService) HandleWithdrawRequest(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	var req struct {
		Amount float64 `json:"amount"`
		UpiID  string  `json:"upi_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	txn, err := s.RequestWithdrawal(ident.UserID, ident.Email, req.Amount, req.UpiID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "transaction": txn})
}

func (s *WalletService) HandleResolveTransaction(c *fiber.Ctx) error {
	var req struct {
		Decision string `json:"decision"` // approve | reject
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	txn, err := s.ResolveTransaction(c.Params("id"), req.Decision)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "transaction": txn})
}

func (s *WalletService) HandleListPendingTransactions(c *fiber.Ctx) error {
	txns, err := s.PendingTransactions()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "transactions": txns})
}
