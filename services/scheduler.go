// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"tournament-arena-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// LedgerDrift is one wallet whose stored balance disagrees with the
// sum of its completed ledger entries.
type LedgerDrift struct {
	WalletID string
	UserID   string
	Balance  float64
	Ledger   float64
}

// StartReconciliationScheduler runs the periodic consistency pass:
// every wallet's balance is re-derived from its completed entries, and
// entry-fee debits that never produced a participant row are refunded.
func (s *EnrollmentService) StartReconciliationScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			drifts, err := s.ReconcileLedgers()
			if err != nil {
				log.Printf("[Reconciler] ledger pass failed: %v", err)
			}
			for _, d := range drifts {
				log.Printf("❌ [Reconciler] wallet %s (user %s): balance %.2f, ledger %.2f", d.WalletID, d.UserID, d.Balance, d.Ledger)
			}

			repaired, err := s.RepairTornEnrollments()
			if err != nil {
				log.Printf("[Reconciler] repair pass failed: %v", err)
			}
			if repaired > 0 {
				log.Printf("✅ [Reconciler] refunded %d orphaned entry fee(s)", repaired)
			}
		}),
	)
}

// ReconcileLedgers checks the ledger invariant for every wallet:
// balance == Σ completed credits − Σ completed debits. Drift is
// reported, not auto-corrected — a wallet whose log disagrees with its
// balance needs a human before money moves again.
func (s *EnrollmentService) ReconcileLedgers() ([]LedgerDrift, error) {
	var wallets []models.Wallet
	if err := s.DB.Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	var drifts []LedgerDrift
	for _, w := range wallets {
		var total float64
		if err := s.DB.Model(&models.WalletTransaction{}).
			Select("COALESCE(SUM(CASE WHEN flow = 'credit' THEN amount ELSE -amount END), 0)").
			Where("wallet_id = ? AND status = ?", w.ID, "completed").
			Scan(&total).Error; err != nil {
			return nil, fmt.Errorf("sum ledger for wallet %s: %w", w.ID, err)
		}
		if math.Abs(total-w.Balance) > 1e-9 {
			drifts = append(drifts, LedgerDrift{WalletID: w.ID, UserID: w.UserID, Balance: w.Balance, Ledger: total})
		}
	}
	return drifts, nil
}

// RepairTornEnrollments finds completed entry-fee debits whose
// tournament has no matching participant for that owner and refunds
// them. That state cannot arise while enroll runs inside one DB
// transaction, but the refund path is what makes a two-phase
// deployment (or a restored backup) safe: money debited without a seat
// is always given back, exactly once.
func (s *EnrollmentService) RepairTornEnrollments() (int, error) {
	var debits []models.WalletTransaction
	if err := s.DB.
		Where("type = ? AND flow = ? AND status = ? AND reference_id <> ''", "tournament", "debit", "completed").
		Find(&debits).Error; err != nil {
		return 0, fmt.Errorf("list entry fee debits: %w", err)
	}

	repaired := 0
	for _, d := range debits {
		var tournament models.Tournament
		if err := s.DB.First(&tournament, "id = ?", d.ReferenceID).Error; err != nil {
			continue
		}
		if tournament.Status == "completed" {
			continue
		}

		var seats int64
		if err := s.DB.Model(&models.Participant{}).
			Where("tournament_id = ? AND owner_email = ?", d.ReferenceID, d.UserEmail).
			Count(&seats).Error; err != nil {
			return repaired, fmt.Errorf("count participants: %w", err)
		}
		if seats > 0 {
			continue
		}

		// Refund at most once per orphaned debit.
		var refunds int64
		if err := s.DB.Model(&models.WalletTransaction{}).
			Where("wallet_id = ? AND reference_id = ? AND flow = ? AND description LIKE ?", d.WalletID, d.ReferenceID, "credit", "refund:%").
			Count(&refunds).Error; err != nil {
			return repaired, fmt.Errorf("count refunds: %w", err)
		}
		if refunds > 0 {
			continue
		}

		debit := d
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var wallet models.Wallet
			if err := tx.First(&wallet, "id = ?", debit.WalletID).Error; err != nil {
				return fmt.Errorf("fetch wallet: %w", err)
			}
			_, err := s.Wallets.CreditTx(tx, wallet.UserID, debit.UserEmail, debit.Amount, "refund: "+tournament.Title, tournament.ID)
			return err
		})
		if err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}
