package models

import (
	"time"
)

// Wallet is the per-user balance plus its append-only transaction log.
// Balance is never written from application-side arithmetic — every
// mutation is a conditional UPDATE so it can never go negative.
//
// Ledger invariant: balance == sum of signed amounts of all completed
// transactions (credit positive, debit negative). The reconciliation
// job re-checks this.
type Wallet struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	UserEmail string    `json:"user_email" gorm:"index"`
	Balance   float64   `json:"balance" gorm:"not null;default:0"`
	UpiID     *string   `json:"upi_id,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Transactions []WalletTransaction `json:"transactions,omitempty" gorm:"foreignKey:WalletID"`
}

// WalletTransaction is one ledger entry.
//
// Type: "add" (user deposit claim), "withdraw" (payout request),
// "tournament" (internally-triggered entry fee or prize).
// Flow: "credit" or "debit" — the sign of the entry.
// Status: "pending" → "completed" | "failed", one-way only. Add and
// withdraw entries start pending and wait for admin approval;
// tournament entries are created completed together with the balance
// change.
type WalletTransaction struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	WalletID    string    `json:"wallet_id" gorm:"not null;index"`
	UserEmail   string    `json:"user_email"`
	Type        string    `json:"type" gorm:"not null"`
	Flow        string    `json:"flow" gorm:"not null"`
	Amount      float64   `json:"amount" gorm:"not null"`
	Status      string    `json:"status" gorm:"default:'pending';index"`
	Description string    `json:"description"`
	ProofURL    string    `json:"proof_url,omitempty"`   // deposit screenshot, content never validated here
	Destination string    `json:"destination,omitempty"` // withdrawal UPI handle
	ReferenceID string    `json:"reference_id,omitempty" gorm:"index"` // tournament id for tournament entries
	CreatedAt   time.Time `json:"date" gorm:"autoCreateTime"`
}
