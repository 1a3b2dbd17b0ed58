// services/enrollment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"tournament-arena-system/middleware"
	"tournament-arena-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentService is the cross-cutting workflow that moves wallet,
// team and tournament together. All effects of one operation live in a
// single DB transaction; the capacity counter and the wallet balance
// are only ever touched through conditional UPDATEs, so two requests
// racing for the last slot or the last rupee resolve to exactly one
// winner.
type EnrollmentService struct {
	DB      *gorm.DB
	Wallets *WalletService
}

func NewEnrollmentService(db *gorm.DB, wallets *WalletService) *EnrollmentService {
	return &EnrollmentService{DB: db, Wallets: wallets}
}

// Enroll joins the caller's team into a tournament and debits the
// entry fee. Preconditions are checked in a fixed order so the caller
// always gets the most actionable error; the ledger debit lands before
// the participant row inside the same transaction, so a torn write can
// only ever leave a detectable debit-without-participant state — never
// a free seat.
func (s *EnrollmentService) Enroll(userID, email, tournamentID string) (*models.Tournament, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := EnsureUser(tx, userID, email)
		if err != nil {
			return err
		}
		if user.TeamID == nil {
			return fmt.Errorf("%w: create or join a team first", models.ErrValidation)
		}

		var team models.Team
		if err := tx.Preload("Members").First(&team, "id = ?", *user.TeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: create or join a team first", models.ErrValidation)
			}
			return fmt.Errorf("fetch team: %w", err)
		}
		if len(team.Members) < models.MinTeamSize {
			return fmt.Errorf("%w: team needs at least %d members to enroll", models.ErrValidation, models.MinTeamSize)
		}

		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: tournament %s", models.ErrNotFound, tournamentID)
			}
			return fmt.Errorf("fetch tournament: %w", err)
		}
		if tournament.Status != "registering" {
			if tournament.Status == "full" {
				return models.ErrTournamentFull
			}
			return models.ErrRegistrationClosed
		}
		if tournament.EnrolledTeams >= tournament.MaxTeams {
			return models.ErrTournamentFull
		}

		var existing models.Participant
		err = tx.First(&existing, "tournament_id = ? AND team_id = ?", tournamentID, team.ID).Error
		if err == nil {
			return models.ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check enrollment: %w", err)
		}

		var wallet models.Wallet
		if err := tx.First(&wallet, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no wallet for user", models.ErrInsufficientFunds)
			}
			return fmt.Errorf("fetch wallet: %w", err)
		}
		if wallet.Balance < tournament.EntryFee {
			return fmt.Errorf("%w: balance %.2f, entry fee %.2f", models.ErrInsufficientFunds, wallet.Balance, tournament.EntryFee)
		}

		// Effects. Capacity first: the conditional increment is what
		// actually reserves the slot under concurrency.
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND status = ? AND enrolled_teams < max_teams", tournamentID, "registering").
			Update("enrolled_teams", gorm.Expr("enrolled_teams + 1"))
		if res.Error != nil {
			return fmt.Errorf("reserve slot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrTournamentFull
		}

		if tournament.EntryFee > 0 {
			if _, err := s.Wallets.DebitTx(tx, userID, email, tournament.EntryFee, "entry fee: "+tournament.Title, tournament.ID); err != nil {
				return err
			}
		}

		participant := models.Participant{
			ID:           uuid.NewString(),
			TournamentID: tournament.ID,
			TeamID:       team.ID,
			TeamName:     team.Name,
			OwnerEmail:   email,
			JoinedAt:     time.Now(),
		}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrAlreadyEnrolled
			}
			return fmt.Errorf("create participant: %w", err)
		}

		// Close registration the moment the last slot is taken.
		if err := tx.Model(&models.Tournament{}).
			Where("id = ? AND enrolled_teams >= max_teams AND status = ?", tournamentID, "registering").
			Update("status", "full").Error; err != nil {
			return fmt.Errorf("close registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out models.Tournament
	if err := s.DB.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		First(&out, "id = ?", tournamentID).Error; err != nil {
		return nil, fmt.Errorf("refetch tournament: %w", err)
	}
	return &out, nil
}

// SendPrize settles a tournament: the prize pool is credited to the
// winner's wallet and the tournament moves to its terminal state. The
// conditional flip of prize_sent is the idempotency guard — a second
// call, however concurrent, finds zero rows to update and pays nothing.
func (s *EnrollmentService) SendPrize(tournamentID, winnerEmail, teamName string) (*models.WalletTransaction, error) {
	if winnerEmail == "" {
		return nil, fmt.Errorf("%w: winner_email is required", models.ErrValidation)
	}

	var prize *models.WalletTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: tournament %s", models.ErrNotFound, tournamentID)
			}
			return fmt.Errorf("fetch tournament: %w", err)
		}
		if tournament.PrizePool <= 0 {
			return fmt.Errorf("%w: tournament has no prize pool", models.ErrValidation)
		}

		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND prize_sent = ?", tournamentID, false).
			Updates(map[string]interface{}{"prize_sent": true, "status": "completed"})
		if res.Error != nil {
			return fmt.Errorf("mark prize sent: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: prize already sent", models.ErrInvalidState)
		}

		var winner models.User
		if err := tx.First(&winner, "email = ?", winnerEmail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no user with email %s", models.ErrNotFound, winnerEmail)
			}
			return fmt.Errorf("fetch winner: %w", err)
		}

		description := "prize pool: " + tournament.Title
		if teamName != "" {
			description += " (" + teamName + ")"
		}
		var err error
		prize, err = s.Wallets.CreditTx(tx, winner.ID, winnerEmail, tournament.PrizePool, description, tournament.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prize, nil
}

// --- HTTP handlers ---

func (s *EnrollmentService) HandleEnroll(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	tournament, err := s.Enroll(ident.UserID, ident.Email, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "tournament": tournament})
}

func (s *EnrollmentService) HandleSendPrize(c *fiber.Ctx) error {
	var req struct {
		WinnerEmail string `json:"winner_email"`
		TeamName    string `json:"team_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	prize, err := s.SendPrize(c.Params("id"), req.WinnerEmail, req.TeamName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "transaction": prize})
}
