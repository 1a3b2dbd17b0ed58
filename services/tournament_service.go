// services/tournament_service.go
package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tournament-arena-system/models"
	"tournament-arena-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// TournamentInput is the admin-supplied shape of a new tournament.
type TournamentInput struct {
	Title     string
	PrizePool float64
	EntryFee  float64
	MaxTeams  int
	BannerURL string
}

// CreateTournament opens a new tournament for registration.
func (s *TournamentService) CreateTournament(in TournamentInput) (*models.Tournament, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if in.MaxTeams <= 0 {
		return nil, fmt.Errorf("%w: max_teams must be a positive integer", models.ErrValidation)
	}
	if in.EntryFee < 0 || in.PrizePool < 0 {
		return nil, fmt.Errorf("%w: entry_fee and prize_pool must be non-negative", models.ErrValidation)
	}

	tournament := models.Tournament{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Slug:          slug.Make(in.Title),
		PrizePool:     in.PrizePool,
		EntryFee:      in.EntryFee,
		MaxTeams:      in.MaxTeams,
		EnrolledTeams: 0,
		Status:        "registering",
		BannerURL:     in.BannerURL,
	}
	if err := s.DB.Create(&tournament).Error; err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	return &tournament, nil
}

// SetRoom stores the match room credentials. Allowed any time before
// the tournament completes.
func (s *TournamentService) SetRoom(tournamentID, roomID, roomPass string) (*models.Tournament, error) {
	if roomID == "" {
		return nil, fmt.Errorf("%w: room_id is required", models.ErrValidation)
	}
	res := s.DB.Model(&models.Tournament{}).
		Where("id = ? AND status <> ?", tournamentID, "completed").
		Updates(map[string]interface{}{"room_id": roomID, "room_pass": roomPass})
	if res.Error != nil {
		return nil, fmt.Errorf("set room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var t models.Tournament
		if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
			return nil, fmt.Errorf("%w: tournament %s", models.ErrNotFound, tournamentID)
		}
		return nil, fmt.Errorf("%w: tournament is completed", models.ErrInvalidState)
	}
	return s.GetTournament(tournamentID)
}

// UpdateMatchpoints sets a participant's score. The conditional UPDATE
// doubles as the existence check.
func (s *TournamentService) UpdateMatchpoints(tournamentID, teamID string, points int) (*models.Participant, error) {
	res := s.DB.Model(&models.Participant{}).
		Where("tournament_id = ? AND team_id = ?", tournamentID, teamID).
		Update("matchpoints", points)
	if res.Error != nil {
		return nil, fmt.Errorf("update matchpoints: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: team %s is not a participant of tournament %s", models.ErrNotFound, teamID, tournamentID)
	}
	var p models.Participant
	if err := s.DB.First(&p, "tournament_id = ? AND team_id = ?", tournamentID, teamID).Error; err != nil {
		return nil, fmt.Errorf("fetch participant: %w", err)
	}
	return &p, nil
}

// GetTournament returns one tournament with its roster.
func (s *TournamentService) GetTournament(tournamentID string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		First(&t, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tournament %s", models.ErrNotFound, tournamentID)
		}
		return nil, fmt.Errorf("fetch tournament: %w", err)
	}
	return &t, nil
}

// ListTournaments returns all tournaments, newest first.
func (s *TournamentService) ListTournaments() ([]models.Tournament, error) {
	var tournaments []models.Tournament
	if err := s.DB.
		Preload("Participants").
		Order("created_at DESC").
		Find(&tournaments).Error; err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

// --- HTTP handlers ---

// HandleCreateTournament parses a multipart form so an optional banner
// image can ride along; the banner goes to R2.
func (s *TournamentService) HandleCreateTournament(c *fiber.Ctx) error {
	title := c.FormValue("title")

	prizePool := 0.0
	if v := c.FormValue("prize_pool"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prize_pool must be a non-negative number"})
		}
		prizePool = f
	}
	entryFee := 0.0
	if v := c.FormValue("entry_fee"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entry_fee must be a non-negative number"})
		}
		entryFee = f
	}
	maxTeams, err := strconv.Atoi(c.FormValue("max_teams"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_teams must be an integer"})
	}

	var bannerURL string
	if banner, ferr := c.FormFile("banner"); ferr == nil && banner.Size > 0 {
		ext := filepath.Ext(banner.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/banners/" + uuid.NewString() + ext
		url, uerr := utils.UploadFileToR2(banner, key)
		if uerr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload banner"})
		}
		bannerURL = url
	}

	tournament, err := s.CreateTournament(TournamentInput{
		Title:     title,
		PrizePool: prizePool,
		EntryFee:  entryFee,
		MaxTeams:  maxTeams,
		BannerURL: bannerURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "tournament": tournament})
}

func (s *TournamentService) HandleGetAllTournaments(c *fiber.Ctx) error {
	tournaments, err := s.ListTournaments()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "tournaments": tournaments})
}

func (s *TournamentService) HandleGetTournamentByID(c *fiber.Ctx) error {
	tournament, err := s.GetTournament(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "tournament": tournament})
}

func (s *TournamentService) HandleSetRoom(c *fiber.Ctx) error {
	var req struct {
		RoomID   string `json:"room_id"`
		RoomPass string `json:"room_pass"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	tournament, err := s.SetRoom(c.Params("id"), req.RoomID, req.RoomPass)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "tournament": tournament})
}

func (s *TournamentService) HandleUpdateMatchpoints(c *fiber.Ctx) error {
	var req struct {
		TeamID string `json:"team_id"`
		Points int    `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	participant, err := s.UpdateMatchpoints(c.Params("id"), req.TeamID, req.Points)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "participant": participant})
}
