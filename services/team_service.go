// services/team_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tournament-arena-system/middleware"
	"tournament-arena-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

// MemberInput is one roster slot as submitted by the owner.
type MemberInput struct {
	Name   string `json:"name"`
	BgmiID string `json:"bgmi_id"`
	Role   string `json:"role"`
}

// CreateTeam creates a full squad in one shot. One team per owner; the
// unique index on owner_id turns a concurrent double-create into a
// conflict. bgmi_id is unique across all teams.
func (s *TeamService) CreateTeam(ownerID, email, name string, members []MemberInput) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", models.ErrValidation)
	}
	if len(members) < models.MinTeamSize || len(members) > models.MaxTeamSize {
		return nil, fmt.Errorf("%w: team must have between %d and %d members", models.ErrValidation, models.MinTeamSize, models.MaxTeamSize)
	}
	seen := map[string]bool{}
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.BgmiID) == "" {
			return nil, fmt.Errorf("%w: every member needs a name and a bgmi_id", models.ErrValidation)
		}
		if seen[m.BgmiID] {
			return nil, fmt.Errorf("%w: duplicate bgmi_id %s", models.ErrValidation, m.BgmiID)
		}
		seen[m.BgmiID] = true
	}

	user, err := EnsureUser(s.DB, ownerID, email)
	if err != nil {
		return nil, err
	}

	var existing models.Team
	if err := s.DB.First(&existing, "owner_id = ?", ownerID).Error; err == nil {
		return nil, models.ErrTeamExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing team: %w", err)
	}

	team := models.Team{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrTeamExists
			}
			return fmt.Errorf("create team: %w", err)
		}
		for i, m := range members {
			member := models.TeamMember{
				ID:        uuid.NewString(),
				TeamID:    team.ID,
				Name:      strings.TrimSpace(m.Name),
				BgmiID:    strings.TrimSpace(m.BgmiID),
				Role:      m.Role,
				SortOrder: i,
			}
			if err := tx.Create(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: bgmi_id %s already registered", models.ErrConflict, m.BgmiID)
				}
				return fmt.Errorf("create member: %w", err)
			}
			team.Members = append(team.Members, member)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("team_id", team.ID).Error; err != nil {
			return fmt.Errorf("link owner to team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// AddMember appends one roster slot, never past MaxTeamSize.
func (s *TeamService) AddMember(ownerID string, member MemberInput) (*models.Team, error) {
	if strings.TrimSpace(member.Name) == "" || strings.TrimSpace(member.BgmiID) == "" {
		return nil, fmt.Errorf("%w: member needs a name and a bgmi_id", models.ErrValidation)
	}

	var team models.Team
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&team, "owner_id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: you do not own a team", models.ErrNotFound)
			}
			return fmt.Errorf("fetch team: %w", err)
		}
		var count int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if count >= models.MaxTeamSize {
			return fmt.Errorf("%w: team already has %d members", models.ErrValidation, models.MaxTeamSize)
		}
		row := models.TeamMember{
			ID:        uuid.NewString(),
			TeamID:    team.ID,
			Name:      strings.TrimSpace(member.Name),
			BgmiID:    strings.TrimSpace(member.BgmiID),
			Role:      member.Role,
			SortOrder: int(count),
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: bgmi_id %s already registered", models.ErrConflict, member.BgmiID)
			}
			return fmt.Errorf("create member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.teamWithMembers(team.ID)
}

// RemoveMember drops one roster slot but never below MinTeamSize — a
// team that falls under the floor could no longer enroll anywhere.
func (s *TeamService) RemoveMember(ownerID, memberID string) (*models.Team, error) {
	var team models.Team
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&team, "owner_id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: you do not own a team", models.ErrNotFound)
			}
			return fmt.Errorf("fetch team: %w", err)
		}
		var count int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if count <= models.MinTeamSize {
			return fmt.Errorf("%w: team cannot have fewer than %d members", models.ErrValidation, models.MinTeamSize)
		}
		res := tx.Where("id = ? AND team_id = ?", memberID, team.ID).Delete(&models.TeamMember{})
		if res.Error != nil {
			return fmt.Errorf("delete member: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: member %s", models.ErrNotFound, memberID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.teamWithMembers(team.ID)
}

// DeleteTeam removes the owner's team and cascades: roster rows go,
// and every user who had joined the team gets their team_id cleared.
func (s *TeamService) DeleteTeam(ownerID string) error {
	var team models.Team
	if err := s.DB.First(&team, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: you do not own a team", models.ErrNotFound)
		}
		return fmt.Errorf("fetch team: %w", err)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamMember{}).Error; err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("team_id = ?", team.ID).Update("team_id", nil).Error; err != nil {
			return fmt.Errorf("clear user team refs: %w", err)
		}
		if err := tx.Delete(&models.Team{}, "id = ?", team.ID).Error; err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		return nil
	})
}

// LeaveTeam detaches the user from the team they joined. Owners cannot
// leave their own team — they delete it instead.
func (s *TeamService) LeaveTeam(userID string) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
		}
		return fmt.Errorf("fetch user: %w", err)
	}
	if user.TeamID == nil {
		return fmt.Errorf("%w: you are not in a team", models.ErrValidation)
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", *user.TeamID).Error; err == nil && team.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot leave — delete the team instead", models.ErrForbidden)
	}

	if err := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("team_id", nil).Error; err != nil {
		return fmt.Errorf("clear team ref: %w", err)
	}
	return nil
}

// JoinTeamByCode attaches a user to an existing team by its id.
// Joining the team you are already in is a no-op; being in a different
// team is a conflict.
func (s *TeamService) JoinTeamByCode(userID, email, teamID string) (*models.Team, error) {
	user, err := EnsureUser(s.DB, userID, email)
	if err != nil {
		return nil, err
	}
	if user.TeamID != nil && *user.TeamID != teamID {
		return nil, models.ErrAlreadyInTeam
	}

	team, err := s.teamWithMembers(teamID)
	if err != nil {
		return nil, err
	}
	if user.TeamID == nil {
		if err := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("team_id", team.ID).Error; err != nil {
			return nil, fmt.Errorf("link user to team: %w", err)
		}
	}
	return team, nil
}

// TeamForUser returns the team the user belongs to, roster included.
func (s *TeamService) TeamForUser(userID string) (*models.Team, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user.TeamID == nil {
		return nil, fmt.Errorf("%w: you are not in a team", models.ErrNotFound)
	}
	return s.teamWithMembers(*user.TeamID)
}

func (s *TeamService) teamWithMembers(teamID string) (*models.Team, error) {
	var team models.Team
	if err := s.DB.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: team %s", models.ErrNotFound, teamID)
		}
		return nil, fmt.Errorf("fetch team: %w", err)
	}
	return &team, nil
}

// --- HTTP handlers ---

func (s *TeamService) HandleCreateTeam(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	var req struct {
		Name    string        `json:"name"`
		Members []MemberInput `json:"members"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	team, err := s.CreateTeam(ident.UserID, ident.Email, req.Name, req.Members)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "team": team})
}

func (s *TeamService) HandleGetMyTeam(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	team, err := s.TeamForUser(ident.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "team": team})
}

func (s *TeamService) HandleDeleteTeam(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	if err := s.DeleteTeam(ident.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "team deleted"})
}

func (s *TeamService) HandleAddMember(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	var req MemberInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	team, err := s.AddMember(ident.UserID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "team": team})
}

func (s *TeamService) HandleRemoveMember(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	team, err := s.RemoveMember(ident.UserID, c.Params("member_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "team": team})
}

func (s *TeamService) HandleJoinTeam(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	team, err := s.JoinTeamByCode(ident.UserID, ident.Email, c.Params("team_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "team": team, "joined_at": time.Now()})
}

func (s *TeamService) HandleLeaveTeam(c *fiber.Ctx) error {
	ident, _ := middleware.IdentityFrom(c)
	if err := s.LeaveTeam(ident.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "left team"})
}
