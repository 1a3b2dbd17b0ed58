package handlers

import (
	"tournament-arena-system/middleware"
	"tournament-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTeamRoutes(app *fiber.App, teamService *services.TeamService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/team", teamService.HandleCreateTeam)
	secured.Get("/team", teamService.HandleGetMyTeam)
	secured.Delete("/team", teamService.HandleDeleteTeam)

	secured.Put("/team/members", teamService.HandleAddMember)
	secured.Delete("/team/members/:member_id", teamService.HandleRemoveMember)

	secured.Post("/team/join/:team_id", teamService.HandleJoinTeam)
	secured.Post("/team/leave", teamService.HandleLeaveTeam)
}
