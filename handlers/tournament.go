package handlers

import (
	"tournament-arena-system/middleware"
	"tournament-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, enrollmentService *services.EnrollmentService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/tournaments", tournamentService.HandleGetAllTournaments)
	secured.Get("/tournaments/:id", tournamentService.HandleGetTournamentByID)
	secured.Post("/tournaments/:id/enroll", enrollmentService.HandleEnroll)

	// 🔒 Admin-only: lifecycle and settlement
	admin := secured.Group("/", middleware.AdminOnly())
	admin.Post("/tournaments", tournamentService.HandleCreateTournament)
	admin.Patch("/tournaments/:id/room", tournamentService.HandleSetRoom)
	admin.Patch("/tournaments/:id/matchpoints", tournamentService.HandleUpdateMatchpoints)
	admin.Post("/tournaments/:id/send-prize", enrollmentService.HandleSendPrize)
}
