package handlers

import (
	"tournament-arena-system/middleware"
	"tournament-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, walletService *services.WalletService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/wallet", walletService.HandleGetWallet)
	secured.Post("/wallet", walletService.HandleEnsureWallet)
	secured.Patch("/wallet/upi", walletService.HandleSetUpiID)
	secured.Post("/wallet/deposit-request", walletService.HandleDepositRequest)
	secured.Post("/wallet/withdraw-request", walletService.HandleWithdrawRequest)

	// 🔒 Admin-only: the approval queue
	admin := secured.Group("/", middleware.AdminOnly())
	admin.Put("/wallet/transactions/:id", walletService.HandleResolveTransaction)
	admin.Get("/admin/transactions/pending", walletService.HandleListPendingTransactions)
}
