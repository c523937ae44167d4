package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/handlers"
	"github.com/reparto-ops/dispatch-backend/internal/middleware"
	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// Deps bundles everything the routes need
type Deps struct {
	Store    storage.Store
	Auth     *services.AuthService
	CheckIn  *services.CheckInService
	Dispatch *services.DispatchService
	Bags     *services.BagService
	Roster   *services.RosterService
	Ranking  *services.RankingService
	Export   *services.ExportService
	Selfies  *services.SelfieService
	Location *time.Location
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	checkInHandler := handlers.NewCheckInHandler(deps.CheckIn, deps.Selfies)
	driverHandler := handlers.NewDriverHandler(deps.Store, deps.Dispatch, deps.Bags)
	dispatchHandler := handlers.NewDispatchHandler(deps.Dispatch, deps.Bags)
	adminHandler := handlers.NewAdminHandler(deps.Store, deps.Roster)
	reportHandler := handlers.NewReportHandler(deps.Ranking, deps.Export, deps.Location)

	coordinator := middleware.RequireRole(deps.Auth, services.RoleCoordinator, services.RoleAdmin)
	admin := middleware.RequireRole(deps.Auth, services.RoleAdmin)

	api := app.Group("/api")

	// Session
	api.Post("/auth/login", authHandler.Login)

	// Driver devices (identified by device id, no session)
	api.Post("/checkin", checkInHandler.CheckIn)
	api.Post("/checkin/selfie", checkInHandler.UploadSelfie)

	// Coordinator views and queue actions
	queue := api.Group("/queue", coordinator)
	queue.Get("/", driverHandler.GetQueue)
	queue.Get("/active", driverHandler.GetActiveDispatches)
	queue.Get("/snapshot", driverHandler.GetQueueSnapshot)

	drivers := api.Group("/drivers", coordinator)
	drivers.Get("/", driverHandler.GetDrivers)
	drivers.Get("/:driverID", driverHandler.GetDriver)
	drivers.Get("/:driverID/bags", driverHandler.GetDriverBags)
	drivers.Post("/:driverID/bags/return", dispatchHandler.ReturnBags)

	dispatch := api.Group("/dispatch", coordinator)
	dispatch.Post("/start", dispatchHandler.StartQueue)
	dispatch.Post("/end-shift", dispatchHandler.EndShift)
	dispatch.Post("/cancel-pending", dispatchHandler.CancelAllPending)
	dispatch.Post("/:driverID", dispatchHandler.DispatchDriver)
	dispatch.Post("/:driverID/cancel", dispatchHandler.CancelDriver)

	// Reports
	reports := api.Group("/reports", coordinator)
	reports.Get("/ranking", reportHandler.GetRanking)
	reports.Get("/export", reportHandler.ExportHistory)

	// Administration
	adminGroup := api.Group("/admin", admin)
	adminGroup.Post("/drivers", adminHandler.CreateDriver)
	adminGroup.Put("/drivers/:driverID", adminHandler.UpdateDriver)
	adminGroup.Delete("/drivers/:driverID", adminHandler.DeleteDriver)
	adminGroup.Post("/roster", adminHandler.ImportRoster)
	adminGroup.Get("/alerts", adminHandler.GetAlerts)
	adminGroup.Delete("/alerts", adminHandler.ClearAlerts)
}
