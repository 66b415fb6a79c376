// Package server wires the repositories, services and handlers into a fiber app.
package server

import (
	"strings"

	"agri-backend/internal/admin"
	"agri-backend/internal/advisory"
	"agri-backend/internal/audit"
	"agri-backend/internal/auth"
	"agri-backend/internal/config"
	"agri-backend/internal/crop"
	"agri-backend/internal/dashboard"
	"agri-backend/internal/database"
	"agri-backend/internal/expense"
	"agri-backend/internal/harvest"
	"agri-backend/internal/history"
	"agri-backend/internal/httpx"
	"agri-backend/internal/logger"
	"agri-backend/internal/metrics"
	"agri-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New builds the HTTP application on top of db.
func New(cfg *config.Config, db *gorm.DB, log *zap.Logger) *fiber.App {
	farmers := database.NewFarmerRepository(db)
	crops := database.NewCropRepository(db)
	harvests := database.NewHarvestRepository(db)
	expenses := database.NewExpenseRepository(db)
	advisories := database.NewAdvisoryRepository(db)
	audits := database.NewAuditRepository(db)
	reports := database.NewReportRepository(db)

	rec := audit.NewRecorder(audits)
	dash := dashboard.NewService(reports, cfg.Server.Location)
	hist := history.NewService(crops, harvests, expenses)

	app := fiber.New(fiber.Config{
		ErrorHandler: httpx.ErrorHandler,
		AppName:      "agri-backend",
	})

	app.Use(metrics.Middleware())
	app.Use(logger.Middleware(log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + logger.RequestIDHeader,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/healthz", healthHandler(db))
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg, farmers))
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(farmers))
	api.Post("/auth/login", auth.LoginHandler(cfg, farmers))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(cfg, farmers))

	protected.Post("/auth/logout", auth.LogoutHandler(farmers))
	protected.Get("/auth/me", auth.MeHandler())
	protected.Put("/auth/me", auth.UpdateMeHandler(farmers))
	protected.Patch("/auth/me", auth.UpdateMeHandler(farmers))
	protected.Delete("/auth/me", auth.DeleteMeHandler(farmers))

	// Crops
	protected.Get("/crops", crop.ListCropsHandler(crops))
	protected.Post("/crops", crop.CreateCropHandler(crops, rec))
	protected.Get("/crops/options", crop.CropOptionsHandler(crops))
	protected.Get("/crops/:id", crop.GetCropHandler(crops))
	protected.Put("/crops/:id", crop.UpdateCropHandler(crops, rec))
	protected.Patch("/crops/:id", crop.UpdateCropHandler(crops, rec))
	protected.Delete("/crops/:id", crop.DeleteCropHandler(crops, rec))

	// Harvests
	protected.Get("/harvests", harvest.ListHarvestsHandler(harvests))
	protected.Post("/harvests", harvest.CreateHarvestHandler(harvests, crops, rec))
	protected.Get("/harvests/:id", harvest.GetHarvestHandler(harvests))
	protected.Put("/harvests/:id", harvest.UpdateHarvestHandler(harvests, crops, rec))
	protected.Patch("/harvests/:id", harvest.UpdateHarvestHandler(harvests, crops, rec))
	protected.Delete("/harvests/:id", harvest.DeleteHarvestHandler(harvests, rec))

	// Expenses
	protected.Get("/expenses", expense.ListExpensesHandler(expenses))
	protected.Post("/expenses", expense.CreateExpenseHandler(expenses, crops, rec))
	protected.Get("/expenses/:id", expense.GetExpenseHandler(expenses))
	protected.Put("/expenses/:id", expense.UpdateExpenseHandler(expenses, crops, rec))
	protected.Patch("/expenses/:id", expense.UpdateExpenseHandler(expenses, crops, rec))
	protected.Delete("/expenses/:id", expense.DeleteExpenseHandler(expenses, rec))

	// Advisories
	protected.Get("/advisories", advisory.ListAdvisoriesHandler(advisories, cfg.Server.Location))
	protected.Post("/advisories", advisory.CreateAdvisoryHandler(advisories, rec))
	protected.Get("/advisories/:id", advisory.GetAdvisoryHandler(advisories))
	protected.Put("/advisories/:id", advisory.UpdateAdvisoryHandler(advisories, rec))
	protected.Patch("/advisories/:id", advisory.UpdateAdvisoryHandler(advisories, rec))
	protected.Delete("/advisories/:id", advisory.DeleteAdvisoryHandler(advisories, rec))
	protected.Patch("/advisories/:id/read", advisory.MarkHandler(advisories, rec, true))
	protected.Patch("/advisories/:id/unread", advisory.MarkHandler(advisories, rec, false))

	// Dashboard
	protected.Get("/dashboard/stats", dashboard.StatsHandler(dash))
	protected.Get("/dashboard/charts", dashboard.ChartsHandler(dash))

	// History and activity
	protected.Get("/history", history.TimelineHandler(hist))
	protected.Get("/history/export", history.ExportHandler(hist))
	protected.Get("/activity", audit.ListActivityHandler(audits))

	// Admin
	adminRoutes := protected.Group("/admin", auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/farmers", admin.ListFarmersHandler(farmers))
	adminRoutes.Put("/farmers/:id/status", admin.UpdateFarmerStatusHandler(farmers))
	adminRoutes.Post("/farmers/:id/advisories", admin.CreateFarmerAdvisoryHandler(farmers, advisories, rec))

	return app
}

// GET /healthz
func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(c.UserContext()); err != nil {
			logger.FromCtx(c).Error("database ping failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
