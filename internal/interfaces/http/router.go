package http

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Reconciliation *applaundry.ReconciliationService
	GuidePDF       *applaundry.PDFUseCase // opcional
	Auth           AuthConfig
	Logger         *logger.Logger
	ServiceName    string
	// HealthCheck verifica el almacenamiento; nil = siempre ok.
	HealthCheck func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	validate := validator.New()

	app.Get("/health", healthHandler(deps))

	api := app.Group("/api", AuthMiddleware(deps.Auth))

	laundryHandler := NewLaundryHandler(deps.Reconciliation, deps.GuidePDF, validate, log)
	laundry := api.Group("/laundry")
	laundry.Post("/", laundryHandler.Ship)
	laundry.Post("/return", laundryHandler.Return)
	laundry.Get("/:guide_number/status", laundryHandler.Status)
	laundry.Get("/:guide_number/pdf", laundryHandler.PDF)

	// Reportes y estadísticas: solo administración y supervisión
	reportHandler := NewReportHandler(deps.Reconciliation, validate, log)
	onlyReaders := RequireRole(RoleAdmin, RoleSupervisor)
	api.Get("/reports/laundry", onlyReaders, reportHandler.Laundry)
	api.Get("/stats", onlyReaders, reportHandler.Stats)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := deps.HealthCheck(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": deps.ServiceName, "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	}
}
