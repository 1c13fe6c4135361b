package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/lavanderia-api/docs"
	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/internal/infrastructure/cache"
	"github.com/jhoicas/lavanderia-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/lavanderia-api/internal/infrastructure/pdf"
	"github.com/jhoicas/lavanderia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/lavanderia-api/internal/infrastructure/rabbit"
	httpRouter "github.com/jhoicas/lavanderia-api/internal/interfaces/http"
	"github.com/jhoicas/lavanderia-api/pkg/config"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// @title        Lavandería API
// @version      1.0
// @description  Conciliación de envíos y devoluciones de prendas a lavandería.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner    applaundry.TxRunner
		healthCheck func(context.Context) error
	)
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		txRunner = memory.NewStore()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("aplicar esquema")
			}
		}
		txRunner = postgres.NewTxRunner(pool)
		healthCheck = pool.Ping
	}

	// Caché de snapshots (opcional)
	var statusCache applaundry.StatusCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, reportes sin caché")
		} else {
			defer client.Close()
			statusCache = cache.NewStatusCache(client, cfg.Redis.TTL)
		}
	}

	// Eventos (opcional)
	var publisher applaundry.EventPublisher
	if cfg.Rabbit.URL != "" {
		pub, conn, err := rabbit.Dial(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.App.Name)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ no disponible, eventos deshabilitados")
		} else {
			defer conn.Close()
			defer pub.Close()
			publisher = pub
		}
	}

	svc := applaundry.NewReconciliationService(txRunner, statusCache, publisher, log.Component("laundry"))
	pdfUC := applaundry.NewPDFUseCase(svc, infrapdf.NewMarotoGuidePDF(cfg.App.Name))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Lavandería API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Reconciliation: svc,
		GuidePDF:       pdfUC,
		Auth:           httpRouter.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer},
		Logger:         log.Component("http"),
		ServiceName:    cfg.App.Name,
		HealthCheck:    healthCheck,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
