// migrate aplica el esquema de guías y devoluciones de lavandería en PostgreSQL.
//
// Uso: go run ./cmd/migrate [-print]
// Con -print escribe el SQL en stdout sin conectarse a la base.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/lavanderia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/lavanderia-api/pkg/config"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

func main() {
	printOnly := flag.Bool("print", false, "imprime el esquema sin aplicarlo")
	flag.Parse()

	if *printOnly {
		fmt.Print(postgres.Schema())
		return
	}

	cfg, err := config.LoadTooling()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}
	log.Info().Str("db", cfg.DB.DBName).Msg("esquema de lavandería aplicado")
}
