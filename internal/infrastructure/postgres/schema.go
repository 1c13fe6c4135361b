package postgres

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema crea las tablas de guías y devoluciones si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return wrap("aplicar esquema", err)
	}
	return nil
}

// Schema devuelve el DDL embebido (cmd/migrate lo imprime con -print).
func Schema() string {
	return schemaSQL
}
