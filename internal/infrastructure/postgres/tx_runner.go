package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

var _ applaundry.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La serialización por guía la da el SELECT FOR UPDATE de GuideRepo.GetForUpdate.
func (r *TxRunner) Run(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error {
	return r.run(ctx, pgx.TxOptions{}, fn)
}

// ReadOnly inicia una transacción REPEATABLE READ de solo lectura: guía y devoluciones
// se leen del mismo snapshot.
func (r *TxRunner) ReadOnly(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewGuideRepository(tx), NewReturnEventRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}
