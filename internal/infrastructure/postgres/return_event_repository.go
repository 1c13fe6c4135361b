package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

var _ repository.ReturnEventRepository = (*ReturnEventRepo)(nil)

// ReturnEventRepo implementación de ReturnEventRepository sobre PostgreSQL (usable con pool o tx).
type ReturnEventRepo struct {
	q Querier
}

// NewReturnEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnEventRepository(q Querier) *ReturnEventRepo {
	return &ReturnEventRepo{q: q}
}

// Create persiste una devolución en una sola fila (las prendas van en JSONB).
func (r *ReturnEventRepo) Create(ctx context.Context, event *entity.ReturnEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	items, err := encodeItems(event.Items)
	if err != nil {
		return fmt.Errorf("codificar prendas: %w", err)
	}
	query := `
		INSERT INTO laundry_returns (id, guide_number, items, observation, system_observation, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.q.Exec(ctx, query,
		event.ID, event.GuideNumber, items, event.Observation,
		event.SystemObservation, event.Status, event.OccurredAt,
	)
	if err != nil {
		return wrap("insert laundry return", err)
	}
	return nil
}

// ListByGuide lista las devoluciones de una guía en orden de ocurrencia.
func (r *ReturnEventRepo) ListByGuide(ctx context.Context, guideNumber string) ([]*entity.ReturnEvent, error) {
	query := `
		SELECT id, guide_number, items, observation, system_observation, status, occurred_at
		FROM laundry_returns WHERE guide_number = $1
		ORDER BY occurred_at, id`
	rows, err := r.q.Query(ctx, query, guideNumber)
	if err != nil {
		return nil, wrap("list laundry returns", err)
	}
	defer rows.Close()
	var list []*entity.ReturnEvent
	for rows.Next() {
		var (
			ev  entity.ReturnEvent
			raw []byte
		)
		if err := rows.Scan(&ev.ID, &ev.GuideNumber, &raw, &ev.Observation,
			&ev.SystemObservation, &ev.Status, &ev.OccurredAt); err != nil {
			return nil, wrap("scan laundry return", err)
		}
		if ev.Items, err = decodeItems(raw); err != nil {
			return nil, fmt.Errorf("decodificar prendas de la devolución %s: %w", ev.ID, err)
		}
		list = append(list, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list laundry returns", err)
	}
	return list, nil
}

// CountByGuide cuenta las devoluciones de una guía.
func (r *ReturnEventRepo) CountByGuide(ctx context.Context, guideNumber string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM laundry_returns WHERE guide_number = $1`, guideNumber).Scan(&n)
	if err != nil {
		return 0, wrap("count laundry returns", err)
	}
	return n, nil
}
