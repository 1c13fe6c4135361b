package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

var _ repository.GuideRepository = (*GuideRepo)(nil)

// itemJSON formato de las líneas en las columnas JSONB.
type itemJSON struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func encodeItems(items []entity.GuideItem) ([]byte, error) {
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON{Name: it.GarmentType, Qty: it.Quantity})
	}
	return json.Marshal(out)
}

func decodeItems(raw []byte) ([]entity.GuideItem, error) {
	var in []itemJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make([]entity.GuideItem, 0, len(in))
	for _, it := range in {
		out = append(out, entity.GuideItem{GarmentType: it.Name, Quantity: it.Qty})
	}
	return out, nil
}

// GuideRepo implementación de GuideRepository sobre PostgreSQL (usable con pool o tx).
type GuideRepo struct {
	q Querier
}

// NewGuideRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGuideRepository(q Querier) *GuideRepo {
	return &GuideRepo{q: q}
}

const guideColumns = `guide_number, items, weight, created_at`

// Create inserta la guía. Una violación de la clave primaria se traduce a domain.ErrDuplicateGuide.
func (r *GuideRepo) Create(ctx context.Context, guide *entity.Guide) error {
	items, err := encodeItems(guide.Items)
	if err != nil {
		return fmt.Errorf("codificar prendas: %w", err)
	}
	query := `
		INSERT INTO laundry_guides (` + guideColumns + `)
		VALUES ($1, $2, $3, $4)`
	_, err = r.q.Exec(ctx, query, guide.GuideNumber, items, guide.Weight, guide.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateGuide
		}
		return wrap("insert laundry guide", err)
	}
	return nil
}

// GetByNumber obtiene una guía por número. (nil, nil) si no existe.
func (r *GuideRepo) GetByNumber(ctx context.Context, guideNumber string) (*entity.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM laundry_guides WHERE guide_number = $1`
	return r.getOne(ctx, query, guideNumber, "get laundry guide")
}

// GetForUpdate obtiene la guía y bloquea su fila (SELECT FOR UPDATE) hasta el fin de la transacción.
// Las devoluciones concurrentes de la misma guía esperan aquí.
func (r *GuideRepo) GetForUpdate(ctx context.Context, guideNumber string) (*entity.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM laundry_guides WHERE guide_number = $1 FOR UPDATE`
	return r.getOne(ctx, query, guideNumber, "get laundry guide for update")
}

func (r *GuideRepo) getOne(ctx context.Context, query, guideNumber, op string) (*entity.Guide, error) {
	g, err := scanGuide(r.q.QueryRow(ctx, query, guideNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return g, nil
}

// List lista guías por substring del número y rango de fechas [From, To), más recientes primero.
func (r *GuideRepo) List(ctx context.Context, filter repository.GuideFilter) ([]*entity.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM laundry_guides WHERE 1=1`
	var args []any
	pos := 1
	if filter.GuideNumberContains != "" {
		query += fmt.Sprintf(" AND strpos(guide_number, $%d) > 0", pos)
		args = append(args, filter.GuideNumberContains)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at < $%d", pos)
		args = append(args, *filter.To)
	}
	query += " ORDER BY created_at DESC, guide_number"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list laundry guides", err)
	}
	defer rows.Close()
	var list []*entity.Guide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, wrap("scan laundry guide", err)
		}
		list = append(list, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list laundry guides", err)
	}
	return list, nil
}

func scanGuide(row pgx.Row) (*entity.Guide, error) {
	var (
		g   entity.Guide
		raw []byte
	)
	if err := row.Scan(&g.GuideNumber, &raw, &g.Weight, &g.CreatedAt); err != nil {
		return nil, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decodificar prendas de %s: %w", g.GuideNumber, err)
	}
	g.Items = items
	return &g, nil
}
