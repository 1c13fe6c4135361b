package repository

import (
	"context"
	"time"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
)

// GuideFilter filtros para el listado de guías (reportes).
type GuideFilter struct {
	GuideNumberContains string
	From                *time.Time
	To                  *time.Time // exclusivo
}

// GuideRepository define el puerto de persistencia para guías de lavandería.
// Las guías se insertan una sola vez: no hay Update ni Delete.
type GuideRepository interface {
	// Create persiste la guía. Retorna domain.ErrDuplicateGuide si el número ya existe.
	Create(ctx context.Context, guide *entity.Guide) error
	// GetByNumber devuelve (nil, nil) si no existe.
	GetByNumber(ctx context.Context, guideNumber string) (*entity.Guide, error)
	// GetForUpdate obtiene la guía y bloquea su historial de devoluciones hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, guideNumber string) (*entity.Guide, error)
	// List devuelve las guías más recientes primero.
	List(ctx context.Context, filter GuideFilter) ([]*entity.Guide, error)
}
