package laundry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

// maxWeight cota de laundry_guides.weight NUMERIC(10,2), en kg.
var maxWeight = decimal.New(1, 8)

// Ledger mantiene el registro inmutable de lo enviado bajo cada guía.
type Ledger struct {
	now func() time.Time
}

// NewLedger construye el ledger con el reloj indicado (nil = time.Now).
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// CreateGuide normaliza el número de guía, descarta líneas vacías o en cero y persiste la guía.
//
// Retorna:
//   - domain.ErrInvalidShipment si el número queda vacío o no quedan prendas con cantidad > 0.
//   - domain.ErrInvalidInput    si el peso es negativo o no cabe en NUMERIC(10,2).
//   - domain.ErrDuplicateGuide  si el número ya existe.
func (l *Ledger) CreateGuide(
	ctx context.Context,
	guides repository.GuideRepository,
	guideNumber string,
	items []entity.GuideItem,
	weight decimal.Decimal,
) (*entity.Guide, error) {
	number := domlaundry.NormalizeGuideNumber(guideNumber)
	if number == "" {
		return nil, fmt.Errorf("%w: número de guía vacío", domain.ErrInvalidShipment)
	}
	kept := domlaundry.MergeItems(items)
	if len(kept) == 0 {
		return nil, domain.ErrInvalidShipment
	}
	if weight.IsNegative() {
		return nil, fmt.Errorf("%w: peso negativo", domain.ErrInvalidInput)
	}
	weight = weight.Round(2)
	if weight.GreaterThanOrEqual(maxWeight) {
		return nil, fmt.Errorf("%w: peso fuera de rango (máximo 99999999.99)", domain.ErrInvalidInput)
	}

	existing, err := guides.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateGuide
	}

	guide := &entity.Guide{
		GuideNumber: number,
		Items:       kept,
		Weight:      weight,
		CreatedAt:   l.now(),
	}
	if err := guides.Create(ctx, guide); err != nil {
		return nil, err
	}
	return guide, nil
}

// GetGuide obtiene una guía por número (normalizado). domain.ErrNotFound si no existe.
func (l *Ledger) GetGuide(ctx context.Context, guides repository.GuideRepository, guideNumber string) (*entity.Guide, error) {
	number := domlaundry.NormalizeGuideNumber(guideNumber)
	if number == "" {
		return nil, domain.ErrNotFound
	}
	guide, err := guides.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if guide == nil {
		return nil, domain.ErrNotFound
	}
	return guide, nil
}
