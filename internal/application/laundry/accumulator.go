package laundry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

// Accumulator valida y registra devoluciones parciales contra una guía existente.
type Accumulator struct {
	now func() time.Time
}

// NewAccumulator construye el acumulador con el reloj indicado (nil = time.Now).
func NewAccumulator(now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{now: now}
}

// ReturnResult resultado de RecordReturn.
type ReturnResult struct {
	Guide   *entity.Guide
	Event   *entity.ReturnEvent
	Events  []*entity.ReturnEvent // historial completo, incluido Event
	Summary domlaundry.Summary
}

// RecordReturn bloquea la guía (GetForUpdate), valida contra el acumulado actual y agrega un evento.
// Debe ejecutarse dentro de TxRunner.Run: el chequeo y la inserción son atómicos respecto de
// otras devoluciones sobre la misma guía.
func (a *Accumulator) RecordReturn(
	ctx context.Context,
	guides repository.GuideRepository,
	returns repository.ReturnEventRepository,
	guideNumber string,
	items []entity.GuideItem,
	observation string,
) (*ReturnResult, error) {
	number := domlaundry.NormalizeGuideNumber(guideNumber)
	if number == "" {
		return nil, domain.ErrNotFound
	}

	// Bloquea la guía para serializar devoluciones concurrentes
	guide, err := guides.GetForUpdate(ctx, number)
	if err != nil {
		return nil, err
	}
	if guide == nil {
		return nil, domain.ErrNotFound
	}
	events, err := returns.ListByGuide(ctx, number)
	if err != nil {
		return nil, err
	}

	totals := domlaundry.ReturnedTotals(events)
	accepted, err := domlaundry.CheckReturn(guide, totals, items)
	if err != nil {
		return nil, err
	}
	for _, it := range accepted {
		totals[it.GarmentType] += it.Quantity
	}
	summary := domlaundry.Resolve(guide.Items, totals)

	ev := &entity.ReturnEvent{
		ID:                uuid.New().String(),
		GuideNumber:       number,
		Items:             accepted,
		Observation:       strings.TrimSpace(observation),
		SystemObservation: summary.Observation,
		Status:            summary.Status,
		OccurredAt:        a.now(),
	}
	if err := returns.Create(ctx, ev); err != nil {
		return nil, err
	}
	return &ReturnResult{
		Guide:   guide,
		Event:   ev,
		Events:  append(events, ev),
		Summary: summary,
	}, nil
}
