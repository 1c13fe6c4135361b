package laundry

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

// Report lista las guías (más recientes primero) con su estado y pendientes.
// El estado sale del snapshot en caché solo si está al día con las devoluciones almacenadas.
func (s *ReconciliationService) Report(ctx context.Context, f dto.LaundryReportFilter) ([]dto.GuideReportRow, error) {
	entries, err := s.entries(ctx, f.GuideNumber, f.Month, f.Year)
	if err != nil {
		return nil, err
	}
	rows := make([]dto.GuideReportRow, 0, len(entries))
	for _, e := range entries {
		summary := domlaundry.Summary{Lines: e.snap.Lines, Status: e.snap.Status, Observation: e.snap.Observation}
		rows = append(rows, dto.GuideReportRow{
			GuideNumber:  e.guide.GuideNumber,
			Date:         e.guide.CreatedAt,
			ReturnDate:   e.snap.LastReturnAt,
			Status:       e.snap.Status,
			ItemsCount:   domlaundry.FormatItems(e.guide.Items),
			PendingItems: summary.PendingText(),
			Weight:       e.guide.Weight,
		})
	}
	return rows, nil
}

// Stats totaliza prendas enviadas por tipo y cuenta guías activas (no Completa) en el período.
func (s *ReconciliationService) Stats(ctx context.Context, month, year int) (*dto.LaundryStatsResponse, error) {
	entries, err := s.entries(ctx, "", month, year)
	if err != nil {
		return nil, err
	}
	out := &dto.LaundryStatsResponse{
		Month:         month,
		Year:          year,
		GuidesCount:   len(entries),
		SentByGarment: make(map[string]int),
	}
	for _, e := range entries {
		for _, it := range e.guide.Items {
			out.SentByGarment[it.GarmentType] += it.Quantity
			out.TotalSent += it.Quantity
		}
		if e.snap.Status != entity.GuideStatusComplete {
			out.ActiveCount++
		}
	}
	return out, nil
}

type reportEntry struct {
	guide *entity.Guide
	snap  *StatusSnapshot
}

// entries lista las guías del período y su estado dentro de una misma lectura consistente.
// Con año se consulta por rango; un mes sin año filtra ese mes en cualquier año.
func (s *ReconciliationService) entries(ctx context.Context, contains string, month, year int) ([]reportEntry, error) {
	filter := repository.GuideFilter{GuideNumberContains: domlaundry.NormalizeGuideNumber(contains)}
	if year > 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
		to := from.AddDate(1, 0, 0)
		if month > 0 {
			from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
			to = from.AddDate(0, 1, 0)
		}
		filter.From, filter.To = &from, &to
	}

	var (
		entries []reportEntry
		fresh   []*StatusSnapshot
	)
	err := s.txRunner.ReadOnly(ctx, func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error {
		entries, fresh = nil, nil
		list, err := guides.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, g := range list {
			if month > 0 && year == 0 && int(g.CreatedAt.Month()) != month {
				continue
			}
			count, err := returns.CountByGuide(ctx, g.GuideNumber)
			if err != nil {
				return err
			}
			if snap := s.cachedSnapshot(ctx, g.GuideNumber, count); snap != nil {
				entries = append(entries, reportEntry{guide: g, snap: snap})
				continue
			}
			events, err := returns.ListByGuide(ctx, g.GuideNumber)
			if err != nil {
				return err
			}
			snap := s.snapshotOf(g, events)
			entries = append(entries, reportEntry{guide: g, snap: snap})
			fresh = append(fresh, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, snap := range fresh {
			if err := s.cache.Set(ctx, snap); err != nil {
				s.log.Warn().Err(err).Str("guide_number", snap.GuideNumber).Msg("no se pudo guardar el snapshot de estado")
			}
		}
	}
	return entries, nil
}

// cachedSnapshot devuelve el snapshot en caché si corresponde a count devoluciones; nil si falta o está atrasado.
func (s *ReconciliationService) cachedSnapshot(ctx context.Context, number string, count int) *StatusSnapshot {
	if s.cache == nil {
		return nil
	}
	snap, err := s.cache.Get(ctx, number)
	if err != nil {
		s.log.Warn().Err(err).Str("guide_number", number).Msg("lectura de snapshot fallida, se recalcula")
		return nil
	}
	if snap == nil || !strings.EqualFold(snap.GuideNumber, number) || snap.EventCount != count {
		return nil
	}
	return snap
}

func (s *ReconciliationService) snapshotOf(g *entity.Guide, events []*entity.ReturnEvent) *StatusSnapshot {
	summary := domlaundry.Resolve(g.Items, domlaundry.ReturnedTotals(events))
	return &StatusSnapshot{
		GuideNumber:  g.GuideNumber,
		EventCount:   len(events),
		Status:       summary.Status,
		Observation:  summary.Observation,
		Lines:        summary.Lines,
		LastReturnAt: lastReturnAt(events),
		ComputedAt:   s.now(),
	}
}
