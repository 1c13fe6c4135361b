package laundry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// postCommitTimeout acota la escritura en caché y la publicación posteriores al commit.
const postCommitTimeout = 2 * time.Second

// ReconciliationService es el único punto de mutación de guías y devoluciones.
// Orquesta Ledger, Accumulator y Resolve; los errores de dominio se propagan sin cambiar su tipo.
type ReconciliationService struct {
	txRunner  TxRunner
	ledger    *Ledger
	acc       *Accumulator
	cache     StatusCache    // opcional
	publisher EventPublisher // opcional
	log       *logger.Logger
	now       func() time.Time
}

// NewReconciliationService construye el servicio. cache, publisher y log pueden ser nil.
func NewReconciliationService(
	txRunner TxRunner,
	cache StatusCache,
	publisher EventPublisher,
	log *logger.Logger,
) *ReconciliationService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconciliationService{
		txRunner:  txRunner,
		ledger:    NewLedger(time.Now),
		acc:       NewAccumulator(time.Now),
		cache:     cache,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj del servicio (tests).
func (s *ReconciliationService) WithClock(now func() time.Time) *ReconciliationService {
	s.now = now
	s.ledger = NewLedger(now)
	s.acc = NewAccumulator(now)
	return s
}

// Ship registra un envío y devuelve su estado inicial (Pendiente, pendiente = enviado).
func (s *ReconciliationService) Ship(ctx context.Context, in dto.ShipRequest) (*dto.ShipResponse, error) {
	weight := decimal.Zero
	if in.Weight != nil {
		weight = *in.Weight
	}
	items := toGuideItems(in.Items)

	var guide *entity.Guide
	err := s.txRunner.Run(ctx, func(guides repository.GuideRepository, _ repository.ReturnEventRepository) error {
		g, err := s.ledger.CreateGuide(ctx, guides, in.GuideNumber, items, weight)
		if err != nil {
			return err
		}
		guide = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := domlaundry.Resolve(guide.Items, nil)
	s.afterCommit(ctx, guide.GuideNumber, summary, 0, nil, EventGuideShipped, guideShippedEvent{
		GuideNumber: guide.GuideNumber,
		Items:       toItemDTOs(guide.Items),
		Weight:      guide.Weight,
		CreatedAt:   guide.CreatedAt,
	})
	s.log.Info().
		Str("guide_number", guide.GuideNumber).
		Int("garment_types", len(guide.Items)).
		Msg("envío a lavandería registrado")

	return &dto.ShipResponse{
		GuideNumber: guide.GuideNumber,
		SentItems:   toItemDTOs(guide.Items),
		Status:      summary.Status,
		Pending:     summary.PendingMap(),
		Weight:      guide.Weight,
		CreatedAt:   guide.CreatedAt,
	}, nil
}

// ReturnItems registra una devolución parcial y devuelve el agregado actualizado.
// Es todo o nada: si alguna línea falla la validación no se registra ninguna.
func (s *ReconciliationService) ReturnItems(ctx context.Context, in dto.ReturnRequest) (*dto.ReturnResponse, error) {
	items := toGuideItems(in.Items)
	if !hasPositive(items) {
		return nil, domain.ErrEmptyReturn
	}

	var res *ReturnResult
	err := s.txRunner.Run(ctx, func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error {
		r, err := s.acc.RecordReturn(ctx, guides, returns, in.GuideNumber, items, in.Observation)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	number := res.Guide.GuideNumber
	s.afterCommit(ctx, number, res.Summary, len(res.Events), &res.Event.OccurredAt, EventReturnRecorded, returnRecordedEvent{
		GuideNumber: number,
		EventID:     res.Event.ID,
		Items:       toItemDTOs(res.Event.Items),
		Status:      res.Summary.Status,
		Observation: res.Summary.Observation,
		OccurredAt:  res.Event.OccurredAt,
	})
	s.log.Info().
		Str("guide_number", number).
		Str("status", res.Summary.Status).
		Str("event_id", res.Event.ID).
		Msg("devolución de lavandería registrada")

	return &dto.ReturnResponse{
		GuideNumber: number,
		Status:      res.Summary.Status,
		Observation: res.Summary.Observation,
		Pending:     res.Summary.PendingMap(),
	}, nil
}

// Status recalcula el estado de la guía a partir de lo enviado y de todas sus devoluciones.
func (s *ReconciliationService) Status(ctx context.Context, guideNumber string) (*dto.GuideStatusResponse, error) {
	number := domlaundry.NormalizeGuideNumber(guideNumber)
	if number == "" {
		return nil, domain.ErrNotFound
	}
	guide, events, err := s.load(ctx, number)
	if err != nil {
		return nil, err
	}
	summary := domlaundry.Resolve(guide.Items, domlaundry.ReturnedTotals(events))
	return toStatusResponse(guide.GuideNumber, summary, lastReturnAt(events)), nil
}

// load lee guía y devoluciones en una misma vista consistente.
func (s *ReconciliationService) load(ctx context.Context, number string) (*entity.Guide, []*entity.ReturnEvent, error) {
	var (
		guide  *entity.Guide
		events []*entity.ReturnEvent
	)
	err := s.txRunner.ReadOnly(ctx, func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error {
		g, err := s.ledger.GetGuide(ctx, guides, number)
		if err != nil {
			return err
		}
		evs, err := returns.ListByGuide(ctx, number)
		if err != nil {
			return err
		}
		guide, events = g, evs
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return guide, events, nil
}

// afterCommit actualiza el snapshot en caché y publica el evento. Fuera de la transacción:
// una falla aquí se registra en el log y no afecta al resultado.
func (s *ReconciliationService) afterCommit(
	ctx context.Context,
	number string,
	summary domlaundry.Summary,
	eventCount int,
	lastReturn *time.Time,
	routingKey string,
	payload any,
) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	var g errgroup.Group
	if s.cache != nil {
		g.Go(func() error {
			snap := &StatusSnapshot{
				GuideNumber:  number,
				EventCount:   eventCount,
				Status:       summary.Status,
				Observation:  summary.Observation,
				Lines:        summary.Lines,
				LastReturnAt: lastReturn,
				ComputedAt:   s.now(),
			}
			if err := s.cache.Set(ctx, snap); err != nil {
				s.log.Warn().Err(err).Str("guide_number", number).Msg("no se pudo actualizar el snapshot de estado")
				if err := s.cache.Delete(ctx, number); err != nil {
					s.log.Warn().Err(err).Str("guide_number", number).Msg("no se pudo invalidar el snapshot de estado")
				}
			}
			return nil
		})
	}
	if s.publisher != nil {
		g.Go(func() error {
			if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
				s.log.Warn().Err(err).Str("guide_number", number).Str("event", routingKey).Msg("no se pudo publicar el evento")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// guideShippedEvent cuerpo del evento laundry.guide.shipped.
type guideShippedEvent struct {
	GuideNumber string          `json:"guide_number"`
	Items       []dto.ItemDTO   `json:"items"`
	Weight      decimal.Decimal `json:"weight"`
	CreatedAt   time.Time       `json:"created_at"`
}

// returnRecordedEvent cuerpo del evento laundry.return.recorded.
type returnRecordedEvent struct {
	GuideNumber string        `json:"guide_number"`
	EventID     string        `json:"event_id"`
	Items       []dto.ItemDTO `json:"items"`
	Status      string        `json:"status"`
	Observation string        `json:"observation"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

func toGuideItems(in []dto.ItemDTO) []entity.GuideItem {
	out := make([]entity.GuideItem, 0, len(in))
	for _, it := range in {
		out = append(out, entity.GuideItem{GarmentType: it.Name, Quantity: it.Qty})
	}
	return out
}

func toItemDTOs(items []entity.GuideItem) []dto.ItemDTO {
	out := make([]dto.ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ItemDTO{Name: it.GarmentType, Qty: it.Quantity})
	}
	return out
}

func toStatusResponse(number string, summary domlaundry.Summary, last *time.Time) *dto.GuideStatusResponse {
	lines := make([]dto.StatusLineDTO, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, dto.StatusLineDTO{Name: l.GarmentType, Sent: l.Sent, Returned: l.Returned, Pending: l.Pending})
	}
	return &dto.GuideStatusResponse{
		GuideNumber:  number,
		Items:        lines,
		Status:       summary.Status,
		Observation:  summary.Observation,
		LastReturnAt: last,
	}
}

func hasPositive(items []entity.GuideItem) bool {
	for _, it := range items {
		if it.Quantity > 0 {
			return true
		}
	}
	return false
}

func lastReturnAt(events []*entity.ReturnEvent) *time.Time {
	var last *time.Time
	for _, ev := range events {
		if last == nil || ev.OccurredAt.After(*last) {
			t := ev.OccurredAt
			last = &t
		}
	}
	return last
}
