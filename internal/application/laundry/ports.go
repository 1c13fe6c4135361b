package laundry

import (
	"context"
	"time"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Run hace Commit si fn no retorna error y Rollback en otro caso (incluida la cancelación de ctx).
// ReadOnly entrega una vista consistente: nunca expone una devolución a medio escribir.
type TxRunner interface {
	Run(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error
	ReadOnly(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error
}

// StatusSnapshot es el último estado calculado de una guía, para reportes.
// No es autoritativo: Status siempre recalcula y Report solo lo usa si EventCount
// coincide con las devoluciones almacenadas.
type StatusSnapshot struct {
	GuideNumber  string            `json:"guide_number"`
	EventCount   int               `json:"event_count"`
	Status       string            `json:"status"`
	Observation  string            `json:"observation"`
	Lines        []domlaundry.Line `json:"lines"`
	LastReturnAt *time.Time        `json:"last_return_at,omitempty"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// StatusCache guarda snapshots de estado. Get retorna (nil, nil) si no hay entrada.
// Set no reemplaza un snapshot con más eventos que el recibido.
type StatusCache interface {
	Get(ctx context.Context, guideNumber string) (*StatusSnapshot, error)
	Set(ctx context.Context, snap *StatusSnapshot) error
	Delete(ctx context.Context, guideNumber string) error
}

// Claves de ruteo de los eventos publicados.
const (
	EventGuideShipped   = "laundry.guide.shipped"
	EventReturnRecorded = "laundry.return.recorded"
)

// EventPublisher publica eventos de dominio después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// GuidePDFGenerator genera el acta PDF de una guía.
type GuidePDFGenerator interface {
	GenerateGuidePDF(ctx context.Context, guide *entity.Guide, summary domlaundry.Summary, events []*entity.ReturnEvent) ([]byte, error)
}
