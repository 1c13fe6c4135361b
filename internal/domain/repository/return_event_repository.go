package repository

import (
	"context"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
)

// ReturnEventRepository define el puerto de persistencia para devoluciones (solo inserción).
type ReturnEventRepository interface {
	Create(ctx context.Context, event *entity.ReturnEvent) error
	// ListByGuide devuelve los eventos de la guía en orden de ocurrencia.
	ListByGuide(ctx context.Context, guideNumber string) ([]*entity.ReturnEvent, error)
	// CountByGuide devuelve cuántos eventos tiene la guía.
	CountByGuide(ctx context.Context, guideNumber string) (int, error)
}
