package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de conciliación de una guía de lavandería.
const (
	GuideStatusPending    = "Pendiente"  // sin devoluciones registradas
	GuideStatusIncomplete = "Incompleta" // devoluciones parciales
	GuideStatusComplete   = "Completa"   // todas las prendas devueltas
)

// GuideItem es una línea (tipo de prenda, cantidad) de un envío o de una devolución.
type GuideItem struct {
	GarmentType string
	Quantity    int
}

// Guide representa un envío a lavandería identificado por su número de guía.
// Es inmutable después de su creación: no existe enmienda de lo enviado.
type Guide struct {
	GuideNumber string
	Items       []GuideItem
	Weight      decimal.Decimal // kg, informativo
	CreatedAt   time.Time
}

// SentQuantity devuelve la cantidad enviada de un tipo de prenda (ya normalizado) y si existe en la guía.
func (g *Guide) SentQuantity(garmentType string) (int, bool) {
	for _, it := range g.Items {
		if it.GarmentType == garmentType {
			return it.Quantity, true
		}
	}
	return 0, false
}
