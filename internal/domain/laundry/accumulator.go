package laundry

import (
	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
)

// ReturnedTotals suma por tipo de prenda las cantidades de todos los eventos de devolución.
func ReturnedTotals(events []*entity.ReturnEvent) map[string]int {
	totals := make(map[string]int)
	for _, ev := range events {
		for _, it := range ev.Items {
			totals[it.GarmentType] += it.Quantity
		}
	}
	return totals
}

// CheckReturn valida una devolución contra la guía y el acumulado previo.
// Devuelve las líneas aceptadas con el nombre canónico de la guía.
//
// Reglas: cantidades <= 0 se ignoran; sin líneas positivas -> ErrEmptyReturn;
// prenda ajena a la guía -> *UnknownItemError; acumulado > enviado -> *OverReturnError.
// No recorta cantidades: el límite es estricto.
func CheckReturn(g *entity.Guide, returned map[string]int, items []entity.GuideItem) ([]entity.GuideItem, error) {
	positive := make([]entity.GuideItem, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			positive = append(positive, it)
		}
	}
	if len(positive) == 0 {
		return nil, domain.ErrEmptyReturn
	}

	for i, it := range positive {
		name, ok := FindGarment(g, it.GarmentType)
		if !ok {
			return nil, &domain.UnknownItemError{GuideNumber: g.GuideNumber, GarmentType: NormalizeGarmentType(it.GarmentType)}
		}
		positive[i].GarmentType = name
	}
	accepted := MergeItems(positive)

	for _, it := range accepted {
		sent, _ := g.SentQuantity(it.GarmentType)
		already := returned[it.GarmentType]
		if already+it.Quantity > sent {
			return nil, &domain.OverReturnError{
				GuideNumber:     g.GuideNumber,
				GarmentType:     it.GarmentType,
				Sent:            sent,
				AlreadyReturned: already,
				Attempted:       it.Quantity,
			}
		}
	}
	return accepted, nil
}
