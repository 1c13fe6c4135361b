package laundry

import (
	"fmt"
	"strings"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
)

// Line es el estado de conciliación de un tipo de prenda.
type Line struct {
	GarmentType string `json:"garment_type"`
	Sent        int    `json:"sent"`
	Returned    int    `json:"returned"`
	Pending     int    `json:"pending"`
}

// Summary es la proyección derivada de una guía: pendientes por prenda, estado y observación.
type Summary struct {
	Lines       []Line
	Status      string
	Observation string
}

// Resolve calcula pendientes, estado y observación a partir de lo enviado y lo devuelto.
// Es determinista y sin efectos: el estado se recalcula en cada lectura.
//
//	Pendiente  -> no hay nada devuelto
//	Completa   -> todas las prendas con pendiente 0
//	Incompleta -> en otro caso
func Resolve(sent []entity.GuideItem, returned map[string]int) Summary {
	lines := make([]Line, 0, len(sent))
	totalReturned := 0
	complete := true
	for _, it := range sent {
		r := returned[it.GarmentType]
		totalReturned += r
		p := it.Quantity - r
		if p != 0 {
			complete = false
		}
		lines = append(lines, Line{GarmentType: it.GarmentType, Sent: it.Quantity, Returned: r, Pending: p})
	}

	s := Summary{Lines: lines}
	switch {
	case totalReturned == 0:
		s.Status = entity.GuideStatusPending
	case complete:
		s.Status = entity.GuideStatusComplete
	default:
		s.Status = entity.GuideStatusIncomplete
	}
	if s.Status != entity.GuideStatusComplete {
		if pend := pendingList(lines); pend != "" {
			s.Observation = "Faltan: " + pend
		}
	}
	return s
}

// PendingMap devuelve {prenda -> pendiente}.
func (s Summary) PendingMap() map[string]int {
	m := make(map[string]int, len(s.Lines))
	for _, l := range s.Lines {
		m[l.GarmentType] = l.Pending
	}
	return m
}

// PendingText lista las prendas pendientes ("2 Pantalon, 1 Polo") o "Ninguna".
func (s Summary) PendingText() string {
	if pend := pendingList(s.Lines); pend != "" {
		return pend
	}
	return "Ninguna"
}

// FormatItems da formato "3 Polo, 2 Pantalon" a una lista de líneas.
func FormatItems(items []entity.GuideItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%d %s", it.Quantity, it.GarmentType))
	}
	return strings.Join(parts, ", ")
}

func pendingList(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Pending > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", l.Pending, l.GarmentType))
		}
	}
	return strings.Join(parts, ", ")
}
