package entity

import "time"

// ReturnEvent es una devolución parcial registrada contra una guía.
// Los eventos solo se agregan; nunca se modifican ni se eliminan.
type ReturnEvent struct {
	ID                string
	GuideNumber       string
	Items             []GuideItem
	Observation       string // nota del usuario
	SystemObservation string // faltantes calculados al momento del registro
	Status            string // estado resultante tras aplicar el evento
	OccurredAt        time.Time
}
