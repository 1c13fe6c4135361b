package laundry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	"github.com/jhoicas/lavanderia-api/internal/domain/laundry"
)

var sentPoloPantalon = []entity.GuideItem{
	{GarmentType: "Polo", Quantity: 3},
	{GarmentType: "Pantalon", Quantity: 2},
}

func TestResolve_Estados(t *testing.T) {
	cases := []struct {
		name        string
		returned    map[string]int
		status      string
		pending     map[string]int
		observation string
	}{
		{
			name:        "sin devoluciones",
			returned:    nil,
			status:      entity.GuideStatusPending,
			pending:     map[string]int{"Polo": 3, "Pantalon": 2},
			observation: "Faltan: 3 Polo, 2 Pantalon",
		},
		{
			name:        "parcial",
			returned:    map[string]int{"Polo": 3},
			status:      entity.GuideStatusIncomplete,
			pending:     map[string]int{"Polo": 0, "Pantalon": 2},
			observation: "Faltan: 2 Pantalon",
		},
		{
			name:        "parcial en ambas prendas",
			returned:    map[string]int{"Polo": 1, "Pantalon": 1},
			status:      entity.GuideStatusIncomplete,
			pending:     map[string]int{"Polo": 2, "Pantalon": 1},
			observation: "Faltan: 2 Polo, 1 Pantalon",
		},
		{
			name:        "completa",
			returned:    map[string]int{"Polo": 3, "Pantalon": 2},
			status:      entity.GuideStatusComplete,
			pending:     map[string]int{"Polo": 0, "Pantalon": 0},
			observation: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := laundry.Resolve(sentPoloPantalon, tc.returned)
			assert.Equal(t, tc.status, s.Status)
			assert.Equal(t, tc.pending, s.PendingMap())
			assert.Equal(t, tc.observation, s.Observation)
		})
	}
}

func TestResolve_Determinista(t *testing.T) {
	returned := map[string]int{"Polo": 2}
	assert.Equal(t, laundry.Resolve(sentPoloPantalon, returned), laundry.Resolve(sentPoloPantalon, returned))
}

func TestResolve_ConservaOrdenDeGuia(t *testing.T) {
	s := laundry.Resolve(sentPoloPantalon, map[string]int{"Pantalon": 1})
	assert.Equal(t, []laundry.Line{
		{GarmentType: "Polo", Sent: 3, Returned: 0, Pending: 3},
		{GarmentType: "Pantalon", Sent: 2, Returned: 1, Pending: 1},
	}, s.Lines)
}

func TestPendingText_Ninguna(t *testing.T) {
	s := laundry.Resolve(sentPoloPantalon, map[string]int{"Polo": 3, "Pantalon": 2})
	assert.Equal(t, "Ninguna", s.PendingText())

	s = laundry.Resolve(sentPoloPantalon, map[string]int{"Polo": 1})
	assert.Equal(t, "2 Polo, 2 Pantalon", s.PendingText())
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, "3 Polo, 2 Pantalon", laundry.FormatItems(sentPoloPantalon))
	assert.Equal(t, "", laundry.FormatItems(nil))
}
