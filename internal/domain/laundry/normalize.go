// Package laundry contiene la lógica pura de conciliación de guías de lavandería:
// normalización de prendas, validación de devoluciones y cálculo de estado.
// No realiza I/O.
package laundry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
)

// NormalizeGuideNumber recorta, normaliza a NFC y pasa a mayúsculas el número de guía.
// Devuelve "" si queda vacío.
func NormalizeGuideNumber(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return cases.Upper(language.Und).String(s)
}

// NormalizeGarmentType recorta, colapsa espacios internos y normaliza a NFC.
// Conserva mayúsculas/minúsculas para mostrar.
func NormalizeGarmentType(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// garmentKey es la clave de comparación: "Polo", "POLO" y " polo " coinciden.
func garmentKey(s string) string {
	return cases.Fold().String(NormalizeGarmentType(s))
}

// MergeItems descarta líneas con prenda vacía o cantidad <= 0 y suma las
// repetidas, preservando el orden de primera aparición.
func MergeItems(items []entity.GuideItem) []entity.GuideItem {
	out := make([]entity.GuideItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		name := NormalizeGarmentType(it.GarmentType)
		if name == "" || it.Quantity <= 0 {
			continue
		}
		key := garmentKey(name)
		if i, ok := index[key]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, entity.GuideItem{GarmentType: name, Quantity: it.Quantity})
	}
	return out
}

// FindGarment busca en la guía el tipo de prenda equivalente a name y devuelve su nombre canónico.
func FindGarment(g *entity.Guide, name string) (string, bool) {
	key := garmentKey(name)
	for _, it := range g.Items {
		if garmentKey(it.GarmentType) == key {
			return it.GarmentType, true
		}
	}
	return "", false
}
