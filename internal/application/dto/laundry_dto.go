package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemDTO línea (prenda, cantidad) tal como llega y sale por la API.
type ItemDTO struct {
	Name string `json:"name" validate:"max=100"`
	Qty  int    `json:"qty"`
}

// ShipRequest body para POST /api/laundry.
type ShipRequest struct {
	GuideNumber string           `json:"guide_number" validate:"required,max=64"`
	Items       []ItemDTO        `json:"items" validate:"dive"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
}

// ShipResponse resultado de registrar un envío.
type ShipResponse struct {
	GuideNumber string          `json:"guide_number"`
	SentItems   []ItemDTO       `json:"sent_items"`
	Status      string          `json:"status"`
	Pending     map[string]int  `json:"pending"`
	Weight      decimal.Decimal `json:"weight"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReturnRequest body para POST /api/laundry/return.
type ReturnRequest struct {
	GuideNumber string    `json:"guide_number" validate:"required,max=64"`
	Items       []ItemDTO `json:"items" validate:"dive"`
	Observation string    `json:"observation,omitempty" validate:"max=500"`
}

// ReturnResponse resultado de registrar una devolución.
type ReturnResponse struct {
	GuideNumber string         `json:"guide_number"`
	Status      string         `json:"status"`
	Observation string         `json:"observation"`
	Pending     map[string]int `json:"pending"`
}

// StatusLineDTO estado de una prenda dentro de la guía.
type StatusLineDTO struct {
	Name     string `json:"name"`
	Sent     int    `json:"sent"`
	Returned int    `json:"returned"`
	Pending  int    `json:"pending"`
}

// GuideStatusResponse respuesta de GET /api/laundry/:guide_number/status.
type GuideStatusResponse struct {
	GuideNumber  string          `json:"guide_number"`
	Items        []StatusLineDTO `json:"items"`
	Status       string          `json:"status"`
	Observation  string          `json:"observation"`
	LastReturnAt *time.Time      `json:"last_return_at,omitempty"`
}

// LaundryReportFilter filtros de GET /api/reports/laundry.
type LaundryReportFilter struct {
	GuideNumber string `query:"guide_number" validate:"max=64"`
	Month       int    `query:"month" validate:"min=0,max=12"`
	Year        int    `query:"year" validate:"min=0,max=9999"`
}

// GuideReportRow fila del reporte de lavandería.
type GuideReportRow struct {
	GuideNumber  string          `json:"guide_number"`
	Date         time.Time       `json:"date"`
	ReturnDate   *time.Time      `json:"return_date,omitempty"`
	Status       string          `json:"status"`
	ItemsCount   string          `json:"items_count"`
	PendingItems string          `json:"pending_items"`
	Weight       decimal.Decimal `json:"weight"`
}

// LaundryStatsResponse respuesta de GET /api/stats.
type LaundryStatsResponse struct {
	Month         int            `json:"month,omitempty"`
	Year          int            `json:"year,omitempty"`
	GuidesCount   int            `json:"guides_count"`
	ActiveCount   int            `json:"active_count"`
	TotalSent     int            `json:"total_sent"`
	SentByGarment map[string]int `json:"sent_by_garment"`
}
