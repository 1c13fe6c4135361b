package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// ReportHandler expone el reporte de guías y las estadísticas del período (protegido).
type ReportHandler struct {
	svc      *applaundry.ReconciliationService
	validate *validator.Validate
	log      *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *applaundry.ReconciliationService, validate *validator.Validate, log *logger.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, validate: validate, log: log}
}

// Laundry godoc
// @Summary      Reporte de guías de lavandería
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        guide_number  query  string  false  "Filtro por número de guía (contiene)"
// @Param        month         query  int     false  "Mes 1-12"
// @Param        year          query  int     false  "Año"
// @Success      200  {array}   dto.GuideReportRow
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/laundry [get]
func (h *ReportHandler) Laundry(c *fiber.Ctx) error {
	var f dto.LaundryReportFilter
	if err := c.QueryParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := h.validate.Struct(f); err != nil {
		return validationError(c, err)
	}
	rows, err := h.svc.Report(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}

// Stats godoc
// @Summary      Estadísticas de lavandería del período
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        month  query  int  false  "Mes 1-12"
// @Param        year   query  int  false  "Año"
// @Success      200  {object}  dto.LaundryStatsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stats [get]
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	f := dto.LaundryReportFilter{Month: c.QueryInt("month", 0), Year: c.QueryInt("year", 0)}
	if err := h.validate.Struct(f); err != nil {
		return validationError(c, err)
	}
	out, err := h.svc.Stats(c.Context(), f.Month, f.Year)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
