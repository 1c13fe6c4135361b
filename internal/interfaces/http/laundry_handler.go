package http

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// LaundryHandler maneja envíos, devoluciones, estado y acta PDF de guías (protegido).
type LaundryHandler struct {
	svc      *applaundry.ReconciliationService
	pdf      *applaundry.PDFUseCase
	validate *validator.Validate
	log      *logger.Logger
}

// NewLaundryHandler construye el handler. pdf puede ser nil si no hay generador configurado.
func NewLaundryHandler(svc *applaundry.ReconciliationService, pdf *applaundry.PDFUseCase, validate *validator.Validate, log *logger.Logger) *LaundryHandler {
	return &LaundryHandler{svc: svc, pdf: pdf, validate: validate, log: log}
}

// Ship godoc
// @Summary      Registrar envío a lavandería
// @Tags         laundry
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ShipRequest  true  "Guía y prendas enviadas"
// @Success      201   {object}  dto.ShipResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/laundry [post]
func (h *LaundryHandler) Ship(c *fiber.Ctx) error {
	var in dto.ShipRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.svc.Ship(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Return godoc
// @Summary      Registrar devolución parcial
// @Tags         laundry
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "Prendas devueltas"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/laundry/return [post]
func (h *LaundryHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.svc.ReturnItems(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Estado de una guía
// @Tags         laundry
// @Security     Bearer
// @Produce      json
// @Param        guide_number  path  string  true  "Número de guía"
// @Success      200  {object}  dto.GuideStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/laundry/{guide_number}/status [get]
func (h *LaundryHandler) Status(c *fiber.Ctx) error {
	number, ok := guideParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "guide_number requerido"})
	}
	out, err := h.svc.Status(c.Context(), number)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Acta PDF de una guía
// @Tags         laundry
// @Security     Bearer
// @Produce      application/pdf
// @Param        guide_number  path  string  true  "Número de guía"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/laundry/{guide_number}/pdf [get]
func (h *LaundryHandler) PDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "generación de PDF no configurada"})
	}
	number, ok := guideParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "guide_number requerido"})
	}
	pdfBytes, filename, err := h.pdf.DownloadGuidePDF(c.Context(), number)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// guideParam lee :guide_number ya decodificado. c.Params apunta al buffer de fasthttp,
// que se reutiliza al terminar la petición: se copia.
func guideParam(c *fiber.Ctx) (string, bool) {
	number, err := url.PathUnescape(utils.CopyString(c.Params("guide_number")))
	if err != nil || strings.TrimSpace(number) == "" {
		return "", false
	}
	return number, true
}
