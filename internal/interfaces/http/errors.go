package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/pkg/logger"
)

// writeError traduce un error del servicio a status HTTP y dto.ErrorResponse.
// Los 5xx se registran en el log; el mensaje interno no se expone.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		over    *domain.OverReturnError
		unknown *domain.UnknownItemError
	)
	switch {
	case errors.As(err, &over):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "OVER_RETURN",
			Message: over.Error(),
			Details: map[string]any{
				"garment_type":     over.GarmentType,
				"sent":             over.Sent,
				"already_returned": over.AlreadyReturned,
				"attempted":        over.Attempted,
			},
		})
	case errors.As(err, &unknown):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "UNKNOWN_ITEM",
			Message: unknown.Error(),
			Details: map[string]any{"garment_type": unknown.GarmentType},
		})
	case errors.Is(err, domain.ErrInvalidShipment):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SHIPMENT", Message: err.Error()})
	case errors.Is(err, domain.ErrEmptyReturn):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EMPTY_RETURN", Message: "la devolución no tiene cantidades positivas"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "guía no encontrada"})
	case errors.Is(err, domain.ErrDuplicateGuide):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_GUIDE", Message: "el número de guía ya existe"})
	case errors.Is(err, domain.ErrUnknownItem):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "UNKNOWN_ITEM", Message: err.Error()})
	case errors.Is(err, domain.ErrOverReturn):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "OVER_RETURN", Message: err.Error()})
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("path", c.Path()).Msg("almacenamiento no disponible")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "almacenamiento no disponible, intente más tarde"})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

// validationError responde 400 VALIDATION con el tag fallido por campo.
func validationError(c *fiber.Ctx, err error) error {
	details := make(map[string]any)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Namespace()] = fe.Tag()
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
