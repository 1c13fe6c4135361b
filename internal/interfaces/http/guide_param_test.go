package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuideParam_SobreviveALaPeticion(t *testing.T) {
	app := fiber.New()
	var captured []string
	app.Get("/g/:guide_number", func(c *fiber.Ctx) error {
		number, ok := guideParam(c)
		if !ok {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		captured = append(captured, number)
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, path := range []string{"/g/AAAA-1111", "/g/BBBB-2222", "/g/G%201"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	// El buffer de la primera petición ya fue reutilizado por las siguientes
	assert.Equal(t, []string{"AAAA-1111", "BBBB-2222", "G 1"}, captured)
}

func TestGuideParam_Vacio(t *testing.T) {
	app := fiber.New()
	app.Get("/g/:guide_number", func(c *fiber.Ctx) error {
		if _, ok := guideParam(c); !ok {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/g/%20%20", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
