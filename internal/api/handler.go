package api

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
)

var validate = validator.New()

type Lookuper interface {
	Lookup(ctx context.Context, q query.Query) (*query.Result, error)
}

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type TidesResponse struct {
	APIResponse
	*query.Result
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewTidesResponse(result *query.Result) *TidesResponse {
	return &TidesResponse{
		APIResponse: APIResponse{ResponseType: "tides"},
		Result:      result,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

type tidesQuery struct {
	Q string `validate:"required,max=200"`
}

// NewApp builds the HTTP surface. Lookups made here are not recorded in any
// user's history.
func NewApp(resolver Lookuper, queryTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "marebot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          queryTimeout + 5*time.Second,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/tides", func(c *fiber.Ctx) error {
		req := tidesQuery{Q: c.Query("q")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
		}

		q, err := query.Parse(req.Q)
		if err != nil {
			return lookupError(err)
		}
		if q.Kind == query.KindGreeting {
			return fiber.NewError(fiber.StatusBadRequest, "send a place name or coordinates")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), queryTimeout)
		defer cancel()

		result, err := resolver.Lookup(ctx, q)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(NewTidesResponse(result))
	})

	return app
}

func lookupError(err error) error {
	var (
		notFound     *models.NotFoundError
		invalidInput *models.InvalidInputError
		providerErr  *models.ProviderError
		malformed    *models.MalformedResponseError
	)

	switch {
	case errors.As(err, &notFound):
		return fiber.NewError(fiber.StatusNotFound, "location not found")
	case errors.As(err, &invalidInput):
		return fiber.NewError(fiber.StatusBadRequest, invalidInput.Message)
	case errors.As(err, &providerErr):
		return fiber.NewError(fiber.StatusBadGateway, providerErr.Provider+": "+providerErr.Message)
	case errors.As(err, &malformed):
		return fiber.NewError(fiber.StatusBadGateway, malformed.Provider+": "+malformed.Message)
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "lookup timed out")
	}

	log.Error().Err(err).Msg("Unexpected lookup error")
	return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	c.Set("Access-Control-Allow-Origin", "*")
	return c.Status(code).JSON(NewErrorResponse(message))
}
