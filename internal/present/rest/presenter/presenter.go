package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/soscomida/soscomida/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("module", "rest"), slog.String("error", err.Error()))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "validation"})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("module", "rest"), slog.String("error", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: "validation"})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required", Kind: "unauthenticated"})
}

func InternalError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	slog.ErrorContext(ctx, "internal error",
		slog.String("module", "rest"),
		slog.String("error", err.Error()),
		slog.String("traceID", trace.SpanFromContext(ctx).SpanContext().TraceID().String()),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// Error picks the status for a domain error; anything unrecognized is a 500.
func Error(c echo.Context, err error) error {
	status, kind := classify(err)
	if status == http.StatusInternalServerError {
		return InternalError(c, err)
	}
	slog.DebugContext(c.Request().Context(), "request refused",
		slog.String("module", "rest"),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	return c.JSON(status, errorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden, "permission"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrState):
		return http.StatusUnprocessableEntity, "state"
	}
	return http.StatusInternalServerError, ""
}
