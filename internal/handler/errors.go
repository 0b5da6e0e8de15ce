package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/builder"
	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/storage"
)

// requestTimeout bounds every store call made on behalf of a request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	target error
	apiError
}{
	{builder.ErrNoBoxSelected, apiError{http.StatusBadRequest, "no_box_selected"}},
	{builder.ErrCapacityExceeded, apiError{http.StatusConflict, "box_full"}},
	{builder.ErrItemUnavailable, apiError{http.StatusConflict, "item_unavailable"}},
	{builder.ErrSlotResolution, apiError{http.StatusInternalServerError, "slot_resolution_failure"}},
	{builder.ErrInvalidStatus, apiError{http.StatusBadRequest, "invalid_status"}},
	{builder.ErrSessionNotFound, apiError{http.StatusNotFound, "session_not_found"}},
	{layout.ErrTemplateNotFound, apiError{http.StatusNotFound, "template_not_found"}},
	{repository.ErrNotFound, apiError{http.StatusNotFound, "not_found"}},
	{repository.ErrConflict, apiError{http.StatusConflict, "conflict"}},
	{repository.ErrForbidden, apiError{http.StatusForbidden, "forbidden"}},
	{repository.ErrUnavailable, apiError{http.StatusServiceUnavailable, "store_unavailable"}},
	{context.DeadlineExceeded, apiError{http.StatusServiceUnavailable, "store_unavailable"}},
	{storage.ErrTooLarge, apiError{http.StatusRequestEntityTooLarge, "too_large"}},
}

// classify maps err onto a status and stable error code.
func classify(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return e.apiError
		}
	}
	return apiError{http.StatusInternalServerError, "internal"}
}

// fail writes err as {"error": code, "message": text}. Server-side failures
// are logged once, with keyvals appended to the line; their message is not
// echoed for unknown errors.
func fail(c echo.Context, logger *log.Logger, err error, keyvals ...any) error {
	ae := classify(err)
	msg := err.Error()
	if ae.status >= 500 {
		kv := append([]any{"route", c.Path(), "code", ae.code, "err", err}, keyvals...)
		logger.Error("request failed", kv...)
		if ae.code == "internal" {
			msg = "internal error"
		}
	}
	return c.JSON(ae.status, echo.Map{"error": ae.code, "message": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "message": msg})
}
