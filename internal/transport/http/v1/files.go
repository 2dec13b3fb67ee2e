package v1

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/internal/service"
)

const defaultRelayListLimit = 50

// RelayFile copies a connector file into object storage.
// POST /v1/files/relay
func (h *Handler) RelayFile(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.UploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := h.service.RelayFile(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrRelayBlocked) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		}
		log.Printf("ERROR: relay failed: user=%s file=%s: %v", req.UserID, req.FileID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// ListRelays lists relay ledger rows, newest first.
// GET /v1/files/relays?user_id=&limit=
func (h *Handler) ListRelays(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultRelayListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}

	records, err := h.service.ListRelays(ctx, c.QueryParam("user_id"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if records == nil {
		records = []domain.RelayRecord{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"relays": records,
	})
}

// GetRelay gets one relay ledger row.
// GET /v1/files/relays/:relay_id
func (h *Handler) GetRelay(c echo.Context) error {
	ctx := c.Request().Context()
	relayID := c.Param("relay_id")

	record, err := h.service.GetRelay(ctx, relayID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "relay not found"})
	}

	return c.JSON(http.StatusOK, record)
}
