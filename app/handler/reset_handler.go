package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wardsync/internal/station"
	"wardsync/pkg/scheduleapi"

	"github.com/gin-gonic/gin"
)

// ResetHandler exposes the manual daily reset trigger. The UI re-confirms
// with the operator before calling this; force=true bypasses the
// once-per-day marker guard.
type ResetHandler struct {
	stations *station.Manager
}

// NewResetHandler creates the reset handler.
func NewResetHandler(stations *station.Manager) *ResetHandler {
	return &ResetHandler{stations: stations}
}

// Trigger runs the daily reset for a station and returns the full summary,
// including the skip case. A reset failure carries full diagnostic detail
// and is not retried automatically.
func (h *ResetHandler) Trigger(c *gin.Context) {
	stationID := c.Param("id")
	eng, ok := h.stations.Get(stationID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not selected"})
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))

	summary, err := eng.DailyReset.Execute(c.Request.Context(), force)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduleapi.ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error":      err.Error(),
			"station_id": stationID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"station_id": stationID,
		"summary":    summary,
	})
}
