package handler

import (
	"net/http"

	"wardsync/internal/station"
	"wardsync/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StationHandler exposes the station engine lifecycle: select, deselect,
// live presence and engine status.
type StationHandler struct {
	stations *station.Manager
}

// NewStationHandler creates the station handler.
func NewStationHandler(stations *station.Manager) *StationHandler {
	return &StationHandler{stations: stations}
}

// Select starts the engine for a station. Idempotent: selecting an already
// selected station returns 200 without side effects.
func (h *StationHandler) Select(c *gin.Context) {
	stationID := c.Param("id")
	if stationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station id required"})
		return
	}

	h.stations.Select(stationID)
	c.JSON(http.StatusOK, gin.H{"station_id": stationID, "selected": true})
}

// Deselect stops the engine and all of its timers.
func (h *StationHandler) Deselect(c *gin.Context) {
	stationID := c.Param("id")
	stopped := h.stations.Deselect(stationID)
	c.JSON(http.StatusOK, gin.H{"station_id": stationID, "stopped": stopped})
}

// Presence returns the most recent classified snapshot for a station.
func (h *StationHandler) Presence(c *gin.Context) {
	stationID := c.Param("id")
	eng, ok := h.stations.Get(stationID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not selected"})
		return
	}

	snap := eng.StatusSync.LastSnapshot()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"station_id": stationID, "snapshot": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"station_id": stationID, "snapshot": snap})
}

// Assignments returns the last auto-assignment cycle summary.
func (h *StationHandler) Assignments(c *gin.Context) {
	stationID := c.Param("id")
	eng, ok := h.stations.Get(stationID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not selected"})
		return
	}
	c.JSON(http.StatusOK, eng.AutoAssign.LastSummary())
}

// EngineStatus reports every running engine and its transport state.
func (h *StationHandler) EngineStatus(c *gin.Context) {
	statuses := h.stations.Statuses()
	logger.Debugf("engine status requested: %d engines running", len(statuses))
	c.JSON(http.StatusOK, gin.H{"engines": statuses})
}
