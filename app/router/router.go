package router

import (
	"net/http"

	"wardsync/app/handler"
	"wardsync/app/middleware"
	"wardsync/app/ws"
	"wardsync/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup wires all routes.
func Setup(engine *gin.Engine, stationHandler *handler.StationHandler, resetHandler *handler.ResetHandler, hub *ws.Hub) {
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := engine.Group("/api/v1")
	{
		stations := v1.Group("/stations")
		{
			stations.POST("/:id/select", stationHandler.Select)
			stations.POST("/:id/deselect", stationHandler.Deselect)
			stations.GET("/:id/presence", stationHandler.Presence)
			stations.GET("/:id/assignments", stationHandler.Assignments)
			stations.POST("/:id/reset", resetHandler.Trigger)
		}
		v1.GET("/engine/status", stationHandler.EngineStatus)
	}

	engine.GET("/ws/stations/:id", ws.ServeWS(hub))
}
