// server/internal/api/routes/routes.go
package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"seamaster-shipment-api-server/config"
	"seamaster-shipment-api-server/internal/api/handlers"
	"seamaster-shipment-api-server/internal/socket"
)

// SetupRouter receives the shared dependencies and wires up the routes.
func SetupRouter(cfg config.Config, db *mongo.Database, wsHub *socket.Hub) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	// The dashboard frontend is served from a different origin.
	router.Use(cors.Default())

	shipmentHandler := &handlers.ShipmentHandler{Cfg: cfg, DB: db, Hub: wsHub}
	dashboardHandler := &handlers.DashboardHandler{Cfg: cfg, DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		// Live updates for open dashboards
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// Shipment lifecycle: created wholesale by the generation form,
		// then only truck-level fields mutate.
		shipments := apiV1.Group("/shipments")
		{
			shipments.POST("/", shipmentHandler.CreateShipment)
			shipments.GET("/", shipmentHandler.ListShipments)
			shipments.GET("/:id", shipmentHandler.GetShipment)
			shipments.PATCH("/:id/trucks/:truckNumber", shipmentHandler.UpdateTruck)
		}

		// Aggregated operational/financial metrics
		dashboard := apiV1.Group("/dashboard")
		{
			dashboard.GET("/metrics", dashboardHandler.GetMetrics)
		}
	}

	return router
}
