// server/cmd/api/main.go
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"seamaster-shipment-api-server/config"
	"seamaster-shipment-api-server/internal/api/routes"
	"seamaster-shipment-api-server/internal/database"
	"seamaster-shipment-api-server/internal/socket"
)

func main() {
	// 1. Local runs keep MONGO_URI etc. in a .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	// 2. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// 3. Connect to MongoDB and prepare the shipments collection
	client, db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Could not ensure indexes: %v", err)
	}

	// 4. WebSocket hub for live dashboard updates
	wsHub := socket.NewHub()

	// 5. Wire everything into the router
	router := routes.SetupRouter(cfg, db, wsHub)

	// 6. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
