// server/internal/api/handlers/dashboard_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"seamaster-shipment-api-server/config"
	"seamaster-shipment-api-server/internal/demurrage"
	"seamaster-shipment-api-server/internal/models"
)

type DashboardHandler struct {
	Cfg config.Config
	DB  *mongo.Database
}

// ShipmentOverview is one row of the dashboard's shipment list.
type ShipmentOverview struct {
	UniqueID           string                `json:"uniqueID"`
	DateSubmitted      time.Time             `json:"dateSubmitted"`
	Client             string                `json:"client"`
	Transporter        string                `json:"transporter"`
	TruckCount         int                   `json:"truckCount"`
	Status             demurrage.StatusLabel `json:"status"`
	TotalDemurrageCost decimal.Decimal       `json:"totalDemurrageCost"`
	WarningCount       int                   `json:"warningCount"`
}

type DashboardResponse struct {
	Metrics   demurrage.FleetMetrics `json:"metrics"`
	Shipments []ShipmentOverview     `json:"shipments"`
	Warnings  []demurrage.Warning    `json:"warnings"`
}

// GetMetrics computes the fleet-level dashboard for a filtered set of
// shipments. The whole sweep is pinned to a single evaluation instant
// so in-progress segments across shipments are measured consistently.
func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	filter := bson.M{}

	dateFilter := bson.M{}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
			return
		}
		dateFilter["$gte"] = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
			return
		}
		// Inclusive upper bound: the whole 'to' day.
		dateFilter["$lt"] = t.AddDate(0, 0, 1)
	}
	if len(dateFilter) > 0 {
		filter["dateSubmitted"] = dateFilter
	}

	if client := c.Query("client"); client != "" {
		filter["client"] = client
	}

	collection := h.DB.Collection("shipments")
	opts := options.Find().SetSort(bson.D{{Key: "dateSubmitted", Value: -1}})

	cursor, err := collection.Find(context.Background(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query shipments"})
		return
	}
	defer cursor.Close(context.Background())

	var shipments []models.Shipment
	if err = cursor.All(context.Background(), &shipments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode shipments"})
		return
	}

	results, err := demurrage.EvaluateShipments(shipments, demurrage.Options{
		Now:                      time.Now(),
		IncludeCancelledInTotals: h.Cfg.Demurrage.IncludeCancelledInTotals,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate shipments"})
		return
	}

	response := DashboardResponse{
		Metrics:   demurrage.Fleet(results),
		Shipments: make([]ShipmentOverview, 0, len(results)),
		Warnings:  []demurrage.Warning{},
	}

	for i, r := range results {
		response.Shipments = append(response.Shipments, ShipmentOverview{
			UniqueID:           r.UniqueID,
			DateSubmitted:      shipments[i].DateSubmitted,
			Client:             shipments[i].Client,
			Transporter:        shipments[i].Transporter,
			TruckCount:         len(shipments[i].Trucks),
			Status:             r.Status,
			TotalDemurrageCost: r.TotalDemurrageCost,
			WarningCount:       len(r.Warnings),
		})
		// Aggregate warnings so operators see data-quality issues in
		// one place instead of them being silently dropped.
		response.Warnings = append(response.Warnings, r.Warnings...)
	}

	c.JSON(http.StatusOK, response)
}
