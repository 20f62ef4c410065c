// server/internal/api/handlers/shipment_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"seamaster-shipment-api-server/config"
	"seamaster-shipment-api-server/internal/demurrage"
	"seamaster-shipment-api-server/internal/models"
	"seamaster-shipment-api-server/internal/socket"
)

type ShipmentHandler struct {
	Cfg config.Config
	DB  *mongo.Database
	Hub *socket.Hub
}

// --- Structs for Request Bodies ---

type CreateShipmentRequest struct {
	Transporter  string `json:"transporter" binding:"required"`
	Client       string `json:"client" binding:"required"`
	CargoType    string `json:"cargoType" binding:"required"`
	LoadingPoint string `json:"loadingPoint" binding:"required"`
	FileNumber   string `json:"fileNumber" binding:"required"`
	TruckCount   int    `json:"truckCount" binding:"required,min=1,max=1000"`

	Destination        string     `json:"destination"`
	IssuedBy           string     `json:"issuedBy"`
	DateSubmitted      *time.Time `json:"dateSubmitted"`
	TransporterContact string     `json:"transporterContact"`
	AgentCountry1      string     `json:"agentCountry1"`
	AgentCountry2      string     `json:"agentCountry2"`
	PaymentTerms       string     `json:"paymentTerms"`
	Comments           string     `json:"comments"`

	LoadStartDate *time.Time `json:"loadStartDate"`
	LoadEndDate   *time.Time `json:"loadEndDate"`
	TruckType     string     `json:"truckType"`

	RatePerTon             float64 `json:"ratePerTon" binding:"min=0"`
	FreeDaysAtBorder       int     `json:"freeDaysAtBorder" binding:"min=0"`
	FreeDaysAtLoadingPoint int     `json:"freeDaysAtLoadingPoint" binding:"min=0"`
	DemurrageRatePerDay    float64 `json:"demurrageRatePerDay" binding:"min=0"`

	// BorderNames, in crossing order. May be empty for local shipments.
	BorderNames []string `json:"borderNames"`

	// TrailersPerTruck selects the trailer slots seeded on every truck.
	TrailersPerTruck int `json:"trailersPerTruck" binding:"omitempty,min=1,max=2"`
}

type BorderUpdate struct {
	ActualArrival  any `json:"actualArrival"`
	ActualDispatch any `json:"actualDispatch"`
}

// UpdateTruckRequest carries the mutable truck fields. Nil/absent
// fields are left untouched; an empty string clears a timeline field
// (the engine reads empty as Unset).
type UpdateTruckRequest struct {
	Status    *string `json:"status"`
	Cancelled *bool   `json:"cancelled"`
	Flagged   *bool   `json:"flagged"`
	Comment   *string `json:"comment"`

	Horse           *string  `json:"horse"`
	Driver          *string  `json:"driver"`
	Passport        *string  `json:"passport"`
	Contact         *string  `json:"contact"`
	Tonnage         *float64 `json:"tonnage"`
	CurrentLocation *string  `json:"currentLocation"`

	ArrivedAtLoadingPoint any `json:"arrivedAtLoadingPoint"`
	LoadedDate            any `json:"loadedDate"`
	DispatchDate          any `json:"dispatchDate"`
	DateArrived           any `json:"dateArrived"`
	DateOffloaded         any `json:"dateOffloaded"`
	DaysOnSite            any `json:"daysOnSite"`

	// Borders maps a crossing name (as entered at generation time) to
	// its new arrival/dispatch values.
	Borders map[string]BorderUpdate `json:"borders"`

	FreeDaysAtBorder       *int     `json:"freeDaysAtBorder"`
	FreeDaysAtLoadingPoint *int     `json:"freeDaysAtLoadingPoint"`
	DemurrageRatePerDay    *float64 `json:"demurrageRatePerDay"`
}

// --- Handlers ---

// CreateShipment handles the generation form: it creates the shipment
// document wholesale with TruckCount trucks numbered 1..N, all seeded
// with the shared contract terms and empty border slots.
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dateSubmitted := time.Now().UTC()
	if req.DateSubmitted != nil {
		dateSubmitted = *req.DateSubmitted
	}

	destination := req.Destination
	if destination == "" {
		destination = req.LoadingPoint
	}

	trailerSlots := []string{"Trailer A"}
	if req.TrailersPerTruck == 2 {
		trailerSlots = append(trailerSlots, "Trailer B")
	}

	trucks := make([]models.Truck, 0, req.TruckCount)
	for i := 0; i < req.TruckCount; i++ {
		borders := make(bson.D, 0, len(req.BorderNames)*2)
		for _, name := range req.BorderNames {
			borders = append(borders,
				bson.E{Key: "Actual arrival at " + name, Value: nil},
				bson.E{Key: "Actual dispatch from " + name, Value: nil},
			)
		}

		trailers := make(bson.D, 0, len(trailerSlots))
		for _, slot := range trailerSlots {
			trailers = append(trailers, bson.E{Key: slot, Value: nil})
		}

		trucks = append(trucks, models.Truck{
			TruckNumber:     i + 1,
			Horse:           fmt.Sprintf("Truck-%d", i+1),
			Status:          "Waiting to load",
			CurrentLocation: req.LoadingPoint,
			Destination:     destination,
			Borders:         borders,
			Trailers:        trailers,
		})
	}

	shipment := models.Shipment{
		UniqueID:      uuid.New().String(),
		DateSubmitted: dateSubmitted,

		Client:      req.Client,
		Transporter: req.Transporter,
		CargoType:   req.CargoType,

		LoadingPoint: req.LoadingPoint,
		Destination:  destination,
		FileNumber:   req.FileNumber,
		IssuedBy:     req.IssuedBy,

		TransporterContact: req.TransporterContact,
		AgentCountry1:      req.AgentCountry1,
		AgentCountry2:      req.AgentCountry2,
		PaymentTerms:       req.PaymentTerms,
		Comments:           req.Comments,

		LoadStartDate: req.LoadStartDate,
		LoadEndDate:   req.LoadEndDate,
		TruckType:     req.TruckType,

		RatePerTon:             req.RatePerTon,
		FreeDaysAtBorder:       req.FreeDaysAtBorder,
		FreeDaysAtLoadingPoint: req.FreeDaysAtLoadingPoint,
		DemurrageRatePerDay:    req.DemurrageRatePerDay,

		BorderNames: req.BorderNames,
		TruckCount:  req.TruckCount,
		Trucks:      trucks,
	}

	collection := h.DB.Collection("shipments")
	result, err := collection.InsertOne(context.Background(), shipment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shipment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "uniqueID": shipment.UniqueID, "id": result.InsertedID})
}

// ShipmentMetadata projects the fields the past-shipments view lists.
type ShipmentMetadata struct {
	UniqueID      string    `bson:"uniqueID" json:"uniqueID"`
	DateSubmitted time.Time `bson:"dateSubmitted" json:"dateSubmitted"`
	Transporter   string    `bson:"transporter" json:"transporter"`
	Client        string    `bson:"client" json:"client"`
	CargoType     string    `bson:"cargoType" json:"cargoType"`
	LoadingPoint  string    `bson:"loadingPoint" json:"loadingPoint"`
	FileNumber    string    `bson:"fileNumber" json:"fileNumber"`
	TruckCount    int       `bson:"truckCount" json:"truckCount"`
}

// ListShipments returns shipment metadata, newest first.
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	collection := h.DB.Collection("shipments")

	opts := options.Find().
		SetSort(bson.D{{Key: "dateSubmitted", Value: -1}}).
		SetProjection(bson.M{
			"uniqueID": 1, "dateSubmitted": 1, "transporter": 1, "client": 1,
			"cargoType": 1, "loadingPoint": 1, "fileNumber": 1, "truckCount": 1,
		})

	cursor, err := collection.Find(context.Background(), bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query shipments"})
		return
	}
	defer cursor.Close(context.Background())

	var shipments []ShipmentMetadata
	if err = cursor.All(context.Background(), &shipments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode shipments"})
		return
	}

	if shipments == nil {
		shipments = []ShipmentMetadata{}
	}

	c.JSON(http.StatusOK, shipments)
}

// GetShipment returns one shipment by its unique ID, enriched by a
// fresh demurrage pass. Computed fields are derived on every read;
// nothing derived is stored.
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	uniqueID := c.Param("id")

	collection := h.DB.Collection("shipments")
	var shipment models.Shipment
	err := collection.FindOne(context.Background(), bson.M{"uniqueID": uniqueID}).Decode(&shipment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shipment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shipment"})
		}
		return
	}

	result, err := demurrage.EvaluateShipment(&shipment, demurrage.Options{
		IncludeCancelledInTotals: h.Cfg.Demurrage.IncludeCancelledInTotals,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate shipment"})
		return
	}

	c.JSON(http.StatusOK, buildShipmentView(&shipment, result))
}

// UpdateTruck applies downstream dispatch/offload updates to one truck
// of a shipment and notifies connected dashboards.
func (h *ShipmentHandler) UpdateTruck(c *gin.Context) {
	uniqueID := c.Param("id")

	var truckNumber int
	if _, err := fmt.Sscanf(c.Param("truckNumber"), "%d", &truckNumber); err != nil || truckNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid truck number"})
		return
	}

	var req UpdateTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("shipments")

	var shipment models.Shipment
	err := collection.FindOne(context.Background(), bson.M{"uniqueID": uniqueID}).Decode(&shipment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shipment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shipment"})
		}
		return
	}

	truckIdx := -1
	for i := range shipment.Trucks {
		if shipment.Trucks[i].TruckNumber == truckNumber {
			truckIdx = i
			break
		}
	}
	if truckIdx == -1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Truck not found in shipment"})
		return
	}

	set, err := buildTruckSet(&shipment.Trucks[truckIdx], truckIdx, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields in request"})
		return
	}

	_, err = collection.UpdateOne(context.Background(), bson.M{"uniqueID": uniqueID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update truck"})
		return
	}

	if h.Hub != nil {
		h.Hub.Broadcast(socket.ShipmentEvent{
			Type:        "shipment_updated",
			UniqueID:    uniqueID,
			TruckNumber: truckNumber,
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "uniqueID": uniqueID, "truckNumber": truckNumber})
}

// buildTruckSet translates an update request into a Mongo $set document
// addressed at trucks.<idx>. Border values may only target crossings
// the truck was generated with, so the stored key order stays intact.
func buildTruckSet(truck *models.Truck, truckIdx int, req *UpdateTruckRequest) (bson.M, error) {
	prefix := fmt.Sprintf("trucks.%d.", truckIdx)
	set := bson.M{}

	if req.Status != nil {
		set[prefix+"status"] = *req.Status
	}
	if req.Cancelled != nil {
		set[prefix+"cancelled"] = *req.Cancelled
	}
	if req.Flagged != nil {
		set[prefix+"flagged"] = *req.Flagged
	}
	if req.Comment != nil {
		set[prefix+"comment"] = *req.Comment
	}
	if req.Horse != nil {
		set[prefix+"horse"] = *req.Horse
	}
	if req.Driver != nil {
		set[prefix+"driver"] = *req.Driver
	}
	if req.Passport != nil {
		set[prefix+"passport"] = *req.Passport
	}
	if req.Contact != nil {
		set[prefix+"contact"] = *req.Contact
	}
	if req.Tonnage != nil {
		set[prefix+"tonnage"] = *req.Tonnage
	}
	if req.CurrentLocation != nil {
		set[prefix+"currentLocation"] = *req.CurrentLocation
	}

	if req.ArrivedAtLoadingPoint != nil {
		set[prefix+"arrivedAtLoadingPoint"] = req.ArrivedAtLoadingPoint
	}
	if req.LoadedDate != nil {
		set[prefix+"loadedDate"] = req.LoadedDate
	}
	if req.DispatchDate != nil {
		set[prefix+"dispatchDate"] = req.DispatchDate
	}
	if req.DateArrived != nil {
		set[prefix+"dateArrived"] = req.DateArrived
	}
	if req.DateOffloaded != nil {
		set[prefix+"dateOffloaded"] = req.DateOffloaded
	}
	if req.DaysOnSite != nil {
		set[prefix+"daysOnSite"] = req.DaysOnSite
	}

	if req.FreeDaysAtBorder != nil {
		set[prefix+"freeDaysAtBorder"] = *req.FreeDaysAtBorder
	}
	if req.FreeDaysAtLoadingPoint != nil {
		set[prefix+"freeDaysAtLoadingPoint"] = *req.FreeDaysAtLoadingPoint
	}
	if req.DemurrageRatePerDay != nil {
		set[prefix+"demurrageRatePerDay"] = *req.DemurrageRatePerDay
	}

	if len(req.Borders) > 0 {
		known := make(map[string]struct{})
		for _, w := range demurrage.BorderWindows(truck.Borders) {
			known[w.Name] = struct{}{}
		}
		for name, upd := range req.Borders {
			if _, ok := known[name]; !ok {
				return nil, fmt.Errorf("unknown border %q for truck %d", name, truck.TruckNumber)
			}
			if upd.ActualArrival != nil {
				set[prefix+"borders.Actual arrival at "+name] = upd.ActualArrival
			}
			if upd.ActualDispatch != nil {
				set[prefix+"borders.Actual dispatch from "+name] = upd.ActualDispatch
			}
		}
	}

	return set, nil
}
