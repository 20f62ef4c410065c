// server/internal/models/shipment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Truck is one vehicle inside a shipment. Truck numbers are assigned
// 1..N at generation time and are never renumbered afterwards.
//
// Timeline fields are deliberately typed as `any`: downstream update
// processes have written epoch-millisecond numbers, ISO-8601 strings,
// BSON datetimes and empty strings into the same fields over time.
// The demurrage engine normalizes them once per evaluation pass.
type Truck struct {
	TruckNumber int    `bson:"truckNumber" json:"truckNumber"` // 1-based, stable within the shipment
	Horse       string `bson:"horse" json:"horse"`             // Horse/truck registration
	Driver      string `bson:"driver" json:"driver"`
	Passport    string `bson:"passport" json:"passport"`
	Contact     string `bson:"contact" json:"contact"`

	Status    string `bson:"status" json:"status"` // e.g., "Waiting to load", "Booked", "Dispatched"
	Cancelled bool   `bson:"cancelled" json:"cancelled"`
	Flagged   bool   `bson:"flagged" json:"flagged"`
	Comment   string `bson:"comment,omitempty" json:"comment"`

	Tonnage         float64 `bson:"tonnage,omitempty" json:"tonnage"`
	CurrentLocation string  `bson:"currentLocation,omitempty" json:"currentLocation"`
	Destination     string  `bson:"destination,omitempty" json:"destination"`

	// Timeline (heterogeneous, see type comment).
	ArrivedAtLoadingPoint any `bson:"arrivedAtLoadingPoint,omitempty" json:"arrivedAtLoadingPoint"`
	LoadedDate            any `bson:"loadedDate,omitempty" json:"loadedDate"`
	DispatchDate          any `bson:"dispatchDate,omitempty" json:"dispatchDate"` // dispatch from the loading point
	DateArrived           any `bson:"dateArrived,omitempty" json:"dateArrived"`   // at final destination
	DateOffloaded         any `bson:"dateOffloaded,omitempty" json:"dateOffloaded"`

	// Borders keeps the original document shape: keys are
	// "Actual arrival at <Name>" / "Actual dispatch from <Name>".
	// bson.D preserves the key order the shipment was created with,
	// which drives per-border display order.
	Borders bson.D `bson:"borders,omitempty" json:"-"`

	// Trailers maps trailer slot ("Trailer A", "Trailer B") to the
	// registered trailer plate, order preserved for display.
	Trailers bson.D `bson:"trailers,omitempty" json:"-"`

	// DaysOnSite is a reported figure, not derived; absent for trucks
	// no one has recorded it for. May arrive as a number or a string.
	DaysOnSite any `bson:"daysOnSite,omitempty" json:"daysOnSite"`

	// Per-truck overrides of the shipment-level contract terms.
	FreeDaysAtBorder       *int     `bson:"freeDaysAtBorder,omitempty" json:"freeDaysAtBorder,omitempty"`
	FreeDaysAtLoadingPoint *int     `bson:"freeDaysAtLoadingPoint,omitempty" json:"freeDaysAtLoadingPoint,omitempty"`
	DemurrageRatePerDay    *float64 `bson:"demurrageRatePerDay,omitempty" json:"demurrageRatePerDay,omitempty"`
}

// Shipment is one submission of the generation form. Shipments are
// created wholesale and never structurally deleted; only truck-level
// fields mutate afterwards.
type Shipment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UniqueID      string             `bson:"uniqueID" json:"uniqueID"` // uuid4 assigned at generation
	DateSubmitted time.Time          `bson:"dateSubmitted" json:"dateSubmitted"`

	Client      string `bson:"client" json:"client"`
	Transporter string `bson:"transporter" json:"transporter"`
	CargoType   string `bson:"cargoType" json:"cargoType"`

	LoadingPoint string `bson:"loadingPoint" json:"loadingPoint"`
	Destination  string `bson:"destination,omitempty" json:"destination"`
	FileNumber   string `bson:"fileNumber" json:"fileNumber"`
	IssuedBy     string `bson:"issuedBy,omitempty" json:"issuedBy"`

	TransporterContact string `bson:"transporterContact,omitempty" json:"transporterContact"`
	AgentCountry1      string `bson:"agentCountry1,omitempty" json:"agentCountry1"`
	AgentCountry2      string `bson:"agentCountry2,omitempty" json:"agentCountry2"`
	PaymentTerms       string `bson:"paymentTerms,omitempty" json:"paymentTerms"`
	Comments           string `bson:"comments,omitempty" json:"comments"`

	LoadStartDate *time.Time `bson:"loadStartDate,omitempty" json:"loadStartDate,omitempty"`
	LoadEndDate   *time.Time `bson:"loadEndDate,omitempty" json:"loadEndDate,omitempty"`
	TruckType     string     `bson:"truckType,omitempty" json:"truckType"`

	// Contract terms. Truck-level overrides win when present.
	RatePerTon             float64 `bson:"ratePerTon" json:"ratePerTon"`
	FreeDaysAtBorder       int     `bson:"freeDaysAtBorder" json:"freeDaysAtBorder"`
	FreeDaysAtLoadingPoint int     `bson:"freeDaysAtLoadingPoint" json:"freeDaysAtLoadingPoint"`
	DemurrageRatePerDay    float64 `bson:"demurrageRatePerDay" json:"demurrageRatePerDay"`

	// BorderNames is the user-defined crossing list for this shipment,
	// in the order entered on the generation form.
	BorderNames []string `bson:"borderNames" json:"borderNames"`

	TruckCount int     `bson:"truckCount" json:"truckCount"`
	Trucks     []Truck `bson:"trucks" json:"trucks"`
}
