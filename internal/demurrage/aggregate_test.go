// server/internal/demurrage/aggregate_test.go
package demurrage

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"seamaster-shipment-api-server/internal/models"
)

func crossedBorder(name, arrival, dispatch string) bson.D {
	d := bson.D{{Key: "Actual arrival at " + name, Value: arrival}}
	if dispatch != "" {
		d = append(d, bson.E{Key: "Actual dispatch from " + name, Value: dispatch})
	} else {
		d = append(d, bson.E{Key: "Actual dispatch from " + name, Value: nil})
	}
	return d
}

func TestClassifyNoTruckData(t *testing.T) {
	res := evalOne(t, &models.Shipment{UniqueID: "s", DemurrageRatePerDay: 1}, "2025-03-01")
	if res.Status != StatusNoTruckData {
		t.Fatalf("status = %q, want %q", res.Status, StatusNoTruckData)
	}
}

func TestClassifyAllOffloaded(t *testing.T) {
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, DateOffloaded: "2025-01-10"},
			{TruckNumber: 2, DateOffloaded: "2025-01-12"},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusAllOffloaded {
		t.Fatalf("status = %q, want %q", res.Status, StatusAllOffloaded)
	}
}

func TestClassifyDispatchedPendingOffload(t *testing.T) {
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, Borders: crossedBorder("Beitbridge", "2025-01-02", "2025-01-04")},
			{TruckNumber: 2, Borders: crossedBorder("Beitbridge", "2025-01-03", "2025-01-05"), DateOffloaded: "2025-01-09"},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusPendingOffload {
		t.Fatalf("status = %q, want %q", res.Status, StatusPendingOffload)
	}
}

func TestClassifyLocalShipmentUsesLoadingDispatch(t *testing.T) {
	// No borders: the loading point is the sole checkpoint.
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-02"},
			{TruckNumber: 2, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-03"},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusPendingOffload {
		t.Fatalf("status = %q, want %q", res.Status, StatusPendingOffload)
	}
}

func TestClassifyPartiallyDispatched(t *testing.T) {
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, Borders: crossedBorder("Beitbridge", "2025-01-02", "2025-01-04")},
			{TruckNumber: 2, Borders: crossedBorder("Beitbridge", "2025-01-03", "")},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusPartialDispatch {
		t.Fatalf("status = %q, want %q", res.Status, StatusPartialDispatch)
	}
}

func TestClassifyPendingDispatchDefault(t *testing.T) {
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, Borders: crossedBorder("Beitbridge", "2025-01-02", "")},
			{TruckNumber: 2, Borders: crossedBorder("Beitbridge", "", "")},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusPendingDispatch {
		t.Fatalf("status = %q, want %q", res.Status, StatusPendingDispatch)
	}
}

// Scenario E: three trucks with costs [100, 200, 50], one cancelled.
func scenarioEShipment() *models.Shipment {
	rate50 := 50.0
	return &models.Shipment{
		UniqueID:            "scenario-e",
		DemurrageRatePerDay: 100,
		Trucks: []models.Truck{
			{TruckNumber: 1, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-02"}, // 1 day * 100
			{TruckNumber: 2, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-03"}, // 2 days * 100
			{TruckNumber: 3, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-02",
				DemurrageRatePerDay: &rate50, Cancelled: true}, // 1 day * 50, cancelled
		},
	}
}

func TestShipmentTotalsIncludeCancelled(t *testing.T) {
	res, err := EvaluateShipment(scenarioEShipment(), Options{
		Now:                      mustTime("2025-03-01"),
		IncludeCancelledInTotals: true,
	})
	if err != nil {
		t.Fatalf("EvaluateShipment: %v", err)
	}

	if !res.TotalDemurrageCost.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("total = %s, want 350", res.TotalDemurrageCost)
	}
	if !res.TotalDemurrageCostAllTrucks.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("all-trucks total = %s, want 350", res.TotalDemurrageCostAllTrucks)
	}
}

func TestShipmentTotalsExcludeCancelled(t *testing.T) {
	res, err := EvaluateShipment(scenarioEShipment(), Options{
		Now:                      mustTime("2025-03-01"),
		IncludeCancelledInTotals: false,
	})
	if err != nil {
		t.Fatalf("EvaluateShipment: %v", err)
	}

	if !res.TotalDemurrageCost.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("headline total = %s, want 300 (cancelled excluded)", res.TotalDemurrageCost)
	}
	// The cancelled truck's cost is still computed and available.
	if !res.TotalDemurrageCostAllTrucks.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("all-trucks total = %s, want 350", res.TotalDemurrageCostAllTrucks)
	}
	if !res.Trucks[2].TotalDemurrageCost.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("cancelled truck cost = %s, want 50", res.Trucks[2].TotalDemurrageCost)
	}
}

func TestStatusIndependentOfCancellation(t *testing.T) {
	// Every truck offloaded, one cancelled: still All Offloaded.
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, DateOffloaded: "2025-01-10"},
			{TruckNumber: 2, DateOffloaded: "2025-01-11", Cancelled: true},
		},
	}
	res := evalOne(t, s, "2025-03-01")
	if res.Status != StatusAllOffloaded {
		t.Fatalf("status = %q, want %q", res.Status, StatusAllOffloaded)
	}
}

func TestStatusSummaryCountsActiveTrucks(t *testing.T) {
	s := &models.Shipment{
		UniqueID:            "s",
		DemurrageRatePerDay: 1,
		Trucks: []models.Truck{
			{TruckNumber: 1, Status: "Booked"},
			{TruckNumber: 2, Status: "Booked"},
			{TruckNumber: 3, Status: "Dispatched"},
			{TruckNumber: 4, Status: "Booked", Cancelled: true},
		},
	}
	res := evalOne(t, s, "2025-03-01")

	want := map[string]int{"Booked": 2, "Dispatched": 1}
	if !reflect.DeepEqual(res.StatusSummary, want) {
		t.Fatalf("status summary = %v, want %v", res.StatusSummary, want)
	}
}

func TestEvaluateShipmentNilInput(t *testing.T) {
	if _, err := EvaluateShipment(nil, Options{}); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEvaluateShipmentIdempotent(t *testing.T) {
	s := scenarioEShipment()
	s.Trucks[0].Borders = crossedBorder("Beitbridge", "2025-01-05", "")
	s.Trucks[0].DaysOnSite = 5

	opts := Options{Now: mustTime("2025-03-01"), IncludeCancelledInTotals: true}

	first, err := EvaluateShipment(s, opts)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := EvaluateShipment(s, opts)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("engine output differs between identical passes:\n%+v\n%+v", first, second)
	}
}

func TestBorderColumnsSortedAndUnion(t *testing.T) {
	s := &models.Shipment{
		UniqueID: "s",
		Trucks: []models.Truck{
			{TruckNumber: 1, Borders: bson.D{
				{Key: "Actual arrival at Chirundu", Value: nil},
				{Key: "Actual arrival at Beitbridge", Value: nil},
			}},
			{TruckNumber: 2, Borders: bson.D{
				{Key: "Actual arrival at Beitbridge", Value: nil},
				{Key: "Actual arrival at Kasumbalesa", Value: nil},
			}},
		},
	}

	insertion := BorderColumns(s, false)
	if !reflect.DeepEqual(insertion, []string{"Chirundu", "Beitbridge", "Kasumbalesa"}) {
		t.Fatalf("insertion order = %v", insertion)
	}

	sorted := BorderColumns(s, true)
	if !reflect.DeepEqual(sorted, []string{"Beitbridge", "Chirundu", "Kasumbalesa"}) {
		t.Fatalf("sorted order = %v", sorted)
	}
}

func TestFleetMetrics(t *testing.T) {
	opts := Options{Now: mustTime("2025-03-01"), IncludeCancelledInTotals: true}

	a := scenarioEShipment() // total 350, 3 trucks
	b := &models.Shipment{
		UniqueID:            "b",
		DemurrageRatePerDay: 10,
		Trucks: []models.Truck{
			{TruckNumber: 1, ArrivedAtLoadingPoint: "2025-01-01", DispatchDate: "2025-01-03", DaysOnSite: 5},
			{TruckNumber: 2, DaysOnSite: "7"}, // reported as a string
			{TruckNumber: 3},                  // no days-on-site figure
		},
	}

	results, err := EvaluateShipments([]models.Shipment{*a, *b}, opts)
	if err != nil {
		t.Fatalf("EvaluateShipments: %v", err)
	}

	m := Fleet(results)
	if m.TotalShipments != 2 {
		t.Fatalf("total shipments = %d, want 2", m.TotalShipments)
	}
	if m.TotalTrucks != 6 {
		t.Fatalf("total trucks = %d, want 6", m.TotalTrucks)
	}
	// 350 + 2 days * 10
	if !m.TotalDemurrageCost.Equal(decimal.NewFromInt(370)) {
		t.Fatalf("fleet cost = %s, want 370", m.TotalDemurrageCost)
	}
	// Average over recorded figures only: (5 + 7) / 2, never (5+7)/3.
	if m.TrucksWithDaysOnSite != 2 {
		t.Fatalf("trucks with days on site = %d, want 2", m.TrucksWithDaysOnSite)
	}
	if m.AverageDaysOnSite != 6.0 {
		t.Fatalf("average days on site = %v, want 6.0", m.AverageDaysOnSite)
	}
}

func TestFleetMetricsEmpty(t *testing.T) {
	m := Fleet(nil)
	if m.TotalShipments != 0 || m.TotalTrucks != 0 || m.AverageDaysOnSite != 0 {
		t.Fatalf("empty fleet metrics not zero: %+v", m)
	}
	if !m.TotalDemurrageCost.Equal(decimal.Zero) {
		t.Fatalf("empty fleet cost = %s, want 0", m.TotalDemurrageCost)
	}
}
