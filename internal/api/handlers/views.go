// server/internal/api/handlers/views.go
package handlers

import (
	"github.com/shopspring/decimal"

	"seamaster-shipment-api-server/internal/demurrage"
	"seamaster-shipment-api-server/internal/models"
)

// --- Response shapes for enriched shipment reads ---

// BorderView pairs one crossing's raw timestamps with its computed
// billing, in the truck's own border order.
type BorderView struct {
	Name           string          `json:"name"`
	ActualArrival  any             `json:"actualArrival"`
	ActualDispatch any             `json:"actualDispatch"`
	BillableDays   int             `json:"billableDays"`
	DemurrageCost  decimal.Decimal `json:"demurrageCost"`
}

type TrailerView struct {
	Slot  string `json:"slot"`
	Value any    `json:"value"`
}

// TruckView is a stored truck annotated with the engine's derived
// billing fields.
type TruckView struct {
	models.Truck

	Trailers []TrailerView `json:"trailers"`
	Borders  []BorderView  `json:"borders"`

	BillableDaysAtLoadingPoint  int             `json:"billableDaysAtLoadingPoint"`
	DemurrageCostAtLoadingPoint decimal.Decimal `json:"demurrageCostAtLoadingPoint"`
	TotalBillableDaysAtBorders  int             `json:"totalBillableDaysAtBorders"`
	TotalDemurrageCostAtBorders decimal.Decimal `json:"totalDemurrageCostAtBorders"`
	TotalDemurrageCost          decimal.Decimal `json:"totalDemurrageCost"`
}

type ShipmentView struct {
	models.Shipment

	Trucks []TruckView `json:"trucks"`

	Status                      demurrage.StatusLabel `json:"status"`
	TotalDemurrageCost          decimal.Decimal       `json:"totalDemurrageCost"`
	TotalDemurrageCostAllTrucks decimal.Decimal       `json:"totalDemurrageCostAllTrucks"`
	StatusSummary               map[string]int        `json:"statusSummary"`
	Warnings                    []demurrage.Warning   `json:"warnings"`

	// BorderColumns is the alphabetical union of border names across
	// all trucks, for cross-truck column alignment in table views.
	BorderColumns []string `json:"borderColumns"`
}

func buildShipmentView(s *models.Shipment, r *demurrage.ShipmentResult) ShipmentView {
	view := ShipmentView{
		Shipment:                    *s,
		Trucks:                      make([]TruckView, 0, len(s.Trucks)),
		Status:                      r.Status,
		TotalDemurrageCost:          r.TotalDemurrageCost,
		TotalDemurrageCostAllTrucks: r.TotalDemurrageCostAllTrucks,
		StatusSummary:               r.StatusSummary,
		Warnings:                    r.Warnings,
		BorderColumns:               demurrage.BorderColumns(s, true),
	}
	if view.Warnings == nil {
		view.Warnings = []demurrage.Warning{}
	}

	// Results are parallel to s.Trucks; the engine evaluates trucks in
	// stored order.
	for i := range s.Trucks {
		view.Trucks = append(view.Trucks, buildTruckView(&s.Trucks[i], &r.Trucks[i]))
	}
	return view
}

func buildTruckView(t *models.Truck, tr *demurrage.TruckResult) TruckView {
	view := TruckView{
		Truck: *t,

		BillableDaysAtLoadingPoint:  tr.BillableDaysAtLoadingPoint,
		DemurrageCostAtLoadingPoint: tr.DemurrageCostAtLoadingPoint,
		TotalBillableDaysAtBorders:  tr.TotalBillableDaysAtBorders,
		TotalDemurrageCostAtBorders: tr.TotalDemurrageCostAtBorders,
		TotalDemurrageCost:          tr.TotalDemurrageCost,
	}

	view.Trailers = make([]TrailerView, 0, len(t.Trailers))
	for _, e := range t.Trailers {
		view.Trailers = append(view.Trailers, TrailerView{Slot: e.Key, Value: e.Value})
	}

	// Raw border values in stored key order, joined with the computed
	// per-border results (same order by construction).
	windows := demurrage.BorderWindows(t.Borders)
	view.Borders = make([]BorderView, 0, len(windows))
	for i, w := range windows {
		view.Borders = append(view.Borders, BorderView{
			Name:           w.Name,
			ActualArrival:  w.Arrival,
			ActualDispatch: w.Dispatch,
			BillableDays:   tr.Borders[i].BillableDays,
			DemurrageCost:  tr.Borders[i].Cost,
		})
	}

	return view
}
