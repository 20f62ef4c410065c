// server/internal/demurrage/aggregate.go
package demurrage

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"seamaster-shipment-api-server/internal/models"
)

// ErrInvalidInput marks a structurally unusable input collection. Data
// quality problems inside a valid shipment never produce it.
var ErrInvalidInput = errors.New("demurrage: invalid input")

// StatusLabel is the derived shipment state. It is recomputed from
// current truck data on every read; nothing is stored.
type StatusLabel string

const (
	StatusNoTruckData     StatusLabel = "No Truck Data"
	StatusAllOffloaded    StatusLabel = "All Offloaded"
	StatusPendingOffload  StatusLabel = "Dispatched, Pending Offload"
	StatusPartialDispatch StatusLabel = "Partially Dispatched"
	StatusPendingDispatch StatusLabel = "Pending Dispatch"
)

// Options fixes the evaluation policy for one pass.
type Options struct {
	// Now is the shared evaluation instant for every in-progress
	// segment in the pass. Zero means the current wall-clock time;
	// callers evaluating historical snapshots must set it.
	Now time.Time

	// IncludeCancelledInTotals decides whether cancelled trucks' costs
	// count toward the headline shipment/fleet totals. Their costs are
	// computed and returned either way.
	IncludeCancelledInTotals bool
}

func (o Options) day() Day {
	if o.Now.IsZero() {
		return DayOf(time.Now())
	}
	return DayOf(o.Now)
}

// ShipmentResult is one shipment's full set of derived fields.
type ShipmentResult struct {
	UniqueID string      `json:"uniqueID"`
	Status   StatusLabel `json:"status"`

	Trucks []TruckResult `json:"trucks"`

	// TotalDemurrageCost honors the cancelled-trucks policy.
	// TotalDemurrageCostAllTrucks always includes every truck, so a
	// caller excluding cancelled trucks from headlines still has the
	// complete figure available.
	TotalDemurrageCost          decimal.Decimal `json:"totalDemurrageCost"`
	TotalDemurrageCostAllTrucks decimal.Decimal `json:"totalDemurrageCostAllTrucks"`

	// StatusSummary counts non-cancelled trucks per free-text status
	// label, for the dashboard's per-shipment summary block.
	StatusSummary map[string]int `json:"statusSummary"`

	Warnings []Warning `json:"warnings"`
}

// EvaluateShipment runs the engine over one shipment. It is pure: the
// input record is not mutated, warnings are collected instead of
// raised, and two passes over the same snapshot yield identical output.
func EvaluateShipment(s *models.Shipment, opts Options) (*ShipmentResult, error) {
	if s == nil {
		return nil, ErrInvalidInput
	}

	ec := &evalContext{
		shipmentID: s.UniqueID,
		now:        opts.day(),
		warnings:   new([]Warning),
	}

	res := &ShipmentResult{
		UniqueID:                    s.UniqueID,
		Trucks:                      make([]TruckResult, 0, len(s.Trucks)),
		TotalDemurrageCost:          decimal.Zero,
		TotalDemurrageCostAllTrucks: decimal.Zero,
		StatusSummary:               make(map[string]int),
	}

	for i := range s.Trucks {
		t := &s.Trucks[i]
		tr := ec.evaluateTruck(s, t)
		res.Trucks = append(res.Trucks, tr)

		res.TotalDemurrageCostAllTrucks = res.TotalDemurrageCostAllTrucks.Add(tr.TotalDemurrageCost)
		if opts.IncludeCancelledInTotals || !t.Cancelled {
			res.TotalDemurrageCost = res.TotalDemurrageCost.Add(tr.TotalDemurrageCost)
		}

		if !t.Cancelled && t.Status != "" {
			res.StatusSummary[t.Status]++
		}
	}

	res.Status = classify(res.Trucks)
	res.Warnings = *ec.warnings
	return res, nil
}

// EvaluateShipments sweeps a filtered snapshot with a single shared
// evaluation instant, so every "still in progress" segment in one
// rendering is measured against the same day.
func EvaluateShipments(shipments []models.Shipment, opts Options) ([]*ShipmentResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	results := make([]*ShipmentResult, 0, len(shipments))
	for i := range shipments {
		r, err := EvaluateShipment(&shipments[i], opts)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// classify walks the priority-ordered status ladder; first match wins.
// The cancellation flag does not exempt a truck from the checks.
func classify(trucks []TruckResult) StatusLabel {
	if len(trucks) == 0 {
		return StatusNoTruckData
	}

	allOffloaded := true
	allDispatched := true
	anyBorderDispatch := false

	for i := range trucks {
		t := &trucks[i]

		if !t.offloaded.Set {
			allOffloaded = false
		}

		// "Dispatched" means the truck left its last checkpoint: the
		// final border when it has crossings, or the loading point for
		// local single-stage shipments.
		if n := len(t.borderDispatches); n > 0 {
			if !t.borderDispatches[n-1].Set {
				allDispatched = false
			}
			for _, d := range t.borderDispatches {
				if d.Set {
					anyBorderDispatch = true
					break
				}
			}
		} else if !t.loadingDispatched.Set {
			allDispatched = false
		}
	}

	switch {
	case allOffloaded:
		return StatusAllOffloaded
	case allDispatched:
		return StatusPendingOffload
	case anyBorderDispatch:
		return StatusPartialDispatch
	default:
		return StatusPendingDispatch
	}
}

// BorderColumns returns the union of border names across a shipment's
// trucks. Default order is first-seen (document order); sorted=true
// gives a stable alphabetical order for cross-truck column alignment.
func BorderColumns(s *models.Shipment, sorted bool) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(s.BorderNames))

	for i := range s.Trucks {
		for _, w := range BorderWindows(s.Trucks[i].Borders) {
			if _, ok := seen[w.Name]; ok {
				continue
			}
			seen[w.Name] = struct{}{}
			names = append(names, w.Name)
		}
	}

	if sorted {
		sort.Strings(names)
	}
	return names
}

// --- Fleet-level rollups ---

// FleetMetrics aggregates a filtered set of evaluated shipments for the
// dashboard header cards.
type FleetMetrics struct {
	TotalShipments     int             `json:"totalShipments"`
	TotalTrucks        int             `json:"totalTrucks"`
	TotalDemurrageCost decimal.Decimal `json:"totalDemurrageCost"`

	// AverageDaysOnSite averages only trucks with a recorded figure;
	// trucks without one are excluded from numerator and denominator
	// alike. TrucksWithDaysOnSite tells the caller how many trucks the
	// average is based on (zero means "no data", not "zero days").
	AverageDaysOnSite    float64 `json:"averageDaysOnSite"`
	TrucksWithDaysOnSite int     `json:"trucksWithDaysOnSite"`
}

// Fleet rolls evaluated shipments up into the portfolio metrics.
func Fleet(results []*ShipmentResult) FleetMetrics {
	m := FleetMetrics{TotalDemurrageCost: decimal.Zero}

	var daysSum float64
	for _, r := range results {
		m.TotalShipments++
		m.TotalTrucks += len(r.Trucks)
		m.TotalDemurrageCost = m.TotalDemurrageCost.Add(r.TotalDemurrageCost)

		for i := range r.Trucks {
			if d := r.Trucks[i].DaysOnSite; d != nil {
				daysSum += *d
				m.TrucksWithDaysOnSite++
			}
		}
	}

	if m.TrucksWithDaysOnSite > 0 {
		m.AverageDaysOnSite = daysSum / float64(m.TrucksWithDaysOnSite)
	}
	return m
}
