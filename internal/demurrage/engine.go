// server/internal/demurrage/engine.go
package demurrage

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"seamaster-shipment-api-server/internal/models"
)

// --- Warnings (data-quality conditions, never fatal) ---

type WarningCode string

const (
	WarnUnparseableTimestamp WarningCode = "UNPARSEABLE_TIMESTAMP"
	WarnInvertedInterval     WarningCode = "INVERTED_INTERVAL"
	WarnNoRateConfigured     WarningCode = "NO_RATE_CONFIGURED"
)

// Warning flags one data-quality issue found while evaluating a truck.
// The engine keeps calculating around it; operators correct the source
// record later.
type Warning struct {
	Code        WarningCode `json:"code"`
	ShipmentID  string      `json:"shipmentID"`
	TruckNumber int         `json:"truckNumber"`
	Field       string      `json:"field"`
	Detail      string      `json:"detail,omitempty"`
}

// --- Border extraction ---

const (
	borderArrivalPrefix  = "Actual arrival at "
	borderDispatchPrefix = "Actual dispatch from "
)

// BorderWindow is one truck's stay at one named crossing: the raw
// arrival/dispatch values lifted out of the ad hoc Borders document.
type BorderWindow struct {
	Name     string
	Arrival  any
	Dispatch any
}

// BorderWindows scans a truck's Borders document and collects one
// window per distinct crossing name, in the order the arrival keys
// first appear. A name is recognized only through its arrival key; a
// dispatch key without a matching arrival key names no crossing.
func BorderWindows(borders bson.D) []BorderWindow {
	if len(borders) == 0 {
		return nil
	}

	windows := make([]BorderWindow, 0, len(borders)/2)
	index := make(map[string]int)

	for _, e := range borders {
		name, ok := strings.CutPrefix(e.Key, borderArrivalPrefix)
		if !ok || name == "" {
			continue
		}
		if _, seen := index[name]; seen {
			continue
		}
		index[name] = len(windows)
		windows = append(windows, BorderWindow{Name: name, Arrival: e.Value})
	}

	for _, e := range borders {
		name, ok := strings.CutPrefix(e.Key, borderDispatchPrefix)
		if !ok {
			continue
		}
		if i, seen := index[name]; seen {
			windows[i].Dispatch = e.Value
		}
	}

	return windows
}

// --- Single-segment calculation ---

// SegmentDays computes billable days for one location segment.
//
// No arrival means the truck never reached this checkpoint: zero. No
// departure means the truck is still there and time accrues against
// "now". Inverted intervals (departure before arrival) clamp to zero
// rather than failing; the caller raises a warning for them.
func SegmentDays(arrival, departure Instant, freeDays int, now Day) (billable int, inverted bool) {
	if !arrival.Set {
		return 0, false
	}

	end := now
	if departure.Set {
		end = departure.Day
	}

	raw := int(end - arrival.Day)
	if raw < 0 {
		return 0, true
	}

	billable = raw - freeDays
	if billable < 0 {
		billable = 0
	}
	return billable, false
}

// segmentCost prices a segment. Rates are currency-per-day.
func segmentCost(billableDays int, rate decimal.Decimal) decimal.Decimal {
	if billableDays == 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(billableDays)))
}

// --- Per-truck evaluation ---

// BorderResult is the computed billing for one border segment.
type BorderResult struct {
	Name         string          `json:"name"`
	BillableDays int             `json:"billableDays"`
	Cost         decimal.Decimal `json:"demurrageCost"`
}

// TruckResult carries every derived billing field for one truck. These
// fields are recomputed wholesale on every evaluation pass and are
// never written back to storage.
type TruckResult struct {
	TruckNumber int  `json:"truckNumber"`
	Cancelled   bool `json:"cancelled"`

	BillableDaysAtLoadingPoint  int             `json:"billableDaysAtLoadingPoint"`
	DemurrageCostAtLoadingPoint decimal.Decimal `json:"demurrageCostAtLoadingPoint"`

	Borders                     []BorderResult  `json:"borders"`
	TotalBillableDaysAtBorders  int             `json:"totalBillableDaysAtBorders"`
	TotalDemurrageCostAtBorders decimal.Decimal `json:"totalDemurrageCostAtBorders"`

	TotalDemurrageCost decimal.Decimal `json:"totalDemurrageCost"`

	// DaysOnSite is the reported figure when one was recorded; nil
	// trucks are excluded from fleet averaging entirely.
	DaysOnSite *float64 `json:"daysOnSite,omitempty"`

	// Normalized timeline, reused by the shipment status ladder so the
	// raw fields are parsed exactly once per pass.
	offloaded         Instant
	loadingDispatched Instant
	borderDispatches  []Instant
}

// evalContext threads the per-pass constants through every truck.
type evalContext struct {
	shipmentID string
	now        Day
	warnings   *[]Warning
}

func (ec *evalContext) warn(code WarningCode, truckNumber int, field, detail string) {
	*ec.warnings = append(*ec.warnings, Warning{
		Code:        code,
		ShipmentID:  ec.shipmentID,
		TruckNumber: truckNumber,
		Field:       field,
		Detail:      detail,
	})
}

// normalizeField parses one timeline value, demoting parse failures to
// Unset plus a warning.
func (ec *evalContext) normalizeField(truckNumber int, field string, v any) Instant {
	inst, err := Normalize(v)
	if err != nil {
		ec.warn(WarnUnparseableTimestamp, truckNumber, field, err.Error())
	}
	return inst
}

// resolveRate picks the truck-level demurrage rate when set, otherwise
// the shipment-level one. A missing rate is zero, flagged once per
// truck so the operator knows cost figures are incomplete.
func (ec *evalContext) resolveRate(s *models.Shipment, t *models.Truck) decimal.Decimal {
	rate := s.DemurrageRatePerDay
	if t.DemurrageRatePerDay != nil {
		rate = *t.DemurrageRatePerDay
	}
	if rate < 0 {
		rate = 0
	}
	if rate == 0 {
		ec.warn(WarnNoRateConfigured, t.TruckNumber, "demurrageRatePerDay", "no demurrage rate configured; costs computed as zero")
	}
	return decimal.NewFromFloat(rate)
}

func resolveFreeDays(shipmentLevel int, override *int) int {
	v := shipmentLevel
	if override != nil {
		v = *override
	}
	if v < 0 {
		v = 0
	}
	return v
}

// evaluateTruck computes the full set of derived billing fields for one
// truck: the loading-point segment, every border segment in key order,
// and the truck-level totals.
func (ec *evalContext) evaluateTruck(s *models.Shipment, t *models.Truck) TruckResult {
	rate := ec.resolveRate(s, t)

	res := TruckResult{
		TruckNumber:                 t.TruckNumber,
		Cancelled:                   t.Cancelled,
		DemurrageCostAtLoadingPoint: decimal.Zero,
		TotalDemurrageCostAtBorders: decimal.Zero,
		TotalDemurrageCost:          decimal.Zero,
	}

	// Loading point: arrival .. dispatch-from-loading-point.
	arrival := ec.normalizeField(t.TruckNumber, "arrivedAtLoadingPoint", t.ArrivedAtLoadingPoint)
	dispatch := ec.normalizeField(t.TruckNumber, "dispatchDate", t.DispatchDate)
	freeLoading := resolveFreeDays(s.FreeDaysAtLoadingPoint, t.FreeDaysAtLoadingPoint)

	days, inverted := SegmentDays(arrival, dispatch, freeLoading, ec.now)
	if inverted {
		ec.warn(WarnInvertedInterval, t.TruckNumber, "dispatchDate", "dispatch recorded before arrival at loading point")
	}
	res.BillableDaysAtLoadingPoint = days
	res.DemurrageCostAtLoadingPoint = segmentCost(days, rate)

	// Border segments share one free-days allowance and one rate; they
	// are not per-border terms.
	freeBorder := resolveFreeDays(s.FreeDaysAtBorder, t.FreeDaysAtBorder)
	windows := BorderWindows(t.Borders)
	res.Borders = make([]BorderResult, 0, len(windows))

	for _, w := range windows {
		bArrival := ec.normalizeField(t.TruckNumber, borderArrivalPrefix+w.Name, w.Arrival)
		bDispatch := ec.normalizeField(t.TruckNumber, borderDispatchPrefix+w.Name, w.Dispatch)

		bDays, bInverted := SegmentDays(bArrival, bDispatch, freeBorder, ec.now)
		if bInverted {
			ec.warn(WarnInvertedInterval, t.TruckNumber, borderDispatchPrefix+w.Name, "dispatch recorded before arrival")
		}

		cost := segmentCost(bDays, rate)
		res.Borders = append(res.Borders, BorderResult{Name: w.Name, BillableDays: bDays, Cost: cost})
		res.TotalBillableDaysAtBorders += bDays
		res.TotalDemurrageCostAtBorders = res.TotalDemurrageCostAtBorders.Add(cost)

		res.borderDispatches = append(res.borderDispatches, bDispatch)
	}

	res.TotalDemurrageCost = res.DemurrageCostAtLoadingPoint.Add(res.TotalDemurrageCostAtBorders)

	if v, ok := NormalizeNumber(t.DaysOnSite); ok {
		res.DaysOnSite = &v
	}

	res.offloaded = ec.normalizeField(t.TruckNumber, "dateOffloaded", t.DateOffloaded)
	res.loadingDispatched = dispatch

	// Not used in any calculation, but checked so bad data in them still
	// surfaces as a warning.
	ec.normalizeField(t.TruckNumber, "loadedDate", t.LoadedDate)
	ec.normalizeField(t.TruckNumber, "dateArrived", t.DateArrived)

	return res
}
