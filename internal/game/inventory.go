package game

import (
	"fmt"
	"math"
)

// InventoryContext carries everything vehicle creation reads besides the
// RNG: the catalog, the pricing knobs and the calendar position.
type InventoryContext struct {
	Catalog      Catalog
	Coefficients Coefficients
	Pricing      PricingState
	Season       string
	Demand       float64
	Year         int
	DayIndex     int
	Seed         int64
}

func (s GameState) inventoryContext(t Tables) InventoryContext {
	return InventoryContext{
		Catalog:      t.Catalog,
		Coefficients: s.Coefficients,
		Pricing:      s.Pricing,
		Season:       Season(s.Month),
		Demand:       s.Economy.DemandIndex,
		Year:         s.Year,
		DayIndex:     s.DayIndex(),
		Seed:         s.Seed,
	}
}

// VehicleSpec narrows what CreateVehicle draws. Zero values mean "random".
type VehicleSpec struct {
	StockNumber      int
	Segment          string
	Condition        string
	DesirabilityBias float64
}

type depreciationBucket struct {
	maxAge int
	rate   float64
}

var depreciationBuckets = []depreciationBucket{
	{maxAge: 30, rate: 0.001},
	{maxAge: 60, rate: 0.0025},
	{maxAge: 120, rate: 0.004},
	{maxAge: math.MaxInt, rate: 0.006},
}

func depreciationRate(ageDays int) float64 {
	for _, b := range depreciationBuckets {
		if ageDays <= b.maxAge {
			return b.rate
		}
	}
	return depreciationBuckets[len(depreciationBuckets)-1].rate
}

// AgeInventory advances every in-stock vehicle by one day. The input slice is
// not modified.
func AgeInventory(inv []Vehicle, demand float64, pricing PricingState, c Coefficients) []Vehicle {
	out := make([]Vehicle, len(inv))
	copy(out, inv)
	demandFactor := clamp(demand, 0.5, 1.5)
	for i := range out {
		v := &out[i]
		if v.Status != StatusInStock {
			continue
		}
		v.AgeDays++
		weight := (1.5 - v.Desirability/100) / demandFactor
		amount := v.Asking * depreciationRate(v.AgeDays) * weight
		v.Asking = math.Max(v.Floor, v.Asking-amount)
		v.Desirability = math.Max(c.Inventory.DesirabilityFloor, v.Desirability-c.Inventory.DesirabilityDecay*weight)

		if v.AgeDays == 60 || v.AgeDays == 90 {
			if repriced := policyAsking(*v, pricing); repriced < v.Asking {
				v.Asking = repriced
			}
		}
	}
	return out
}

// CalculateDesirability scores a vehicle from its segment, condition, the
// season and the market, clamped to [20, 100].
func CalculateDesirability(v Vehicle, season string, demand float64) float64 {
	score, ok := segmentBaseDemand[v.Segment]
	if !ok {
		score = 50
	}
	switch {
	case v.Segment == "suv" && season == "winter":
		score += 10
	case v.Segment == "convertible" && season == "summer":
		score += 15
	}
	score += conditionBonus[v.Condition]
	score += (demand - 1) * 25
	return clamp(score, 20, 100)
}

// ApplyPricingPolicy returns the unrounded asking price for a base price.
func ApplyPricingPolicy(baseAsking float64, policy PricingPolicy, desirability float64, ageDays int, discounts PricingState) float64 {
	mult := 1.0
	switch policy {
	case PolicyAggressive:
		mult = 0.95
	case PolicyConservative:
		mult = 1.05
	case PolicyMarket:
		switch {
		case desirability >= 80:
			mult = 1.08
		case desirability >= 60:
			mult = 1.02
		case desirability >= 40:
			mult = 0.98
		default:
			mult = 0.92
		}
	}
	price := baseAsking * mult
	switch {
	case ageDays >= 90:
		price *= 1 - discounts.AgingDiscount90
	case ageDays >= 60:
		price *= 1 - discounts.AgingDiscount60
	}
	return price
}

// policyAsking is the asking price the current policy gives v, including any
// manual offset, never below the floor.
func policyAsking(v Vehicle, pricing PricingState) float64 {
	base := v.BaseAsking
	if base <= 0 {
		base = v.Asking
	}
	price := math.Max(round100(ApplyPricingPolicy(base, pricing.Policy, v.Desirability, v.AgeDays, pricing)), ceil100(v.Floor))
	if v.ManualPriceAdjustment != 0 {
		price = math.Max(price+v.ManualPriceAdjustment, v.Floor)
	}
	return price
}

func conditionForAge(age int) string {
	switch {
	case age <= 0:
		return "new"
	case age <= 2:
		return "certified"
	case age <= 7:
		return "used"
	default:
		return "rough"
	}
}

// CreateVehicle builds one pending vehicle that arrives on the next day.
func CreateVehicle(ic InventoryContext, rng *RNG, spec VehicleSpec, baseCost float64) Vehicle {
	c := ic.Coefficients
	segment := spec.Segment
	if segment == "" {
		segments := Segments()
		segment = segments[rng.Pick(len(segments))]
	}
	entries := ic.Catalog.BySegment(segment)
	if len(entries) == 0 {
		entries = []CatalogEntry{genericEntry(segment, ic.Year)}
	}
	entry := entries[rng.Pick(len(entries))]

	yearTo := entry.YearTo
	if yearTo <= 0 || yearTo > ic.Year {
		yearTo = ic.Year
	}
	yearFrom := entry.YearFrom
	if yearFrom <= 0 || yearFrom > yearTo {
		yearFrom = yearTo
	}
	year := yearFrom + rng.Intn(yearTo-yearFrom+1)
	age := ic.Year - year
	if age < 0 {
		age = 0
	}

	yearMult := math.Max(c.Inventory.MinYearMultiplier, 1-c.Inventory.YearDepreciation*float64(age))
	if entry.CostBias != 0 {
		baseCost *= 1 + entry.CostBias
	}
	market := baseCost * yearMult
	markup := rng.Range(c.Pricing.MarkupMin, c.Pricing.MarkupMax)

	condition := spec.Condition
	if condition == "" {
		condition = conditionForAge(age)
	}

	v := Vehicle{
		ID:          newID("vehicle", ic.Seed, spec.StockNumber),
		StockNumber: stockNumber(spec.StockNumber),
		Year:        year,
		Make:        entry.Make,
		Model:       entry.Model,
		Segment:     segment,
		Condition:   condition,
		IsBEV:       entry.IsBEV,
		Cost:        round100(baseCost),
		Floor:       baseCost * c.Pricing.FloorMultiplier,
		BaseAsking:  round100(market * markup),
		ReconCost:   round100(c.Pricing.ReconCost * rng.Range(0.7, 1.3)),
		PackFee:     c.Pricing.PackFee,
		ArrivalDay:  ic.DayIndex + 1,
		Status:      StatusPending,
	}
	v.Desirability = clamp(CalculateDesirability(v, ic.Season, ic.Demand)+spec.DesirabilityBias, 20, 100)
	v.Asking = policyAsking(v, ic.Pricing)
	return v
}

type packProfile struct {
	costMult float64
	segments []string
	bias     float64
}

func profileFor(t PackType) packProfile {
	switch t {
	case PackDesirable:
		return packProfile{costMult: 1.12, segments: []string{"suv", "truck", "luxury", "ev"}, bias: 10}
	case PackUndesirable:
		return packProfile{costMult: 0.88, segments: []string{"sedan", "compact", "convertible", "minivan"}, bias: -12}
	default:
		return packProfile{costMult: 1.0, segments: Segments()}
	}
}

// AcquirePack generates qty vehicles of the given pack type starting at stock
// number nextStock. Reconditioning is not part of TotalCost; it is charged
// when a vehicle is delivered.
func AcquirePack(ic InventoryContext, rng *RNG, packType PackType, qty int, avgCostPerUnit float64, nextStock int) (PackResult, error) {
	if _, err := ParsePackType(string(packType)); err != nil {
		return PackResult{}, err
	}
	maxQty := ic.Coefficients.Inventory.MaxPackSize
	if qty <= 0 || (maxQty > 0 && qty > maxQty) {
		return PackResult{}, fmt.Errorf("pack of %d: %w", qty, ErrInvalidQuantity)
	}
	profile := profileFor(packType)
	res := PackResult{Vehicles: make([]Vehicle, 0, qty)}
	for i := 0; i < qty; i++ {
		segment := profile.segments[rng.Pick(len(profile.segments))]
		baseCost := avgCostPerUnit * profile.costMult * rng.Range(0.9, 1.2)
		v := CreateVehicle(ic, rng, VehicleSpec{
			StockNumber:      nextStock + i,
			Segment:          segment,
			DesirabilityBias: profile.bias,
		}, baseCost)
		res.Vehicles = append(res.Vehicles, v)
		res.TotalCost += v.Cost + v.PackFee
	}
	res.NextStockNumber = nextStock + qty
	return res, nil
}

// EstimateDaysSupply converts a unit count into days of sales at the
// trailing 30-day pace.
func EstimateDaysSupply(inv []Vehicle, trailingSales int) float64 {
	if trailingSales == 0 {
		return float64(len(inv)) * 10
	}
	return float64(len(inv)) / float64(maxInt(1, trailingSales)) * 30
}
