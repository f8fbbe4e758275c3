package game

import (
	"errors"
	"math"
	"testing"
)

func testContext() InventoryContext {
	return InventoryContext{
		Catalog:      DefaultCatalog(),
		Coefficients: DefaultCoefficients(),
		Pricing:      PricingState{Policy: PolicyBalanced, AgingDiscount60: 0.03, AgingDiscount90: 0.06},
		Season:       "winter",
		Demand:       1,
		Year:         DefaultStartYear,
		DayIndex:     100,
		Seed:         42,
	}
}

func TestApplyPricingPolicy(t *testing.T) {
	discounts := PricingState{AgingDiscount60: 0.05, AgingDiscount90: 0.10}
	tests := []struct {
		policy       PricingPolicy
		desirability float64
		age          int
		want         float64
	}{
		{policy: PolicyAggressive, desirability: 50, age: 0, want: 9500},
		{policy: PolicyBalanced, desirability: 50, age: 0, want: 10000},
		{policy: PolicyConservative, desirability: 50, age: 0, want: 10500},
		{policy: PolicyMarket, desirability: 85, age: 0, want: 10800},
		{policy: PolicyMarket, desirability: 60, age: 0, want: 10200},
		{policy: PolicyMarket, desirability: 40, age: 0, want: 9800},
		{policy: PolicyMarket, desirability: 39, age: 0, want: 9200},
		{policy: PolicyBalanced, desirability: 50, age: 60, want: 9500},
		{policy: PolicyBalanced, desirability: 50, age: 95, want: 9000},
	}
	for _, tc := range tests {
		got := ApplyPricingPolicy(10000, tc.policy, tc.desirability, tc.age, discounts)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("policy=%s des=%v age=%d got=%v want=%v", tc.policy, tc.desirability, tc.age, got, tc.want)
		}
	}
}

func TestCalculateDesirabilityBonusesAndClamp(t *testing.T) {
	suv := Vehicle{Segment: "suv", Condition: "used"}
	if w, s := CalculateDesirability(suv, "winter", 1), CalculateDesirability(suv, "summer", 1); w-s != 10 {
		t.Fatalf("suv winter bonus: winter=%v summer=%v", w, s)
	}
	conv := Vehicle{Segment: "convertible", Condition: "used"}
	if s, w := CalculateDesirability(conv, "summer", 1), CalculateDesirability(conv, "winter", 1); s-w != 15 {
		t.Fatalf("convertible summer bonus: summer=%v winter=%v", s, w)
	}
	if got := CalculateDesirability(Vehicle{Segment: "suv", Condition: "new"}, "winter", 5); got != 100 {
		t.Fatalf("expected clamp at 100, got %v", got)
	}
	if got := CalculateDesirability(Vehicle{Segment: "convertible", Condition: "rough"}, "winter", -5); got != 20 {
		t.Fatalf("expected clamp at 20, got %v", got)
	}
}

func TestCreateVehicleInvariants(t *testing.T) {
	ic := testContext()
	rng := NewRNG(5)
	for _, policy := range []PricingPolicy{PolicyAggressive, PolicyBalanced, PolicyConservative, PolicyMarket} {
		ic.Pricing.Policy = policy
		for i := 0; i < 200; i++ {
			base := rng.Range(8_000, 60_000)
			v := CreateVehicle(ic, rng, VehicleSpec{StockNumber: i + 1}, base)
			if v.Asking < v.Floor {
				t.Fatalf("asking %v below floor %v (policy %s)", v.Asking, v.Floor, policy)
			}
			if v.Floor != base*ic.Coefficients.Pricing.FloorMultiplier {
				t.Fatalf("floor must stay exact: got %v", v.Floor)
			}
			if math.Mod(v.Asking, 100) != 0 || math.Mod(v.Cost, 100) != 0 || math.Mod(v.BaseAsking, 100) != 0 {
				t.Fatalf("money fields must be rounded to 100: %+v", v)
			}
			if v.Status != StatusPending || v.ArrivalDay != ic.DayIndex+1 {
				t.Fatalf("new vehicle must be pending for next day: %+v", v)
			}
			if v.Desirability < 20 || v.Desirability > 100 {
				t.Fatalf("desirability %v out of range", v.Desirability)
			}
		}
	}
}

func TestCreateVehicleUnknownSegmentFallsBack(t *testing.T) {
	v := CreateVehicle(testContext(), NewRNG(3), VehicleSpec{StockNumber: 1, Segment: "hovercraft"}, 20_000)
	if v.Make != "Generic" || v.Model != "Hovercraft" {
		t.Fatalf("expected generic placeholder, got %s %s", v.Make, v.Model)
	}
}

func TestAgeInventoryKeepsFloorAndSkipsPending(t *testing.T) {
	c := DefaultCoefficients()
	pricing := PricingState{Policy: PolicyBalanced, AgingDiscount60: 0.03, AgingDiscount90: 0.06}
	inv := []Vehicle{
		{ID: "a", Status: StatusInStock, Asking: 20_100, BaseAsking: 24_000, Floor: 20_000, Desirability: 30, AgeDays: 10},
		{ID: "b", Status: StatusPending, Asking: 30_000, Floor: 25_000, Desirability: 60},
	}
	for day := 0; day < 200; day++ {
		inv = AgeInventory(inv, 0.6, pricing, c)
		if inv[0].Asking < inv[0].Floor {
			t.Fatalf("day %d asking %v below floor %v", day, inv[0].Asking, inv[0].Floor)
		}
	}
	if inv[0].AgeDays != 210 {
		t.Fatalf("age got=%d want=210", inv[0].AgeDays)
	}
	if inv[0].Desirability < c.Inventory.DesirabilityFloor {
		t.Fatalf("desirability %v fell under floor", inv[0].Desirability)
	}
	if inv[1].AgeDays != 0 || inv[1].Asking != 30_000 {
		t.Fatalf("pending vehicle must not age: %+v", inv[1])
	}
}

func TestAgeInventoryRepricesAtSixtyDays(t *testing.T) {
	c := DefaultCoefficients()
	pricing := PricingState{Policy: PolicyBalanced, AgingDiscount60: 0.10, AgingDiscount90: 0.20}
	inv := []Vehicle{{ID: "a", Status: StatusInStock, Asking: 30_000, BaseAsking: 30_000, Floor: 10_000, Desirability: 100, AgeDays: 59}}
	out := AgeInventory(inv, 1.5, pricing, c)
	if out[0].Asking > 27_000 {
		t.Fatalf("expected 60-day discount ceiling, asking=%v", out[0].Asking)
	}
	if inv[0].AgeDays != 59 {
		t.Fatalf("input slice was mutated")
	}
}

func TestAcquirePack(t *testing.T) {
	ic := testContext()
	res, err := AcquirePack(ic, NewRNG(11), PackDesirable, 5, 28_000, 41)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Vehicles) != 5 || res.NextStockNumber != 46 {
		t.Fatalf("got %d vehicles next=%d", len(res.Vehicles), res.NextStockNumber)
	}
	total := 0.0
	for _, v := range res.Vehicles {
		total += v.Cost + v.PackFee
		if v.ReconCharged {
			t.Fatalf("recon must be deferred to delivery")
		}
	}
	if math.Abs(total-res.TotalCost) > 1e-6 {
		t.Fatalf("total cost got=%v want=%v", res.TotalCost, total)
	}
	if res.Vehicles[0].StockNumber != "D00041" {
		t.Fatalf("stock number got=%s", res.Vehicles[0].StockNumber)
	}

	if _, err := AcquirePack(ic, NewRNG(1), PackType("mystery"), 3, 28_000, 1); !errors.Is(err, ErrInvalidPackType) {
		t.Fatalf("expected invalid pack type, got %v", err)
	}
	for _, qty := range []int{0, -1, 26} {
		if _, err := AcquirePack(ic, NewRNG(1), PackNeutral, qty, 28_000, 1); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty=%d expected invalid quantity, got %v", qty, err)
		}
	}
}

func TestPackTypeCostOrdering(t *testing.T) {
	ic := testContext()
	avg := func(pt PackType) float64 {
		res, err := AcquirePack(ic, NewRNG(77), pt, 25, 28_000, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res.TotalCost / 25
	}
	if d, u := avg(PackDesirable), avg(PackUndesirable); d <= u {
		t.Fatalf("desirable packs should cost more: desirable=%v undesirable=%v", d, u)
	}
}

func TestEstimateDaysSupply(t *testing.T) {
	inv := make([]Vehicle, 12)
	tests := []struct {
		trailing int
		want     float64
	}{
		{trailing: 0, want: 120},
		{trailing: 1, want: 360},
		{trailing: 12, want: 30},
		{trailing: 36, want: 10},
	}
	for _, tc := range tests {
		if got := EstimateDaysSupply(inv, tc.trailing); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("trailing=%d got=%v want=%v", tc.trailing, got, tc.want)
		}
	}
}
