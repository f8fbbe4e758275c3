package game

import (
	"math"
	"testing"
)

func TestHourMultiplier(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{9, 0.6}, {10, 1.3}, {14, 1.3}, {15, 1.0}, {16, 1.0}, {17, 1.2}, {20, 1.2}, {21, 0.6},
	}
	for _, tc := range tests {
		if got := HourMultiplier(tc.hour); got != tc.want {
			t.Fatalf("hour=%d got=%v want=%v", tc.hour, got, tc.want)
		}
	}
}

func TestComputeLeadVolume(t *testing.T) {
	c := DefaultCoefficients()
	econ := Economy{DemandIndex: 1, WeatherFactor: 1, IncentiveLevel: 0}
	if got := ComputeLeadVolume(Marketing{}, econ, c); math.Abs(got-c.Leads.BasePerDay) > 1e-9 {
		t.Fatalf("no spend, neutral economy got=%v want=%v", got, c.Leads.BasePerDay)
	}

	low := ComputeLeadVolume(Marketing{SpendPerDay: 1000}, econ, c)
	high := ComputeLeadVolume(Marketing{SpendPerDay: 2000}, econ, c)
	higher := ComputeLeadVolume(Marketing{SpendPerDay: 3000}, econ, c)
	if !(low < high && high < higher) {
		t.Fatalf("spend should raise leads: %v %v %v", low, high, higher)
	}
	if higher-high >= high-low {
		t.Fatalf("marketing returns should diminish")
	}

	stormy := ComputeLeadVolume(Marketing{}, Economy{DemandIndex: 1, WeatherFactor: 0}, c)
	if math.Abs(stormy-c.Leads.BasePerDay*0.6) > 1e-9 {
		t.Fatalf("worst weather should cost 40%%, got %v", stormy)
	}
}

func TestComputeClosingProbabilityClamped(t *testing.T) {
	c := DefaultCoefficients().Sales
	extremes := []ClosingInput{
		{
			Advisor:     SalesAdvisor{Skill: 1e6, Morale: 1e6},
			Archetype:   AdvisorArchetype{CloseMod: 50},
			Customer:    Customer{CloseBias: 50},
			Vehicle:     Vehicle{Desirability: 1e6, Asking: 1, Cost: 1},
			DemandIndex: 1e6,
		},
		{
			Advisor:     SalesAdvisor{Skill: -1e6, Morale: -1e6},
			Archetype:   AdvisorArchetype{CloseMod: -50},
			Customer:    Customer{CloseBias: -50, PriceSensitivity: 10},
			Vehicle:     Vehicle{Desirability: -1e6, Asking: 1e9, Cost: 1},
			DemandIndex: -1e6,
		},
		{
			Vehicle: Vehicle{Asking: 0, Cost: 0},
		},
		{
			Advisor:     SalesAdvisor{Skill: math.MaxFloat64, Morale: -math.MaxFloat64},
			Vehicle:     Vehicle{Desirability: 60, Asking: 30_000, Cost: 25_000},
			DemandIndex: 1,
		},
	}
	for i, in := range extremes {
		in.Coefficients = c
		p := ComputeClosingProbability(in)
		if math.IsNaN(p) || p < 0.05 || p > 0.95 {
			t.Fatalf("case %d probability %v out of [0.05,0.95]", i, p)
		}
	}
}

func TestClosingProbabilityRespondsToPriceGap(t *testing.T) {
	base := ClosingInput{
		Advisor:      SalesAdvisor{Skill: 60, Morale: 70},
		Customer:     Customer{PriceSensitivity: 0.5},
		Vehicle:      Vehicle{Desirability: 60, Asking: 30_000, Cost: 28_000},
		DemandIndex:  1,
		Coefficients: DefaultCoefficients().Sales,
	}
	cheap := ComputeClosingProbability(base)
	base.Vehicle.Asking = 40_000
	pricey := ComputeClosingProbability(base)
	if pricey >= cheap {
		t.Fatalf("bigger markup should close less: cheap=%v pricey=%v", cheap, pricey)
	}
}

func TestSelectVehicle(t *testing.T) {
	inv := []Vehicle{
		{ID: "fresh", StockNumber: "D00001", Status: StatusInStock, AgeDays: 0, Desirability: 99},
		{ID: "pending", StockNumber: "D00002", Status: StatusPending, AgeDays: 5, Desirability: 98},
		{ID: "gas-b", StockNumber: "D00004", Status: StatusInStock, AgeDays: 3, Desirability: 80},
		{ID: "gas-a", StockNumber: "D00003", Status: StatusInStock, AgeDays: 3, Desirability: 80},
		{ID: "bev", StockNumber: "D00005", Status: StatusInStock, AgeDays: 3, Desirability: 40, IsBEV: true},
	}

	if idx := SelectVehicle(inv, Customer{}, nil); inv[idx].ID != "gas-a" {
		t.Fatalf("expected tie broken by lowest stock number, got %s", inv[idx].ID)
	}
	if idx := SelectVehicle(inv, Customer{BEVAffinity: 0.8}, nil); inv[idx].ID != "bev" {
		t.Fatalf("ev shopper should get the ev, got %s", inv[idx].ID)
	}
	taken := map[string]bool{"bev": true}
	if idx := SelectVehicle(inv, Customer{BEVAffinity: 0.8}, taken); inv[idx].ID != "gas-a" {
		t.Fatalf("ev shopper falls back to full pool, got %s", inv[idx].ID)
	}
	only := inv[:2]
	if idx := SelectVehicle(only, Customer{}, nil); idx != -1 {
		t.Fatalf("same-day and pending vehicles are not sellable, got %d", idx)
	}
}

func TestComputeSoldPriceNeverUnderFloor(t *testing.T) {
	c := DefaultCoefficients()
	c.Sales.MaxDiscountPct = 0.5
	v := Vehicle{Asking: 20_000, Floor: 19_900}
	rng := NewRNG(8)
	for i := 0; i < 500; i++ {
		if p := ComputeSoldPrice(v, Customer{PriceSensitivity: 1}, AdvisorArchetype{}, Economy{}, c, rng); p < v.Floor {
			t.Fatalf("sold %v under floor %v", p, v.Floor)
		}
	}
}

func TestSoldPriceAndCsiFollowGrossAndCsiModifiers(t *testing.T) {
	c := DefaultCoefficients()
	c.Sales.VariancePct = 0
	v := Vehicle{Asking: 30_000, Floor: 20_000}
	plain := ComputeSoldPrice(v, Customer{}, AdvisorArchetype{}, Economy{}, c, NewRNG(3))
	haggler := ComputeSoldPrice(v, Customer{GrossBias: -0.3}, AdvisorArchetype{}, Economy{}, c, NewRNG(3))
	holder := ComputeSoldPrice(v, Customer{}, AdvisorArchetype{GrossMod: 0.1}, Economy{}, c, NewRNG(3))
	if plain != 30_000 {
		t.Fatalf("plain price got=%v want=30000", plain)
	}
	if haggler != math.Round(30_000-30_000*c.Sales.MaxDiscountPct*0.3) {
		t.Fatalf("gross bias not applied: %v", haggler)
	}
	if holder != math.Round(30_000+30_000*c.Sales.MaxDiscountPct*0.1) {
		t.Fatalf("gross modifier not applied: %v", holder)
	}

	base := ComputeCsiImpact(SalesAdvisor{CsiSkill: 50}, AdvisorArchetype{}, Customer{})
	warm := ComputeCsiImpact(SalesAdvisor{CsiSkill: 50}, AdvisorArchetype{CsiMod: 0.3}, Customer{})
	if math.Abs(warm-base-1.5) > 1e-9 {
		t.Fatalf("csi modifier not applied: base=%v warm=%v", base, warm)
	}
}

func TestComputeBackGrossAllOrNothing(t *testing.T) {
	c := DefaultCoefficients()
	adv := SalesAdvisor{GrossSkill: 70}
	want := c.Finance.AvgBackGross * 1.2
	rng := NewRNG(21)
	hits := 0
	for i := 0; i < 1000; i++ {
		got := ComputeBackGross(adv, AdvisorArchetype{}, Economy{InterestRate: 0.05}, c, rng)
		switch {
		case got == 0:
		case math.Abs(got-want) < 1e-9:
			hits++
		default:
			t.Fatalf("back gross %v is neither 0 nor %v", got, want)
		}
	}
	if hits == 0 || hits == 1000 {
		t.Fatalf("expected a mix of hits and misses, got %d", hits)
	}
}

func TestComputeFrontGrossAndCsi(t *testing.T) {
	c := DefaultCoefficients()
	v := Vehicle{Cost: 20_000, ReconCost: 800, PackFee: 500}
	got := ComputeFrontGross(v, 25_000, c)
	want := 25_000 - 21_300 + 25_000*c.Pricing.HoldbackPct
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("front gross got=%v want=%v", got, want)
	}
	if csi := ComputeCsiImpact(SalesAdvisor{CsiSkill: 50}, AdvisorArchetype{}, Customer{CsiBias: 0.2}); math.Abs(csi-6) > 1e-9 {
		t.Fatalf("csi got=%v want=6", csi)
	}
	if csi := ComputeCsiImpact(SalesAdvisor{CsiSkill: 0}, AdvisorArchetype{}, Customer{CsiBias: -9}); csi != -25 {
		t.Fatalf("csi floor got=%v want=-25", csi)
	}
}

func TestSimulateSalesHourNoAdvisors(t *testing.T) {
	s := NewState(NewGameConfig{Seed: 9, SeedVehicles: 10}, DefaultTables())
	in := s.salesHourInput(DefaultTables())
	in.Hour = 11
	in.Advisors = nil
	res := SimulateSalesHour(in, NewRNG(9))
	if res.DealsWorked != 0 || len(res.Deals) != 0 || res.CashDelta != 0 {
		t.Fatalf("no advisors means no deals: %+v", res)
	}
	if res.Leads == 0 {
		t.Fatalf("leads still arrive without advisors")
	}
}

func TestSimulateSalesHourDealsAreConsistent(t *testing.T) {
	s := NewState(NewGameConfig{Seed: 17, SeedVehicles: 30}, DefaultTables())
	in := s.salesHourInput(DefaultTables())
	in.Hour = 12
	rng := NewRNG(17)
	for i := 0; i < 20; i++ {
		res := SimulateSalesHour(in, rng)
		if len(res.Deals) != len(res.SoldIDs) {
			t.Fatalf("deals and sold ids disagree")
		}
		seen := map[string]bool{}
		cash := 0.0
		for _, d := range res.Deals {
			if seen[d.VehicleID] {
				t.Fatalf("vehicle %s sold twice in one hour", d.VehicleID)
			}
			seen[d.VehicleID] = true
			if d.AgeDays <= 0 {
				t.Fatalf("deal on a same-day arrival: %+v", d)
			}
			cash += d.CashIn
		}
		if math.Abs(cash-res.CashDelta) > 1e-6 {
			t.Fatalf("cash delta got=%v want=%v", res.CashDelta, cash)
		}
	}
}
