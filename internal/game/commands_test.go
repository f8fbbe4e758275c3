package game

import (
	"errors"
	"reflect"
	"testing"
)

func freshState(t *testing.T) GameState {
	t.Helper()
	return NewState(NewGameConfig{Seed: 42, SeedVehicles: 10}, DefaultTables())
}

func TestAutoRestockUnaffordable(t *testing.T) {
	s := freshState(t)
	s.Cash = 1000
	for _, qty := range []int{1, 5, 25} {
		next, res, err := AutoRestock(s, DefaultTables(), NewRNG(1), PackRequest{Type: "neutral", Quantity: qty})
		if err != nil {
			t.Fatalf("qty=%d unexpected error: %v", qty, err)
		}
		if res.CashSpent != 0 || res.Added != 0 {
			t.Fatalf("qty=%d spent=%v added=%d", qty, res.CashSpent, res.Added)
		}
		if len(next.Inventory) != len(s.Inventory) || next.Cash != 1000 {
			t.Fatalf("qty=%d state changed", qty)
		}
	}
}

func TestAutoRestockBuysAffordablePrefix(t *testing.T) {
	s := freshState(t)
	s.Cash = 100_000
	next, res, err := AutoRestock(s, DefaultTables(), NewRNG(1), PackRequest{Type: "neutral", Quantity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Added == 0 || res.Added == 10 {
		t.Fatalf("expected a partial buy, added %d", res.Added)
	}
	if next.Cash != s.Cash-res.CashSpent || len(next.Inventory) != len(s.Inventory)+res.Added {
		t.Fatalf("cash or inventory mismatch")
	}
	if next.Cash < 0 {
		t.Fatalf("overspent: %v", next.Cash)
	}
}

func TestPurchasePack(t *testing.T) {
	s := freshState(t)
	next, res, err := PurchasePack(s, DefaultTables(), NewRNG(2), PackRequest{Type: "desirable", Quantity: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Cash != s.Cash-res.TotalCost || next.Today.CapitalSpend != res.TotalCost {
		t.Fatalf("cash not charged")
	}
	if next.NextStockNumber != s.NextStockNumber+4 {
		t.Fatalf("stock counter got=%d", next.NextStockNumber)
	}
	for _, v := range next.Inventory[len(s.Inventory):] {
		if v.Status != StatusPending {
			t.Fatalf("purchased vehicles arrive pending")
		}
	}
}

func TestCommandErrorsLeaveStateUnchanged(t *testing.T) {
	tables := DefaultTables()
	broke := freshState(t)
	broke.Cash = 10
	full := freshState(t)
	full.Capacity.AdvisorSlots = len(full.Advisors)
	lot := freshState(t)
	lot.Capacity.LotSize = len(lot.Inventory) + 1

	tests := []struct {
		name  string
		state GameState
		run   func(GameState) (GameState, error)
		want  error
	}{
		{"hire broke", broke, func(s GameState) (GameState, error) {
			next, _, err := HireAdvisor(s, tables, NewRNG(1), HireRequest{Archetype: "closer"})
			return next, err
		}, ErrInsufficientFunds},
		{"hire unknown archetype", freshState(t), func(s GameState) (GameState, error) {
			next, _, err := HireAdvisor(s, tables, NewRNG(1), HireRequest{Archetype: "wizard"})
			return next, err
		}, ErrUnknownArchetype},
		{"hire over capacity", full, func(s GameState) (GameState, error) {
			next, _, err := HireAdvisor(s, tables, NewRNG(1), HireRequest{Archetype: "closer"})
			return next, err
		}, ErrCapacityReached},
		{"hire tech unknown", freshState(t), func(s GameState) (GameState, error) {
			next, _, err := HireTechnician(s, tables, NewRNG(1), HireRequest{Archetype: "closer"})
			return next, err
		}, ErrUnknownArchetype},
		{"pack broke", broke, func(s GameState) (GameState, error) {
			next, _, err := PurchasePack(s, tables, NewRNG(1), PackRequest{Type: "neutral", Quantity: 1})
			return next, err
		}, ErrInsufficientFunds},
		{"pack bad type", freshState(t), func(s GameState) (GameState, error) {
			next, _, err := PurchasePack(s, tables, NewRNG(1), PackRequest{Type: "lemons", Quantity: 1})
			return next, err
		}, ErrInvalidPackType},
		{"pack lot full", lot, func(s GameState) (GameState, error) {
			next, _, err := PurchasePack(s, tables, NewRNG(1), PackRequest{Type: "neutral", Quantity: 2})
			return next, err
		}, ErrCapacityReached},
		{"price below floor", freshState(t), func(s GameState) (GameState, error) {
			next, _, err := AdjustVehiclePrice(s, s.Inventory[0].ID, s.Inventory[0].Floor-1)
			return next, err
		}, ErrBelowFloor},
		{"price unknown vehicle", freshState(t), func(s GameState) (GameState, error) {
			next, _, err := AdjustVehiclePrice(s, "nope", 10_000)
			return next, err
		}, ErrVehicleNotFound},
		{"bad policy", freshState(t), func(s GameState) (GameState, error) {
			return SetPricingPolicy(s, PricingUpdate{Policy: "random"})
		}, ErrInvalidPolicy},
		{"bad speed", freshState(t), func(s GameState) (GameState, error) {
			return SetSpeed(s, 3)
		}, ErrInvalidSpeed},
		{"negative marketing", freshState(t), func(s GameState) (GameState, error) {
			return SetMarketingSpend(s, -1)
		}, ErrInvalidAmount},
		{"unknown staff", freshState(t), func(s GameState) (GameState, error) {
			return SetStaffActive(s, "adv-999", false)
		}, ErrStaffNotFound},
	}
	for _, tc := range tests {
		before := tc.state.Clone()
		got, err := tc.run(tc.state)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got err %v want %v", tc.name, err, tc.want)
		}
		if !reflect.DeepEqual(got, before) || !reflect.DeepEqual(tc.state, before) {
			t.Fatalf("%s: state changed on error", tc.name)
		}
	}
}

func TestHireAdvisor(t *testing.T) {
	s := freshState(t)
	next, a, err := HireAdvisor(s, DefaultTables(), NewRNG(3), HireRequest{Name: "Sam Ortiz", Archetype: "closer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next.Advisors) != len(s.Advisors)+1 || !a.Active || a.Name != "Sam Ortiz" {
		t.Fatalf("advisor not added: %+v", a)
	}
	if next.Cash != s.Cash-s.Coefficients.Finance.HireFee {
		t.Fatalf("hire fee not charged")
	}
	if len(s.Advisors) == len(next.Advisors) {
		t.Fatalf("input state was mutated")
	}
}

func TestSetStaffActiveRespectsCapacity(t *testing.T) {
	s := freshState(t)
	id := s.Advisors[0].ID
	s, err := SetStaffActive(s, id, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	s.Capacity.AdvisorSlots = len(s.activeAdvisors())
	if _, err := SetStaffActive(s, id, true); !errors.Is(err, ErrCapacityReached) {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestTrainAdvisor(t *testing.T) {
	s := freshState(t)
	id := s.Advisors[0].ID
	for i := 0; i < MaxTraining; i++ {
		var err error
		s, _, err = TrainAdvisor(s, id)
		if err != nil {
			t.Fatalf("training %d: %v", i, err)
		}
	}
	if _, _, err := TrainAdvisor(s, id); !errors.Is(err, ErrTrainingMaxed) {
		t.Fatalf("expected training maxed, got %v", err)
	}
}

func TestSetPricingPolicyReprices(t *testing.T) {
	s := freshState(t)
	next, err := SetPricingPolicy(s, PricingUpdate{Policy: "conservative"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raised := 0
	for i, v := range next.Inventory {
		if v.Asking < v.Floor {
			t.Fatalf("repriced below floor")
		}
		if v.Asking > s.Inventory[i].Asking {
			raised++
		}
	}
	if raised == 0 {
		t.Fatalf("conservative policy should raise prices")
	}

	bad := 0.9
	if _, err := SetPricingPolicy(s, PricingUpdate{Policy: "market", AgingDiscount90: &bad}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid discount, got %v", err)
	}
}

func TestAdjustVehiclePriceSurvivesRepricing(t *testing.T) {
	s := freshState(t)
	v := s.Inventory[0]
	target := v.Asking + 1500
	s, got, err := AdjustVehiclePrice(s, v.StockNumber, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Asking != target {
		t.Fatalf("asking got=%v want=%v", got.Asking, target)
	}
	s, err = SetPricingPolicy(s, PricingUpdate{Policy: string(s.Pricing.Policy)})
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if s.Inventory[0].Asking != target {
		t.Fatalf("manual offset lost: got %v want %v", s.Inventory[0].Asking, target)
	}
}

func TestResumeRefusedWhileCloseoutPending(t *testing.T) {
	s := freshState(t)
	s.Hour, s.Paused = ClosingHour, true
	if _, err := Resume(s); !errors.Is(err, ErrCloseoutPending) {
		t.Fatalf("expected close-out pending, got %v", err)
	}
	s.Hour = 15
	next, err := Resume(s)
	if err != nil || next.Paused {
		t.Fatalf("resume mid-day: paused=%v err=%v", next.Paused, err)
	}

	s.Hour, s.Paused = ClosingHour, false
	if _, err := Resume(s); err != nil {
		t.Fatalf("resume at closing hour before the gate: %v", err)
	}
}

func TestUpdateCoefficientsRejectsOutOfRange(t *testing.T) {
	s := freshState(t)
	for _, patch := range []map[string]any{
		{"leads": map[string]any{"base_per_day": 2e7}},
		{"service": map[string]any{"queue_target_hours": 1e6}},
		{"inventory": map[string]any{"max_pack_size": 0}},
		{"finance": map[string]any{"back_gross_prob": 1.5}},
		{"economy": map[string]any{"min_demand": 2.0, "max_demand": 1.0}},
	} {
		got, err := UpdateCoefficients(s, patch)
		if !errors.Is(err, ErrBadCoefficients) {
			t.Fatalf("patch %v: expected bad coefficients, got %v", patch, err)
		}
		if got.Coefficients != s.Coefficients {
			t.Fatalf("patch %v changed coefficients", patch)
		}
	}

	next, err := UpdateCoefficients(s, map[string]any{"leads": map[string]any{"base_per_day": 80.0}})
	if err != nil || next.Coefficients.Leads.BasePerDay != 80 {
		t.Fatalf("in-range patch: %v %v", next.Coefficients.Leads.BasePerDay, err)
	}
}

func TestHireSalesManagerOnce(t *testing.T) {
	s := freshState(t)
	s, m, err := HireSalesManager(s, NewRNG(1), "Pat")
	if err != nil || m.Skill == 0 {
		t.Fatalf("hire manager: %+v %v", m, err)
	}
	if _, _, err := HireSalesManager(s, NewRNG(1), "Lee"); !errors.Is(err, ErrCapacityReached) {
		t.Fatalf("second manager must be refused, got %v", err)
	}
}
