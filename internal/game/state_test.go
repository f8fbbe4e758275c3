package game

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewStateSeedsDealership(t *testing.T) {
	s := NewState(NewGameConfig{Seed: 42, StartingCash: 2_000_000, SeedVehicles: 40}, DefaultTables())
	if len(s.Inventory) != 40 || s.NextStockNumber != 41 {
		t.Fatalf("inventory=%d next=%d", len(s.Inventory), s.NextStockNumber)
	}
	for _, v := range s.Inventory {
		if v.Status != StatusInStock || v.AgeDays < 1 {
			t.Fatalf("seed vehicles must be sellable on day one: %+v", v)
		}
		if v.Asking < v.Floor {
			t.Fatalf("seed vehicle under floor")
		}
	}
	if len(s.Advisors) == 0 || len(s.Technicians) == 0 {
		t.Fatalf("expected starting staff")
	}
	if s.Hour != OpeningHour || s.Day != 1 || s.Month != 1 || s.Paused {
		t.Fatalf("unexpected calendar %s hour=%d paused=%v", s.DateKey(), s.Hour, s.Paused)
	}
	if s.Today.StartingCash != 2_000_000 {
		t.Fatalf("ledger starting cash got=%v", s.Today.StartingCash)
	}

	again := NewState(NewGameConfig{Seed: 42, StartingCash: 2_000_000, SeedVehicles: 40}, DefaultTables())
	a, _ := json.Marshal(s)
	b, _ := json.Marshal(again)
	if string(a) != string(b) {
		t.Fatalf("same seed must build the same dealership")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := freshState(t)
	s.SalesManager = &SalesManager{Name: "Pat", Skill: 60}
	c := s.Clone()
	c.Inventory[0].Asking = 1
	c.Advisors[0].Morale = 1
	c.SalesManager.Skill = 1
	c.Today.AdvisorMorale["x"] = 3
	c.Notifications = append(c.Notifications, "hello")

	if s.Inventory[0].Asking == 1 || s.Advisors[0].Morale == 1 || s.SalesManager.Skill == 1 {
		t.Fatalf("clone shares nested data")
	}
	if _, ok := s.Today.AdvisorMorale["x"]; ok {
		t.Fatalf("clone shares ledger maps")
	}
	if len(s.Notifications) != 0 {
		t.Fatalf("clone shares notifications")
	}
}

func TestMemoryRepositoryHandsOutCopies(t *testing.T) {
	repo := NewMemoryRepository(freshState(t))
	s := repo.GetState()
	s.Cash = -1
	s.Inventory[0].Asking = -1
	if got := repo.GetState(); got.Cash == -1 || got.Inventory[0].Asking == -1 {
		t.Fatalf("repository state aliased by caller")
	}
	repo.SetState(s)
	s.Cash = 5
	if repo.GetState().Cash != -1 {
		t.Fatalf("set state must store a copy")
	}
}

func TestNormalizeRepairsLegacySnapshot(t *testing.T) {
	legacy := GameState{
		Hour:  3,
		Day:   45,
		Month: 0,
		Speed: 3,
		Cash:  10_000,
		Inventory: []Vehicle{
			{StockNumber: "D00001", Cost: 10_000, Asking: 5_000, Status: "weird"},
		},
		Coefficients: DefaultCoefficients(),
	}
	s := Normalize(legacy)
	if s.Hour != OpeningHour || s.Day != DaysPerMonth || s.Month != 1 || s.Year != DefaultStartYear || s.Speed != 1 {
		t.Fatalf("calendar not repaired: %+v", s)
	}
	v := s.Inventory[0]
	if math.Abs(v.Floor-10_200) > 1e-6 || v.Asking < v.Floor || v.Status != StatusInStock || v.ID == "" {
		t.Fatalf("vehicle not repaired: %+v", v)
	}
	if s.Today.AdvisorMorale == nil || s.RecentDeals == nil || s.Pricing.Policy != PolicyBalanced {
		t.Fatalf("collections not initialised")
	}
	if s.NextStockNumber != 2 {
		t.Fatalf("stock counter got=%d", s.NextStockNumber)
	}
	if legacy.Inventory[0].Asking != 5_000 {
		t.Fatalf("input mutated")
	}
}

func TestVehicleStatusAdvance(t *testing.T) {
	tests := []struct {
		from, to VehicleStatus
		ok       bool
	}{
		{StatusPending, StatusInStock, true},
		{StatusInStock, StatusSold, true},
		{StatusPending, StatusSold, true},
		{StatusSold, StatusInStock, false},
		{StatusInStock, StatusPending, false},
		{StatusInStock, VehicleStatus("lost"), false},
	}
	for _, tc := range tests {
		_, err := tc.from.Advance(tc.to)
		if (err == nil) != tc.ok {
			t.Fatalf("%s -> %s ok=%v err=%v", tc.from, tc.to, tc.ok, err)
		}
	}
}
