package progression

import (
	"testing"

	"dealersim/internal/game"
)

func TestChecklistUnlocksOnce(t *testing.T) {
	s := game.NewState(game.NewGameConfig{Seed: 1, SeedVehicles: 0}, game.DefaultTables())
	s.Lifetime.UnitsSold = 12
	lot := s.Capacity.LotSize

	c := Default()
	s, notes := c.Check(s)
	if len(notes) != 2 {
		t.Fatalf("expected first_sale and units_10, got %v", notes)
	}
	if s.Capacity.LotSize != lot+10 {
		t.Fatalf("lot size got=%d want=%d", s.Capacity.LotSize, lot+10)
	}

	s, notes = c.Check(s)
	if len(notes) != 0 || s.Capacity.LotSize != lot+10 {
		t.Fatalf("milestones must not fire twice: %v", notes)
	}
}

func TestChecklistCustomMilestones(t *testing.T) {
	c := New(Milestone{
		ID:          "always",
		Description: "always true",
		Met:         func(game.GameState) bool { return true },
	})
	s, notes := c.Check(game.GameState{})
	if len(notes) != 1 || len(s.Unlocks) != 1 || s.Unlocks[0] != "always" {
		t.Fatalf("unexpected result %v %v", notes, s.Unlocks)
	}
	if len(c.Milestones()) != 1 {
		t.Fatalf("milestones accessor")
	}
}

func TestChecklistAsEngineProgression(t *testing.T) {
	s := game.NewState(game.NewGameConfig{Seed: 1, SeedVehicles: 5}, game.DefaultTables())
	s.Hour, s.Paused = game.ClosingHour, true
	s.Cash = 5_000_000
	e := game.NewEngine(game.NewMemoryRepository(s), game.WithProgression(Default()))
	got, rep := e.CloseOutDay(false)
	if rep == nil || len(rep.Notes) == 0 {
		t.Fatalf("report should carry milestone notes")
	}
	found := false
	for _, id := range got.Unlocks {
		if id == "cash_3m" {
			found = true
		}
	}
	if !found {
		t.Fatalf("cash milestone not recorded: %v", got.Unlocks)
	}
}
