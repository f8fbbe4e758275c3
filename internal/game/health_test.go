package game

import "testing"

func TestHealthCheckStarving(t *testing.T) {
	s := freshState(t)
	s, err := UpdateCoefficients(s, map[string]any{
		"finance":    map[string]any{"avg_back_gross": 100},
		"guardrails": map[string]any{"target_replacement_gross": 6000},
	})
	if err != nil {
		t.Fatalf("update coefficients: %v", err)
	}
	rep := HealthCheck(s)
	if !rep.Starving {
		t.Fatalf("expected starving, got %+v", rep)
	}
	if len(rep.Warnings) == 0 {
		t.Fatalf("starving should raise a warning")
	}
}

func TestHealthCheckHealthyDefaults(t *testing.T) {
	s := freshState(t)
	rep := HealthCheck(s)
	if rep.Starving {
		t.Fatalf("default coefficients should not starve: %+v", rep)
	}
	if rep.TrailingUnits != 0 || rep.DaysSupply != float64(len(s.Inventory))*10 {
		t.Fatalf("no history: units=%d supply=%v", rep.TrailingUnits, rep.DaysSupply)
	}
	if rep.CashRunwayDays <= 0 {
		t.Fatalf("runway must be positive with cash on hand")
	}
}

func TestHealthCheckUsesTrailingGross(t *testing.T) {
	s := freshState(t)
	s.DailyHistory = []DailyReport{
		{UnitsSold: 2, FrontGross: 1000, OperatingExpenses: 5000},
		{UnitsSold: 2, FrontGross: 1000, OperatingExpenses: 5000},
	}
	rep := HealthCheck(s)
	if rep.AvgFrontGross != 500 {
		t.Fatalf("avg front gross got=%v want=500", rep.AvgFrontGross)
	}
	if rep.DailyBurn != 5000 {
		t.Fatalf("daily burn got=%v want=5000", rep.DailyBurn)
	}
	if !rep.Starving {
		t.Fatalf("thin front gross should starve the store")
	}
}
