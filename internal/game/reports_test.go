package game

import "testing"

func TestBuildMonthlyReport(t *testing.T) {
	history := []DailyReport{
		{Year: 2024, Month: 1, Day: 29, UnitsSold: 3, DealsWorked: 6, FrontGross: 9000, ROsCompleted: 10, Comebacks: 1, CSI: 70, EndingCash: 10},
		{Year: 2024, Month: 2, Day: 1, UnitsSold: 2, DealsWorked: 4, FrontGross: 4000, ROsCompleted: 5, CSI: 80, EndingCash: 20},
		{Year: 2024, Month: 2, Day: 2, UnitsSold: 0, DealsWorked: 0, ROsCompleted: 5, Comebacks: 1, CSI: 90, EndingCash: 30},
	}
	m := BuildMonthlyReport(history, 2024, 2)
	if m.Key != "2024-02" || m.Days != 2 || m.UnitsSold != 2 {
		t.Fatalf("unexpected rollup %+v", m)
	}
	if m.ClosingRate != 0.5 || m.AvgFrontGross != 2000 || m.ComebackRate != 0.1 || m.AvgCSI != 85 || m.EndingCash != 30 {
		t.Fatalf("unexpected ratios %+v", m)
	}

	empty := BuildMonthlyReport(nil, 2024, 3)
	if empty.ClosingRate != 0 || empty.AvgFrontGross != 0 {
		t.Fatalf("empty month must not divide by zero: %+v", empty)
	}
}

func TestUpsertMonthlyReplacesSameKey(t *testing.T) {
	reports := []MonthlyReport{{Key: "2024-01", UnitsSold: 1}, {Key: "2024-02", UnitsSold: 2}}
	out := upsertMonthly(reports, MonthlyReport{Key: "2024-01", UnitsSold: 9})
	if len(out) != 2 || out[0].UnitsSold != 9 {
		t.Fatalf("expected replace, got %+v", out)
	}
	if reports[0].UnitsSold != 1 {
		t.Fatalf("input mutated")
	}
	out = upsertMonthly(out, MonthlyReport{Key: "2024-03"})
	if len(out) != 3 {
		t.Fatalf("expected append, got %d", len(out))
	}
}

func TestMonthlyReportRecomputedOnRepeatClose(t *testing.T) {
	s := freshState(t)
	s.Day, s.Hour, s.Paused = DaysPerMonth, ClosingHour, true
	s.MonthlyReports = []MonthlyReport{{Key: "2024-01", UnitsSold: 999}}
	e := NewEngine(NewMemoryRepository(s))
	got, _ := e.CloseOutDay(false)
	if len(got.MonthlyReports) != 1 || got.MonthlyReports[0].UnitsSold == 999 {
		t.Fatalf("month report must be replaced, got %+v", got.MonthlyReports)
	}
	if got.Month != 2 || got.Day != 1 {
		t.Fatalf("calendar got %s", got.DateKey())
	}
}
