package game

import "fmt"

// HealthCheck compares the gross a replacement unit is expected to earn with
// the target, and reports supply and cash runway.
func HealthCheck(s GameState) HealthReport {
	c := s.Coefficients
	front, units := 0.0, 0
	start := maxInt(0, len(s.DailyHistory)-DaysPerMonth)
	recent := s.DailyHistory[start:]
	for _, r := range recent {
		front += r.FrontGross
		units += r.UnitsSold
	}
	avgFront := c.Guardrails.AssumedFrontGross
	if units > 0 {
		avgFront = front / float64(units)
	}

	rep := HealthReport{
		AvgFrontGross:     avgFront,
		ExpectedBackGross: c.Finance.AvgBackGross * c.Finance.BackGrossProb,
		TargetGross:       c.Guardrails.TargetReplacementGross,
		TrailingUnits:     units,
		DaysSupply:        EstimateDaysSupply(s.Inventory, units),
		Warnings:          []string{},
	}
	rep.ExpectedGrossPerUnit = rep.AvgFrontGross + rep.ExpectedBackGross
	rep.Starving = rep.ExpectedGrossPerUnit < rep.TargetGross

	rep.DailyBurn = dailyBurn(s)
	rep.CashRunwayDays = safeDiv(s.Cash, rep.DailyBurn)

	if rep.Starving {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("expected gross per unit %.0f is below target %.0f", rep.ExpectedGrossPerUnit, rep.TargetGross))
	}
	if rep.DaysSupply < c.Guardrails.MinDaysSupply {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("only %.0f days of supply on the lot", rep.DaysSupply))
	}
	if rep.DaysSupply > c.Guardrails.MaxDaysSupply {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("overstocked at %.0f days of supply", rep.DaysSupply))
	}
	if rep.CashRunwayDays < c.Guardrails.MinRunwayDays {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("cash covers %.0f days of fixed costs", rep.CashRunwayDays))
	}
	return rep
}

// dailyBurn averages fixed daily costs over the last week of reports, or
// estimates them from current staff when there is no history yet.
func dailyBurn(s GameState) float64 {
	n := len(s.DailyHistory)
	if n > 0 {
		start := maxInt(0, n-7)
		total := 0.0
		for _, r := range s.DailyHistory[start:] {
			total += r.OperatingExpenses + r.FloorPlanInterest + r.MarketingSpend
		}
		return total / float64(n-start)
	}
	c := s.Coefficients.Finance
	burn := c.FacilityBase + c.PerSlotCost*float64(s.Capacity.LotSize) + c.Overhead + s.Marketing.SpendPerDay
	for _, a := range s.Advisors {
		if a.Active {
			burn += a.DailySalary
		}
	}
	for _, t := range s.Technicians {
		if t.Active {
			burn += t.DailySalary
		}
	}
	if s.SalesManager != nil {
		burn += s.SalesManager.DailySalary
	}
	burn += floorPlanInterest(s.Inventory, s.Economy.InterestRate, c)
	return burn
}
