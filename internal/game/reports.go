package game

import "fmt"

func dateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// BuildMonthlyReport rolls the daily reports for one calendar month into a
// single row.
func BuildMonthlyReport(history []DailyReport, year, month int) MonthlyReport {
	m := MonthlyReport{Key: monthKey(year, month), Year: year, Month: month}
	comebacks := 0
	csi := 0.0
	for _, r := range history {
		if r.Year != year || r.Month != month {
			continue
		}
		m.Days++
		m.Leads += r.Leads
		m.DealsWorked += r.DealsWorked
		m.UnitsSold += r.UnitsSold
		m.Revenue += r.Revenue
		m.FrontGross += r.FrontGross
		m.BackGross += r.BackGross
		m.PartsRevenue += r.PartsRevenue
		m.ROsCompleted += r.ROsCompleted
		m.OperatingExpenses += r.OperatingExpenses
		m.FloorPlanInterest += r.FloorPlanInterest
		m.MarketingSpend += r.MarketingSpend
		m.NetCashFlow += r.NetCashFlow
		m.EndingCash = r.EndingCash
		comebacks += r.Comebacks
		csi += r.CSI
	}
	m.ClosingRate = safeDiv(float64(m.UnitsSold), float64(m.DealsWorked))
	m.AvgFrontGross = safeDiv(m.FrontGross, float64(m.UnitsSold))
	m.ComebackRate = safeDiv(float64(comebacks), float64(m.ROsCompleted))
	m.AvgCSI = safeDiv(csi, float64(m.Days))
	return m
}

// upsertMonthly replaces the report with the same key or appends it.
func upsertMonthly(reports []MonthlyReport, m MonthlyReport) []MonthlyReport {
	out := cloneSlice(reports)
	for i := range out {
		if out[i].Key == m.Key {
			out[i] = m
			return out
		}
	}
	return append(out, m)
}
