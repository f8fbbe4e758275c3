package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"dealersim/internal/api"
	"dealersim/internal/game"
	"dealersim/internal/notify"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderState(st api.StateView) {
	status := success.Sprint("OPEN")
	switch {
	case st.AwaitingCloseout:
		status = warn.Sprint("AWAITING CLOSE-OUT")
	case st.Paused:
		status = neutral.Sprint("PAUSED")
	}
	accent.Printf("\n== DEALERSHIP %s %02d:00 ==\n", st.Date, st.Hour)
	fmt.Printf("Status:        %s (speed %dx)\n", status, st.Speed)
	fmt.Printf("Cash:          $%s\n", money(st.Cash))
	fmt.Printf("CSI:           %s\n", colorizeScore(st.CSI))
	fmt.Printf("Morale:        %s\n", colorizeScore(st.MoraleIndex))
	fmt.Printf("In stock:      %d / %d (pending %d)\n", st.InStock, st.Capacity.LotSize, len(st.Inventory)-st.InStock)
	fmt.Printf("Pricing:       %s\n", st.Pricing.Policy)
	fmt.Printf("Marketing:     $%s/day\n", money(st.Marketing.SpendPerDay))
	fmt.Printf("Service queue: %d jobs\n", len(st.ServiceQueue))

	fmt.Println()
	accent.Println("Today")
	fmt.Printf("Leads %d  Appointments %d  Worked %d  Sold %d\n",
		st.Today.Leads, st.Today.Appointments, st.Today.DealsWorked, st.Today.UnitsSold)
	fmt.Printf("Front gross %s  Back gross %s  ROs %d  Comebacks %d\n",
		colorizeMoney(st.Today.FrontGross), colorizeMoney(st.Today.BackGross), st.Today.ROsCompleted, st.Today.Comebacks)

	fmt.Println()
	accent.Println("Staff")
	if st.SalesManager != nil {
		fmt.Printf("Manager  %-18s skill %.2f\n", st.SalesManager.Name, st.SalesManager.Skill)
	}
	fmt.Printf("%-10s %-18s %-12s %6s %6s %5s %s\n", "ID", "NAME", "ARCHETYPE", "SKILL", "MORALE", "TRN", "")
	for _, a := range st.Advisors {
		fmt.Printf("%-10s %-18s %-12s %6.2f %6.2f %5d %s\n",
			truncate(a.ID, 10), truncate(a.Name, 18), a.Archetype, a.Skill, a.Morale, a.Training, activeLabel(a.Active))
	}
	for _, t := range st.Technicians {
		fmt.Printf("%-10s %-18s %-12s %6.2f %6.2f %5s %s\n",
			truncate(t.ID, 10), truncate(t.Name, 18), t.Archetype, t.Efficiency, t.Morale, "-", activeLabel(t.Active))
	}

	if n := len(st.Notifications); n > 0 {
		fmt.Println()
		accent.Println("Recent notifications")
		from := max(0, n-5)
		for _, msg := range st.Notifications[from:] {
			printInfo("  " + msg)
		}
	}
	fmt.Println()
}

func renderHealth(h game.HealthReport) {
	accent.Println("\n== DEALERSHIP HEALTH ==")
	fmt.Printf("Expected gross/unit: $%s (target $%s)\n", money(h.ExpectedGrossPerUnit), money(h.TargetGross))
	fmt.Printf("Avg front gross:     $%s\n", money(h.AvgFrontGross))
	fmt.Printf("Expected back gross: $%s\n", money(h.ExpectedBackGross))
	fmt.Printf("Trailing units:      %d\n", h.TrailingUnits)
	fmt.Printf("Days supply:         %.1f\n", h.DaysSupply)
	fmt.Printf("Daily burn:          $%s\n", money(h.DailyBurn))
	fmt.Printf("Cash runway:         %s days\n", runway(h.CashRunwayDays))
	if h.Starving {
		printWarn("Inventory is starving sales.")
	}
	for _, w := range h.Warnings {
		printWarn("! " + w)
	}
	if len(h.Warnings) == 0 && !h.Starving {
		printSuccess("No warnings.")
	}
	fmt.Println()
}

func renderDailyReports(reports []game.DailyReport, limit int) {
	accent.Println("\n== DAILY REPORTS ==")
	if len(reports) == 0 {
		printInfo("No days closed yet.")
		return
	}
	if limit > 0 && len(reports) > limit {
		reports = reports[len(reports)-limit:]
	}
	fmt.Printf("%-11s %5s %5s %6s %12s %12s %5s %14s %6s\n", "DATE", "LEADS", "UNITS", "CLOSE", "FRONT", "BACK", "ROS", "NET CASH", "CSI")
	for _, r := range reports {
		fmt.Printf("%-11s %5d %5d %5.0f%% %12s %12s %5d %14s %6.1f\n",
			r.Date, r.Leads, r.UnitsSold, r.ClosingRate*100, money(r.FrontGross), money(r.BackGross),
			r.ROsCompleted, colorizeMoney(r.NetCashFlow), r.CSI)
	}
	fmt.Println()
}

func renderMonthlyReports(reports []game.MonthlyReport) {
	accent.Println("\n== MONTHLY REPORTS ==")
	if len(reports) == 0 {
		printInfo("No months closed yet.")
		return
	}
	fmt.Printf("%-8s %5s %6s %14s %14s %14s %7s %7s\n", "MONTH", "UNITS", "CLOSE", "REVENUE", "GROSS", "NET CASH", "COMEBK", "CSI")
	for _, r := range reports {
		fmt.Printf("%-8s %5d %5.0f%% %14s %14s %14s %6.1f%% %7.1f\n",
			r.Key, r.UnitsSold, r.ClosingRate*100, money(r.Revenue), money(r.FrontGross+r.BackGross),
			colorizeMoney(r.NetCashFlow), r.ComebackRate*100, r.AvgCSI)
	}
	fmt.Println()
}

func renderInventory(vehicles []game.Vehicle, daysSupply float64) {
	accent.Printf("\n== INVENTORY (%.1f days supply) ==\n", daysSupply)
	if len(vehicles) == 0 {
		printInfo("The lot is empty.")
		return
	}
	fmt.Printf("%-8s %-30s %-10s %-8s %11s %11s %4s %s\n", "STOCK", "VEHICLE", "SEGMENT", "STATUS", "FLOOR", "ASKING", "AGE", "ID")
	for _, v := range vehicles {
		age := strconv.Itoa(v.AgeDays)
		switch {
		case v.AgeDays >= 90:
			age = danger.Sprint(age)
		case v.AgeDays >= 60:
			age = warn.Sprint(age)
		}
		fmt.Printf("%-8s %-30s %-10s %-8s %11s %11s %4s %s\n",
			v.StockNumber, truncate(vehicleName(v), 30), v.Segment, v.Status, money(v.Floor), money(v.Asking), age, v.ID)
	}
	fmt.Println()
}

func renderReport(r game.DailyReport) {
	accent.Printf("\n== CLOSE-OUT %s ==\n", r.Date)
	fmt.Println(notify.Summary(r))
	fmt.Println()
}

func vehicleName(v game.Vehicle) string {
	name := fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
	if v.IsBEV {
		name += " (EV)"
	}
	return name
}

func activeLabel(active bool) string {
	if active {
		return success.Sprint("active")
	}
	return neutral.Sprint("inactive")
}

func runway(days float64) string {
	if math.IsInf(days, 1) || days > 9999 {
		return "unlimited"
	}
	return fmt.Sprintf("%.0f", days)
}

func colorizeMoney(v float64) string {
	text := signedMoney(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeScore(v float64) string {
	text := fmt.Sprintf("%.1f", v)
	switch {
	case v >= 85:
		return success.Sprint(text)
	case v < 60:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

// money formats whole dollars with thousands separators.
func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + comma(int64(math.Round(v)))
}

func signedMoney(v float64) string {
	if v > 0 {
		return "+" + money(v)
	}
	return money(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte(',')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
