package game

// Clone returns a deep copy. Mutating the copy never reaches the receiver.
func (s GameState) Clone() GameState {
	out := s
	out.Inventory = cloneSlice(s.Inventory)
	out.SoldVehicles = cloneSlice(s.SoldVehicles)
	out.Advisors = cloneSlice(s.Advisors)
	out.Technicians = cloneSlice(s.Technicians)
	if s.SalesManager != nil {
		m := *s.SalesManager
		out.SalesManager = &m
	}
	out.ServiceQueue = cloneSlice(s.ServiceQueue)
	out.CompletedROs = cloneSlice(s.CompletedROs)
	out.RecentDeals = cloneSlice(s.RecentDeals)
	out.LeadActivity = cloneSlice(s.LeadActivity)
	out.DailyHistory = cloneSlice(s.DailyHistory)
	out.MonthlyReports = cloneSlice(s.MonthlyReports)
	out.Notifications = cloneSlice(s.Notifications)
	out.Unlocks = cloneSlice(s.Unlocks)
	out.Today = s.Today.clone()
	return out
}

func (l DayLedger) clone() DayLedger {
	out := l
	out.AdvisorMorale = cloneMap(l.AdvisorMorale)
	out.TechHoursUsed = cloneMap(l.TechHoursUsed)
	out.TechCompleted = cloneMap(l.TechCompleted)
	out.TechComebacks = cloneMap(l.TechComebacks)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// prepend puts items (newest last) at the front of list, newest first, and
// trims the result to limit.
func prepend[T any](list []T, items []T, limit int) []T {
	out := make([]T, 0, len(list)+len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	out = append(out, list...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// appendCapped appends items and keeps only the newest limit entries.
func appendCapped[T any](list []T, items []T, limit int) []T {
	out := append(cloneSlice(list), items...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
