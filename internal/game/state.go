package game

import (
	"fmt"
	"math"
)

type NewGameConfig struct {
	Seed         int64
	StartingCash float64
	SeedVehicles int
	Coefficients *Coefficients
}

var (
	firstNames = []string{"Avery", "Blake", "Casey", "Devon", "Emery", "Finley", "Harper", "Jordan", "Kendall", "Logan", "Morgan", "Parker", "Quinn", "Reese", "Riley", "Rowan", "Sage", "Taylor"}
	lastNames  = []string{"Alvarez", "Brooks", "Chen", "Diaz", "Evans", "Foster", "Garcia", "Hughes", "Ito", "Kim", "Lopez", "Miller", "Novak", "Okafor", "Patel", "Reyes", "Singh", "Walsh"}
)

func randomName(rng *RNG) string {
	return firstNames[rng.Pick(len(firstNames))] + " " + lastNames[rng.Pick(len(lastNames))]
}

// NewState builds a fresh, seeded dealership. Every draw comes from an RNG
// seeded with cfg.Seed and the generator position is stored in RNGState so
// an engine resumes the same sequence.
func NewState(cfg NewGameConfig, t Tables) GameState {
	rng := NewRNG(cfg.Seed)
	coeffs := DefaultCoefficients()
	if cfg.Coefficients != nil {
		coeffs = *cfg.Coefficients
	}
	cash := cfg.StartingCash
	if cash <= 0 {
		cash = DefaultStartingCash
	}
	vehicles := cfg.SeedVehicles
	if vehicles < 0 {
		vehicles = 0
	}

	s := GameState{
		Seed:  rng.State(),
		Hour:  OpeningHour,
		Day:   1,
		Month: 1,
		Year:  DefaultStartYear,
		Speed: 1,
		Cash:  cash,
		Economy: Economy{
			DemandIndex:    1.0,
			InterestRate:   0.06,
			WeatherFactor:  0.8,
			IncentiveLevel: 0.2,
		},
		Marketing: Marketing{SpendPerDay: 500},
		Pricing: PricingState{
			Policy:          PolicyBalanced,
			AgingDiscount60: 0.03,
			AgingDiscount90: 0.06,
		},
		Capacity: Capacity{
			LotSize:        60,
			AdvisorSlots:   6,
			TechnicianBays: 4,
		},
		Inventory:       []Vehicle{},
		SoldVehicles:    []Vehicle{},
		ServiceQueue:    []ServiceJob{},
		CompletedROs:    []RepairOrder{},
		RecentDeals:     []Deal{},
		LeadActivity:    []LeadActivity{},
		DailyHistory:    []DailyReport{},
		MonthlyReports:  []MonthlyReport{},
		Notifications:   []string{},
		Unlocks:         []string{},
		CSI:             75,
		MoraleIndex:     70,
		NextStockNumber: 1,
		NextJobNumber:   1,
		NextStaffNumber: 1,
		Coefficients:    coeffs,
	}

	advisorArchetypes := t.Archetypes.AdvisorNames()
	for i := 0; i < 4 && len(advisorArchetypes) > 0; i++ {
		s.Advisors = append(s.Advisors, newAdvisor(&s, rng, randomName(rng), advisorArchetypes[i%len(advisorArchetypes)]))
	}
	techArchetypes := t.Archetypes.TechnicianNames()
	for i := 0; i < 3 && len(techArchetypes) > 0; i++ {
		s.Technicians = append(s.Technicians, newTechnician(&s, rng, randomName(rng), techArchetypes[i%len(techArchetypes)]))
	}

	ic := s.inventoryContext(t)
	for i := 0; i < vehicles; i++ {
		baseCost := coeffs.Pricing.AvgCostPerUnit * rng.Range(0.85, 1.15)
		v := CreateVehicle(ic, rng, VehicleSpec{StockNumber: s.NextStockNumber}, baseCost)
		v.Status = StatusInStock
		v.AgeDays = 1 + rng.Intn(30)
		v.ArrivalDay = s.DayIndex() - v.AgeDays
		v.ReconCharged = true
		s.Inventory = append(s.Inventory, v)
		s.NextStockNumber++
	}

	s.Today = newDayLedger(s.Cash)
	s.RNGState = rng.State()
	return s
}

func newAdvisor(s *GameState, rng *RNG, name, archetype string) SalesAdvisor {
	a := SalesAdvisor{
		ID:          staffID("adv", s.NextStaffNumber),
		Name:        name,
		Archetype:   archetype,
		Skill:       math.Round(rng.Range(40, 70)),
		GrossSkill:  math.Round(rng.Range(40, 70)),
		CsiSkill:    math.Round(rng.Range(40, 70)),
		Morale:      math.Round(rng.Range(60, 80)),
		DailySalary: s.Coefficients.Finance.AdvisorSalary,
		Active:      true,
	}
	s.NextStaffNumber++
	return a
}

func newTechnician(s *GameState, rng *RNG, name, archetype string) Technician {
	t := Technician{
		ID:          staffID("tech", s.NextStaffNumber),
		Name:        name,
		Archetype:   archetype,
		Efficiency:  roundCents(rng.Range(0.85, 1.15)),
		Morale:      math.Round(rng.Range(60, 80)),
		DailySalary: s.Coefficients.Finance.TechnicianSalary,
		Active:      true,
	}
	s.NextStaffNumber++
	return t
}

// Normalize repairs snapshots written by older builds: nil collections,
// out-of-range calendar fields and prices under the floor.
func Normalize(s GameState) GameState {
	s = s.Clone()
	if s.Hour < OpeningHour || s.Hour > ClosingHour {
		s.Hour = OpeningHour
	}
	s.Day = clampInt(s.Day, 1, DaysPerMonth)
	s.Month = clampInt(s.Month, 1, MonthsPerYear)
	if s.Year <= 0 {
		s.Year = DefaultStartYear
	}
	if _, err := parseSpeed(s.Speed); err != nil {
		s.Speed = 1
	}
	if _, err := ParsePricingPolicy(string(s.Pricing.Policy)); err != nil {
		s.Pricing.Policy = PolicyBalanced
	}
	if s.Economy.DemandIndex <= 0 {
		s.Economy.DemandIndex = 1
	}
	for i := range s.Inventory {
		v := &s.Inventory[i]
		if v.Status.rank() < 0 {
			v.Status = StatusInStock
		}
		if v.Floor <= 0 {
			v.Floor = v.Cost * s.Coefficients.Pricing.FloorMultiplier
		}
		if v.Asking < v.Floor {
			v.Asking = ceil100(v.Floor)
		}
		if v.ID == "" {
			v.ID = newID("vehicle", s.Seed, v.StockNumber)
		}
	}
	if s.NextStockNumber <= len(s.Inventory)+len(s.SoldVehicles) {
		s.NextStockNumber = len(s.Inventory) + len(s.SoldVehicles) + 1
	}
	if s.NextStaffNumber <= len(s.Advisors)+len(s.Technicians) {
		s.NextStaffNumber = len(s.Advisors) + len(s.Technicians) + 1
	}
	if s.NextJobNumber <= 0 {
		s.NextJobNumber = 1
	}
	s.Inventory = nonNil(s.Inventory)
	s.SoldVehicles = nonNil(s.SoldVehicles)
	s.Advisors = nonNil(s.Advisors)
	s.Technicians = nonNil(s.Technicians)
	s.ServiceQueue = nonNil(s.ServiceQueue)
	s.CompletedROs = nonNil(s.CompletedROs)
	s.RecentDeals = nonNil(s.RecentDeals)
	s.LeadActivity = nonNil(s.LeadActivity)
	s.DailyHistory = nonNil(s.DailyHistory)
	s.MonthlyReports = nonNil(s.MonthlyReports)
	s.Notifications = nonNil(s.Notifications)
	s.Unlocks = nonNil(s.Unlocks)
	if s.Today.AdvisorMorale == nil {
		s.Today.AdvisorMorale = map[string]float64{}
	}
	if s.Today.TechHoursUsed == nil {
		s.Today.TechHoursUsed = map[string]float64{}
	}
	if s.Today.TechCompleted == nil {
		s.Today.TechCompleted = map[string]int{}
	}
	if s.Today.TechComebacks == nil {
		s.Today.TechComebacks = map[string]int{}
	}
	if s.Today.StartingCash == 0 && s.Today.UnitsSold == 0 {
		s.Today.StartingCash = s.Cash
	}
	return s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseSpeed(speed int) (int, error) {
	switch speed {
	case 1, 2, 4, 8:
		return speed, nil
	}
	return 0, fmt.Errorf("speed %d: %w", speed, ErrInvalidSpeed)
}
