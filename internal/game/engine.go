package game

import (
	"log/slog"
	"math"
	"sync"
)

// Engine drives the hour and day state machine over a Repository. Every
// call reads the current snapshot, works on a clone and writes the result
// back once.
type Engine struct {
	repo        Repository
	tables      Tables
	progression Progression
	log         *slog.Logger

	mu  sync.Mutex
	rng *RNG
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

func WithTables(t Tables) Option {
	return func(e *Engine) { e.tables = t }
}

func WithProgression(p Progression) Option {
	return func(e *Engine) {
		if p != nil {
			e.progression = p
		}
	}
}

// WithRNG replaces the generator restored from the stored snapshot.
func WithRNG(rng *RNG) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:        repo,
		tables:      DefaultTables(),
		progression: NopProgression{},
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		s := repo.GetState()
		seed := s.RNGState
		if seed <= 0 {
			seed = s.Seed
		}
		e.rng = NewRNG(seed)
	}
	return e
}

func (e *Engine) Tables() Tables { return e.tables }

func (e *Engine) State() GameState { return e.repo.GetState() }

// Tick runs hours simulated hours and writes the state back after the loop.
func (e *Engine) Tick(hours int) GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.repo.GetState()
	if hours <= 0 {
		return s
	}
	for i := 0; i < hours; i++ {
		var res HourResult
		s, res = e.RunHour(s, false)
		if res.Gated {
			e.log.Info("business day ended", "date", s.DateKey())
		}
	}
	return e.save(s)
}

// Step runs one hour against the stored snapshot and returns what happened
// in it. A paused game is left alone.
func (e *Engine) Step() (GameState, HourResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.repo.GetState()
	next, res := e.RunHour(s, false)
	if !res.Ran && !res.Gated {
		return s, res
	}
	if res.Gated {
		e.log.Info("business day ended", "date", next.DateKey())
	}
	return e.save(next), res
}

// RunHour advances s by one hour. A paused state is returned as is unless
// force is set. Stepping past closing hour gates the day instead of
// simulating.
func (e *Engine) RunHour(s GameState, force bool) (GameState, HourResult) {
	if s.Paused && !force {
		return s, HourResult{Hour: s.Hour}
	}
	next := s.Clone()
	next.Hour++
	if next.Hour > ClosingHour {
		next.Hour = ClosingHour
		next.Paused = true
		return next, HourResult{Hour: next.Hour, Gated: true}
	}
	res := HourResult{Hour: next.Hour, Ran: true}

	if next.Hour == DeliveryHour {
		res.Deliveries = deliverPending(&next)
	}

	res.Sales = SimulateSalesHour(next.salesHourInput(e.tables), e.rng)
	applySales(&next, res.Sales)

	res.Service = SimulateServiceHour(next.serviceHourInput(e.tables), e.rng)
	applyService(&next, res.Service)

	return next, res
}

// deliverPending flips arrived vehicles to in stock and charges their
// reconditioning.
func deliverPending(s *GameState) int {
	today := s.DayIndex()
	n := 0
	for i := range s.Inventory {
		v := &s.Inventory[i]
		if v.Status != StatusPending || v.ArrivalDay > today {
			continue
		}
		v.Status, _ = v.Status.Advance(StatusInStock)
		v.AgeDays = 0
		if !v.ReconCharged {
			s.Cash -= v.ReconCost
			s.Today.ReconExpense += v.ReconCost
			v.ReconCharged = true
		}
		n++
	}
	s.Today.Deliveries += n
	return n
}

func applySales(s *GameState, r SalesHourResult) {
	if len(r.SoldIDs) > 0 {
		sold := make(map[string]bool, len(r.SoldIDs))
		for _, id := range r.SoldIDs {
			sold[id] = true
		}
		kept := make([]Vehicle, 0, len(s.Inventory))
		var gone []Vehicle
		for _, v := range s.Inventory {
			if !sold[v.ID] {
				kept = append(kept, v)
				continue
			}
			v.Status, _ = v.Status.Advance(StatusSold)
			gone = append(gone, v)
		}
		s.Inventory = kept
		s.SoldVehicles = prepend(s.SoldVehicles, gone, MaxSoldVehicles)
	}

	s.RecentDeals = prepend(s.RecentDeals, r.Deals, MaxRecentDeals)
	s.LeadActivity = appendCapped(s.LeadActivity, r.Activity, MaxLeadActivity)
	s.Cash += r.CashDelta

	l := &s.Today
	l.Leads += r.Leads
	l.Appointments += r.Appointments
	l.DealsWorked += r.DealsWorked
	l.UnitsSold += len(r.Deals)
	for _, d := range r.Deals {
		l.Revenue += d.SoldPrice
		l.FrontGross += d.FrontGross
		l.BackGross += d.BackGross
	}
	l.CashFromOperations += r.CashDelta
	l.CsiDelta += r.CsiDelta
	for _, id := range sortedKeys(r.MoraleDeltas) {
		l.AdvisorMorale[id] += r.MoraleDeltas[id]
	}
}

func applyService(s *GameState, r ServiceHourResult) {
	s.ServiceQueue = r.Queue
	s.NextJobNumber = r.NextJob
	s.CompletedROs = prepend(s.CompletedROs, r.ROs, MaxCompletedROs)
	s.Cash += r.PartsRevenue

	l := &s.Today
	for id, h := range r.HoursUsed {
		l.TechHoursUsed[id] += h
	}
	for id, n := range r.Completed {
		l.TechCompleted[id] += n
	}
	for id, n := range r.Comebacks {
		l.TechComebacks[id] += n
	}
	l.ServiceHours += r.ServiceHours
	l.PartsRevenue += r.PartsRevenue
	l.ROsCompleted += len(r.ROs)
	l.Comebacks += r.ComebackCount
	l.CashFromOperations += r.PartsRevenue
	l.CsiDelta += r.CsiDelta
}

// CloseOutDay runs end-of-day operations. It does nothing before closing
// hour, and without force the day must already be gated.
func (e *Engine) CloseOutDay(force bool) (GameState, *DailyReport) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.repo.GetState()
	if s.Hour < ClosingHour || (!force && !s.Paused) {
		return s, nil
	}
	next, report := e.runDailyOperations(s)
	next = e.save(next)
	e.log.Info("day closed",
		"date", report.Date,
		"units", report.UnitsSold,
		"cash", math.Round(next.Cash),
		"csi", math.Round(next.CSI),
	)
	return next, &report
}

// Apply runs a command against the current snapshot and stores the result
// only when the command succeeds.
func (e *Engine) Apply(cmd func(GameState) (GameState, error)) (GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.repo.GetState()
	next, err := cmd(s.Clone())
	if err != nil {
		return s, err
	}
	e.repo.SetState(next)
	return next, nil
}

// ApplyRand is Apply for commands that draw random numbers. They share the
// engine's generator so a replayed command log reproduces the same game.
func (e *Engine) ApplyRand(cmd func(GameState, *RNG) (GameState, error)) (GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.repo.GetState()
	mark := e.rng.State()
	next, err := cmd(s.Clone(), e.rng)
	if err != nil {
		e.rng = NewRNG(mark)
		return s, err
	}
	return e.save(next), nil
}

// save stamps the generator position on s and stores it. Callers must hand
// the returned state out so persisted copies resume from the same draw.
func (e *Engine) save(s GameState) GameState {
	s.RNGState = e.rng.State()
	e.repo.SetState(s)
	return s
}

func (e *Engine) runDailyOperations(s GameState) (GameState, DailyReport) {
	next := s.Clone()
	c := next.Coefficients
	ledger := next.Today
	closedDay, closedMonth, closedYear := next.Day, next.Month, next.Year

	next.Hour = OpeningHour
	next.Day++
	if next.Day > DaysPerMonth {
		next.Day = 1
		next.Month++
		if next.Month > MonthsPerYear {
			next.Month = 1
			next.Year++
		}
	}

	next.Economy = DriftEconomy(next.Economy, next.Month, c.Economy, e.rng)
	var event *EconomicEvent
	next.Economy, event = RollEvent(next.Economy, c.Economy, e.rng)

	next.Inventory = AgeInventory(next.Inventory, next.Economy.DemandIndex, next.Pricing, c)

	salaries := 0.0
	for i := range next.Advisors {
		a := &next.Advisors[i]
		if !a.Active {
			continue
		}
		a.Morale = clamp(a.Morale+ledger.AdvisorMorale[a.ID]+c.Morale.TrainingBonus*float64(a.Training), 20, 100)
		salaries += a.DailySalary
	}
	for i := range next.Technicians {
		t := &next.Technicians[i]
		if !t.Active {
			continue
		}
		delta := c.Morale.TechPerJob*float64(ledger.TechCompleted[t.ID]) - c.Morale.TechPerComeback*float64(ledger.TechComebacks[t.ID])
		t.Morale = clamp(t.Morale+delta, 0, 100)
		salaries += t.DailySalary
	}
	if next.SalesManager != nil {
		salaries += next.SalesManager.DailySalary
	}

	opex := salaries + c.Finance.FacilityBase + c.Finance.PerSlotCost*float64(next.Capacity.LotSize) + c.Finance.Overhead
	interest := floorPlanInterest(next.Inventory, next.Economy.InterestRate, c.Finance)
	marketing := math.Max(0, next.Marketing.SpendPerDay)
	next.Cash -= opex + interest + marketing

	next.Lifetime.Revenue += ledger.Revenue + ledger.PartsRevenue
	next.Lifetime.GrossProfit += ledger.FrontGross + ledger.BackGross
	next.Lifetime.UnitsSold += ledger.UnitsSold
	next.Lifetime.ROsCompleted += ledger.ROsCompleted
	next.Lifetime.DaysPlayed++

	next.CSI = clamp(next.CSI+ledger.CsiDelta*c.Morale.CsiScale+c.Morale.CsiReversion*(c.Morale.CsiAnchor-next.CSI), 0, 100)
	next.MoraleIndex = moraleIndex(next)

	report := DailyReport{
		Date:               dateKey(closedYear, closedMonth, closedDay),
		Day:                closedDay,
		Month:              closedMonth,
		Year:               closedYear,
		Leads:              ledger.Leads,
		Appointments:       ledger.Appointments,
		DealsWorked:        ledger.DealsWorked,
		UnitsSold:          ledger.UnitsSold,
		ClosingRate:        safeDiv(float64(ledger.UnitsSold), float64(ledger.DealsWorked)),
		Revenue:            ledger.Revenue,
		FrontGross:         ledger.FrontGross,
		BackGross:          ledger.BackGross,
		AvgFrontGross:      safeDiv(ledger.FrontGross, float64(ledger.UnitsSold)),
		CashFromOperations: ledger.CashFromOperations,
		ReconExpense:       ledger.ReconExpense,
		CapitalSpend:       ledger.CapitalSpend,
		Deliveries:         ledger.Deliveries,
		ROsCompleted:       ledger.ROsCompleted,
		Comebacks:          ledger.Comebacks,
		ComebackRate:       safeDiv(float64(ledger.Comebacks), float64(ledger.ROsCompleted)),
		ServiceHours:       ledger.ServiceHours,
		PartsRevenue:       ledger.PartsRevenue,
		OperatingExpenses:  opex,
		FloorPlanInterest:  interest,
		MarketingSpend:     marketing,
		StartingCash:       ledger.StartingCash,
		EndingCash:         next.Cash,
		NetCashFlow:        next.Cash - ledger.StartingCash,
		CSI:                next.CSI,
		MoraleIndex:        next.MoraleIndex,
		InventoryCount:     len(next.Inventory),
		DaysSupply:         EstimateDaysSupply(next.Inventory, trailingUnits(next.DailyHistory, ledger.UnitsSold)),
	}
	if event != nil {
		report.Event = event.Text
		next.Notifications = appendCapped(next.Notifications, []string{event.Text}, MaxNotifications)
	}
	next.DailyHistory = appendCapped(next.DailyHistory, []DailyReport{report}, MaxDailyHistory)

	if closedDay == DaysPerMonth {
		next.MonthlyReports = upsertMonthly(next.MonthlyReports, BuildMonthlyReport(next.DailyHistory, closedYear, closedMonth))
	}

	var notes []string
	next, notes = e.progression.Check(next)
	next.Notifications = appendCapped(next.Notifications, notes, MaxNotifications)
	if len(notes) > 0 {
		report.Notes = notes
		next.DailyHistory[len(next.DailyHistory)-1].Notes = notes
	}

	next.Paused = true
	next.Today = newDayLedger(next.Cash)
	return next, report
}

func floorPlanInterest(inv []Vehicle, rate float64, c FinanceCoefficients) float64 {
	daily := (rate + c.FloorPlanSpread) / 365
	total := 0.0
	for _, v := range inv {
		if v.Status == StatusInStock {
			total += v.Floor * daily
		}
	}
	return total
}

func moraleIndex(s GameState) float64 {
	sum, n := 0.0, 0
	for _, a := range s.Advisors {
		if a.Active {
			sum += a.Morale
			n++
		}
	}
	for _, t := range s.Technicians {
		if t.Active {
			sum += t.Morale
			n++
		}
	}
	if n == 0 {
		return s.MoraleIndex
	}
	return clamp(sum/float64(n), 0, 100)
}

// trailingUnits sums units over the day being closed and the reports of
// the DaysPerMonth-1 days before it.
func trailingUnits(history []DailyReport, today int) int {
	total := today
	start := maxInt(0, len(history)-(DaysPerMonth-1))
	for _, r := range history[start:] {
		total += r.UnitsSold
	}
	return total
}
