package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Commands are player actions. Each one works on a clone of the state it is
// given and returns the input untouched alongside any error.

type HireRequest struct {
	Name      string `json:"name"`
	Archetype string `json:"archetype"`
}

func (s GameState) activeTechnicians() int {
	n := 0
	for _, t := range s.Technicians {
		if t.Active {
			n++
		}
	}
	return n
}

func spend(s *GameState, amount float64, what string) error {
	if amount > s.Cash {
		return fmt.Errorf("%s costs %.0f with %.0f on hand: %w", what, amount, s.Cash, ErrInsufficientFunds)
	}
	s.Cash -= amount
	s.Today.CapitalSpend += amount
	return nil
}

func HireAdvisor(s GameState, t Tables, rng *RNG, req HireRequest) (GameState, SalesAdvisor, error) {
	if _, ok := t.Archetypes.Advisors[req.Archetype]; !ok {
		return s, SalesAdvisor{}, fmt.Errorf("advisor archetype %q: %w", req.Archetype, ErrUnknownArchetype)
	}
	if len(s.activeAdvisors()) >= s.Capacity.AdvisorSlots {
		return s, SalesAdvisor{}, fmt.Errorf("advisor slots %d: %w", s.Capacity.AdvisorSlots, ErrCapacityReached)
	}
	next := s.Clone()
	if err := spend(&next, next.Coefficients.Finance.HireFee, "hiring"); err != nil {
		return s, SalesAdvisor{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = randomName(rng)
	}
	a := newAdvisor(&next, rng, name, req.Archetype)
	next.Advisors = append(next.Advisors, a)
	return next, a, nil
}

func HireTechnician(s GameState, t Tables, rng *RNG, req HireRequest) (GameState, Technician, error) {
	if _, ok := t.Archetypes.Technicians[req.Archetype]; !ok {
		return s, Technician{}, fmt.Errorf("technician archetype %q: %w", req.Archetype, ErrUnknownArchetype)
	}
	if s.activeTechnicians() >= s.Capacity.TechnicianBays {
		return s, Technician{}, fmt.Errorf("technician bays %d: %w", s.Capacity.TechnicianBays, ErrCapacityReached)
	}
	next := s.Clone()
	if err := spend(&next, next.Coefficients.Finance.HireFee, "hiring"); err != nil {
		return s, Technician{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = randomName(rng)
	}
	tech := newTechnician(&next, rng, name, req.Archetype)
	next.Technicians = append(next.Technicians, tech)
	return next, tech, nil
}

func HireSalesManager(s GameState, rng *RNG, name string) (GameState, SalesManager, error) {
	if s.SalesManager != nil {
		return s, SalesManager{}, fmt.Errorf("sales manager already hired: %w", ErrCapacityReached)
	}
	next := s.Clone()
	if err := spend(&next, next.Coefficients.Finance.HireFee*2, "hiring a sales manager"); err != nil {
		return s, SalesManager{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = randomName(rng)
	}
	m := SalesManager{
		Name:        name,
		Skill:       math.Round(rng.Range(50, 85)),
		DailySalary: next.Coefficients.Finance.ManagerSalary,
	}
	next.SalesManager = &m
	return next, m, nil
}

// SetStaffActive toggles an advisor or technician. Reactivation needs a
// free slot.
func SetStaffActive(s GameState, id string, active bool) (GameState, error) {
	next := s.Clone()
	for i := range next.Advisors {
		if next.Advisors[i].ID != id {
			continue
		}
		if active && !next.Advisors[i].Active && len(next.activeAdvisors()) >= next.Capacity.AdvisorSlots {
			return s, fmt.Errorf("advisor slots %d: %w", next.Capacity.AdvisorSlots, ErrCapacityReached)
		}
		next.Advisors[i].Active = active
		return next, nil
	}
	for i := range next.Technicians {
		if next.Technicians[i].ID != id {
			continue
		}
		if active && !next.Technicians[i].Active && next.activeTechnicians() >= next.Capacity.TechnicianBays {
			return s, fmt.Errorf("technician bays %d: %w", next.Capacity.TechnicianBays, ErrCapacityReached)
		}
		next.Technicians[i].Active = active
		return next, nil
	}
	return s, fmt.Errorf("staff %q: %w", id, ErrStaffNotFound)
}

const MaxTraining = 3

func TrainAdvisor(s GameState, id string) (GameState, SalesAdvisor, error) {
	next := s.Clone()
	for i := range next.Advisors {
		a := &next.Advisors[i]
		if a.ID != id {
			continue
		}
		if a.Training >= MaxTraining {
			return s, SalesAdvisor{}, fmt.Errorf("advisor %s: %w", id, ErrTrainingMaxed)
		}
		if err := spend(&next, next.Coefficients.Finance.TrainingCost, "training"); err != nil {
			return s, SalesAdvisor{}, err
		}
		a = &next.Advisors[i]
		a.Training++
		a.Skill = math.Min(100, a.Skill+5)
		a.CsiSkill = math.Min(100, a.CsiSkill+3)
		return next, *a, nil
	}
	return s, SalesAdvisor{}, fmt.Errorf("advisor %q: %w", id, ErrStaffNotFound)
}

type PackRequest struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// PurchasePack buys the whole pack or nothing.
func PurchasePack(s GameState, t Tables, rng *RNG, req PackRequest) (GameState, PackResult, error) {
	packType, err := ParsePackType(req.Type)
	if err != nil {
		return s, PackResult{}, err
	}
	if len(s.Inventory)+req.Quantity > s.Capacity.LotSize {
		return s, PackResult{}, fmt.Errorf("lot holds %d, have %d: %w", s.Capacity.LotSize, len(s.Inventory), ErrCapacityReached)
	}
	res, err := AcquirePack(s.inventoryContext(t), rng, packType, req.Quantity, s.Coefficients.Pricing.AvgCostPerUnit, s.NextStockNumber)
	if err != nil {
		return s, PackResult{}, err
	}
	next := s.Clone()
	if err := spend(&next, res.TotalCost, "pack"); err != nil {
		return s, PackResult{}, err
	}
	next.Inventory = append(next.Inventory, res.Vehicles...)
	next.NextStockNumber = res.NextStockNumber
	return next, res, nil
}

// AutoRestock generates the pack and keeps the longest prefix that fits in
// both cash and lot space. Buying nothing is not an error.
func AutoRestock(s GameState, t Tables, rng *RNG, req PackRequest) (GameState, RestockResult, error) {
	packType, err := ParsePackType(req.Type)
	if err != nil {
		return s, RestockResult{}, err
	}
	res, err := AcquirePack(s.inventoryContext(t), rng, packType, req.Quantity, s.Coefficients.Pricing.AvgCostPerUnit, s.NextStockNumber)
	if err != nil {
		return s, RestockResult{}, err
	}
	out := RestockResult{Requested: req.Quantity, Vehicles: []Vehicle{}}
	room := s.Capacity.LotSize - len(s.Inventory)
	for _, v := range res.Vehicles {
		unit := v.Cost + v.PackFee
		if out.Added >= room || out.CashSpent+unit > s.Cash {
			break
		}
		out.Vehicles = append(out.Vehicles, v)
		out.CashSpent += unit
		out.Added++
	}
	if out.Added == 0 {
		return s, out, nil
	}
	next := s.Clone()
	next.Cash -= out.CashSpent
	next.Today.CapitalSpend += out.CashSpent
	next.Inventory = append(next.Inventory, out.Vehicles...)
	next.NextStockNumber = s.NextStockNumber + out.Added
	return next, out, nil
}

type PricingUpdate struct {
	Policy          string   `json:"policy"`
	AgingDiscount60 *float64 `json:"aging_discount_60,omitempty"`
	AgingDiscount90 *float64 `json:"aging_discount_90,omitempty"`
}

// SetPricingPolicy changes the policy and reprices every vehicle on the lot.
func SetPricingPolicy(s GameState, u PricingUpdate) (GameState, error) {
	policy, err := ParsePricingPolicy(u.Policy)
	if err != nil {
		return s, err
	}
	next := s.Clone()
	next.Pricing.Policy = policy
	for _, d := range []struct {
		in  *float64
		out *float64
	}{
		{u.AgingDiscount60, &next.Pricing.AgingDiscount60},
		{u.AgingDiscount90, &next.Pricing.AgingDiscount90},
	} {
		if d.in == nil {
			continue
		}
		if *d.in < 0 || *d.in >= 0.5 {
			return s, fmt.Errorf("aging discount %.2f: %w", *d.in, ErrInvalidAmount)
		}
		*d.out = *d.in
	}
	for i := range next.Inventory {
		next.Inventory[i].Asking = policyAsking(next.Inventory[i], next.Pricing)
	}
	return next, nil
}

// AdjustVehiclePrice sets an explicit asking price and remembers the offset
// from the policy price so later repricing keeps it.
func AdjustVehiclePrice(s GameState, id string, asking float64) (GameState, Vehicle, error) {
	idx := s.findVehicle(id)
	if idx < 0 {
		return s, Vehicle{}, fmt.Errorf("vehicle %q: %w", id, ErrVehicleNotFound)
	}
	v := s.Inventory[idx]
	if asking < v.Floor {
		return s, Vehicle{}, fmt.Errorf("asking %.0f under floor %.0f: %w", asking, v.Floor, ErrBelowFloor)
	}
	next := s.Clone()
	nv := &next.Inventory[idx]
	nv.ManualPriceAdjustment = 0
	nv.ManualPriceAdjustment = asking - policyAsking(*nv, next.Pricing)
	nv.Asking = asking
	return next, *nv, nil
}

func SetMarketingSpend(s GameState, perDay float64) (GameState, error) {
	if perDay < 0 || math.IsNaN(perDay) || math.IsInf(perDay, 0) {
		return s, fmt.Errorf("marketing spend %.2f: %w", perDay, ErrInvalidAmount)
	}
	next := s.Clone()
	next.Marketing.SpendPerDay = perDay
	return next, nil
}

func SetSpeed(s GameState, speed int) (GameState, error) {
	if _, err := parseSpeed(speed); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Speed = speed
	return next, nil
}

func Pause(s GameState) (GameState, error) {
	next := s.Clone()
	next.Paused = true
	return next, nil
}

// Resume refuses to restart a gated day. That day has to be closed out
// first.
func Resume(s GameState) (GameState, error) {
	if s.AwaitingCloseout() {
		return s, fmt.Errorf("resume on %s: %w", s.DateKey(), ErrCloseoutPending)
	}
	next := s.Clone()
	next.Paused = false
	return next, nil
}

func UpdateCoefficients(s GameState, patch map[string]any) (GameState, error) {
	merged, err := MergeCoefficients(s.Coefficients, patch)
	if errors.Is(err, ErrBadCoefficients) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrBadCoefficients, err)
	}
	next := s.Clone()
	next.Coefficients = merged
	return next, nil
}
