package game

import (
	"fmt"
	"math"
)

// SalesHourInput is the read-only view of the dealership one sales hour sees.
type SalesHourInput struct {
	Hour         int
	Day          int
	Month        int
	Year         int
	DayIndex     int
	Seed         int64
	DealSeq      int
	Inventory    []Vehicle
	Advisors     []SalesAdvisor
	Manager      *SalesManager
	Economy      Economy
	Marketing    Marketing
	Coefficients Coefficients
	Archetypes   Archetypes
}

func (s GameState) salesHourInput(t Tables) SalesHourInput {
	return SalesHourInput{
		Hour:         s.Hour,
		Day:          s.Day,
		Month:        s.Month,
		Year:         s.Year,
		DayIndex:     s.DayIndex(),
		Seed:         s.Seed,
		DealSeq:      s.Lifetime.UnitsSold + s.Today.UnitsSold,
		Inventory:    s.Inventory,
		Advisors:     s.activeAdvisors(),
		Manager:      s.SalesManager,
		Economy:      s.Economy,
		Marketing:    s.Marketing,
		Coefficients: s.Coefficients,
		Archetypes:   t.Archetypes,
	}
}

// ComputeLeadVolume returns expected leads for a full business day.
func ComputeLeadVolume(m Marketing, e Economy, c Coefficients) float64 {
	spend := math.Max(0, m.SpendPerDay)
	marketingBoost := 1 + c.Leads.MarketingK*math.Log(1+c.Leads.DiminishingK*spend/8)
	weatherPenalty := 0.6 + 0.4*clamp(e.WeatherFactor, 0, 1)
	incentivesBoost := 1 + e.IncentiveLevel*0.4
	return c.Leads.BasePerDay * e.DemandIndex * marketingBoost * weatherPenalty * incentivesBoost
}

// HourMultiplier shapes lead flow across the business day.
func HourMultiplier(hour int) float64 {
	switch {
	case hour >= 10 && hour <= 14:
		return 1.3
	case hour >= 17 && hour <= 20:
		return 1.2
	case hour == OpeningHour || hour == ClosingHour:
		return 0.6
	default:
		return 1.0
	}
}

// SelectVehicle returns the index of the vehicle a customer gravitates to, or
// -1 when nothing is sellable. Vehicles in taken are skipped.
func SelectVehicle(inv []Vehicle, cust Customer, taken map[string]bool) int {
	eligible := make([]int, 0, len(inv))
	for i, v := range inv {
		if v.Status != StatusInStock || v.AgeDays <= 0 || taken[v.ID] {
			continue
		}
		eligible = append(eligible, i)
	}
	if cust.BEVAffinity > 0.1 {
		bev := make([]int, 0, len(eligible))
		for _, i := range eligible {
			if inv[i].IsBEV {
				bev = append(bev, i)
			}
		}
		if len(bev) > 0 {
			eligible = bev
		}
	}
	best := -1
	for _, i := range eligible {
		if best < 0 {
			best = i
			continue
		}
		v, b := inv[i], inv[best]
		if v.Desirability > b.Desirability || (v.Desirability == b.Desirability && v.StockNumber < b.StockNumber) {
			best = i
		}
	}
	return best
}

type ClosingInput struct {
	Advisor      SalesAdvisor
	Archetype    AdvisorArchetype
	Customer     Customer
	Vehicle      Vehicle
	DemandIndex  float64
	ManagerSkill float64
	Coefficients SalesCoefficients
}

// ComputeClosingProbability is a logistic over advisor, customer, vehicle
// and market terms, clamped to [0.05, 0.95].
func ComputeClosingProbability(in ClosingInput) float64 {
	c := in.Coefficients
	sensitivity := in.Archetype.MoraleSensitivity
	if sensitivity == 0 {
		sensitivity = 1
	}
	advisor := c.SkillWeight*(in.Advisor.Skill-50)/50 +
		in.Archetype.CloseMod +
		c.MoraleWeight*sensitivity*(in.Advisor.Morale-60)/40
	desirability := c.DesirabilityWeight * (in.Vehicle.Desirability - 60) / 25
	economy := c.EconomyWeight * (in.DemandIndex - 1)
	cost := math.Max(1, in.Vehicle.Cost)
	priceGap := -c.PriceGapWeight * (in.Vehicle.Asking - cost) / cost * (0.5 + in.Customer.PriceSensitivity)
	manager := c.ManagerWeight * in.ManagerSkill / 100

	logit := c.BaseLogit + advisor + in.Customer.CloseBias + desirability + economy + priceGap + manager
	p := sigmoid(logit)
	if math.IsNaN(p) {
		return 0.05
	}
	return clamp(p, 0.05, 0.95)
}

// ComputeSoldPrice draws the negotiated price, never below the floor. The
// customer's gross bias and the advisor's gross modifier move the price by
// the same discount scale that price sensitivity uses.
func ComputeSoldPrice(v Vehicle, cust Customer, arch AdvisorArchetype, e Economy, c Coefficients, rng *RNG) float64 {
	variance := rng.Range(-c.Sales.VariancePct, c.Sales.VariancePct)
	price := v.Asking*(1+variance) +
		c.Sales.IncentiveBias*e.IncentiveLevel -
		v.Asking*c.Sales.MaxDiscountPct*cust.PriceSensitivity +
		v.Asking*c.Sales.MaxDiscountPct*(cust.GrossBias+arch.GrossMod)
	return math.Max(math.Round(price), v.Floor)
}

func ComputeFrontGross(v Vehicle, soldPrice float64, c Coefficients) float64 {
	return soldPrice - (v.Cost + v.ReconCost + v.PackFee) + soldPrice*c.Pricing.HoldbackPct
}

// ComputeBackGross is all or nothing: one draw decides whether the deal
// carries finance and insurance income.
func ComputeBackGross(a SalesAdvisor, arch AdvisorArchetype, e Economy, c Coefficients, rng *RNG) float64 {
	ratePenalty := math.Max(0, e.InterestRate-c.Finance.NeutralRate) * c.Finance.RatePenalty
	p := clamp(c.Finance.BackGrossProb+arch.BackMod-ratePenalty, 0.1, 0.9)
	if !rng.Chance(p) {
		return 0
	}
	return c.Finance.AvgBackGross * (1 + (a.GrossSkill-50)/100)
}

func ComputeCsiImpact(a SalesAdvisor, arch AdvisorArchetype, cust Customer) float64 {
	return math.Max(a.CsiSkill/50+cust.CsiBias+arch.CsiMod, -5) * 5
}

// SimulateSalesHour runs the lead, appointment and deal funnel for one hour.
func SimulateSalesHour(in SalesHourInput, rng *RNG) SalesHourResult {
	c := in.Coefficients
	res := SalesHourResult{MoraleDeltas: map[string]float64{}}

	daily := ComputeLeadVolume(in.Marketing, in.Economy, c)
	res.Leads = int(math.Round(daily / BusinessDayHours * HourMultiplier(in.Hour)))
	res.Appointments = int(math.Round(float64(res.Leads) * (0.45 + in.Economy.DemandIndex*0.15)))
	res.DealsWorked = int(math.Round(float64(res.Appointments) * 0.6))
	if len(in.Advisors) == 0 {
		res.DealsWorked = 0
	}

	for i := 0; i < res.Leads; i++ {
		res.Activity = append(res.Activity, in.activity("lead", rng, "", "", ""))
	}
	for i := 0; i < res.Appointments; i++ {
		res.Activity = append(res.Activity, in.activity("appointment", rng, "", "", ""))
	}

	managerSkill := 0.0
	if in.Manager != nil {
		managerSkill = in.Manager.Skill
	}
	taken := map[string]bool{}
	for i := 0; i < res.DealsWorked; i++ {
		adv := in.Advisors[rng.Pick(len(in.Advisors))]
		arch := in.Archetypes.advisor(adv.Archetype)
		cust := in.Archetypes.NewCustomer(rng)

		idx := SelectVehicle(in.Inventory, cust, taken)
		if idx < 0 {
			res.Activity = append(res.Activity, in.activity("no_inventory", rng, adv.ID, cust.Archetype, ""))
			continue
		}
		v := in.Inventory[idx]
		p := ComputeClosingProbability(ClosingInput{
			Advisor:      adv,
			Archetype:    arch,
			Customer:     cust,
			Vehicle:      v,
			DemandIndex:  in.Economy.DemandIndex,
			ManagerSkill: managerSkill,
			Coefficients: c.Sales,
		})
		if !rng.Chance(p) {
			res.MoraleDeltas[adv.ID] -= c.Morale.NoSalePenalty
			res.Activity = append(res.Activity, in.activity("no_sale", rng, adv.ID, cust.Archetype, v.StockNumber))
			continue
		}

		sold := ComputeSoldPrice(v, cust, arch, in.Economy, c, rng)
		back := ComputeBackGross(adv, arch, in.Economy, c, rng)
		deal := Deal{
			ID:          newID("deal", in.Seed, in.DealSeq+len(res.Deals)),
			VehicleID:   v.ID,
			StockNumber: v.StockNumber,
			Vehicle:     fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model),
			AdvisorID:   adv.ID,
			Customer:    cust.Archetype,
			AgeDays:     v.AgeDays,
			SoldPrice:   sold,
			FrontGross:  ComputeFrontGross(v, sold, c),
			BackGross:   back,
			CashIn:      sold + sold*c.Pricing.HoldbackPct + back,
			CsiImpact:   ComputeCsiImpact(adv, arch, cust),
			Probability: p,
			Day:         in.Day,
			Month:       in.Month,
			Year:        in.Year,
			Hour:        in.Hour,
		}
		taken[v.ID] = true
		res.Deals = append(res.Deals, deal)
		res.SoldIDs = append(res.SoldIDs, v.ID)
		res.CashDelta += deal.CashIn
		res.CsiDelta += deal.CsiImpact
		res.MoraleDeltas[adv.ID] += c.Morale.PerDeal
		res.Activity = append(res.Activity, in.activity("sale", rng, adv.ID, cust.Archetype, v.StockNumber))
	}
	return res
}

func (in SalesHourInput) activity(kind string, rng *RNG, advisorID, customer, detail string) LeadActivity {
	return LeadActivity{
		Kind:      kind,
		Hour:      in.Hour,
		Minute:    rng.Intn(60),
		Day:       in.Day,
		AdvisorID: advisorID,
		Customer:  customer,
		Detail:    detail,
	}
}
