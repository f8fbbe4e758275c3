package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Coefficients parameterise every formula in the simulation. A tick treats
// them as an immutable snapshot; changes go through MergeCoefficients.
type Coefficients struct {
	Leads      LeadCoefficients      `json:"leads" yaml:"leads"`
	Sales      SalesCoefficients     `json:"sales" yaml:"sales"`
	Pricing    PricingCoefficients   `json:"pricing" yaml:"pricing"`
	Inventory  InventoryCoefficients `json:"inventory" yaml:"inventory"`
	Economy    EconomyCoefficients   `json:"economy" yaml:"economy"`
	Service    ServiceCoefficients   `json:"service" yaml:"service"`
	Finance    FinanceCoefficients   `json:"finance" yaml:"finance"`
	Morale     MoraleCoefficients    `json:"morale" yaml:"morale"`
	Guardrails GuardrailCoefficients `json:"guardrails" yaml:"guardrails"`
}

type LeadCoefficients struct {
	BasePerDay   float64 `json:"base_per_day" yaml:"base_per_day"`
	MarketingK   float64 `json:"marketing_k" yaml:"marketing_k"`
	DiminishingK float64 `json:"diminishing_k" yaml:"diminishing_k"`
}

type SalesCoefficients struct {
	BaseLogit          float64 `json:"base_logit" yaml:"base_logit"`
	SkillWeight        float64 `json:"skill_weight" yaml:"skill_weight"`
	MoraleWeight       float64 `json:"morale_weight" yaml:"morale_weight"`
	DesirabilityWeight float64 `json:"desirability_weight" yaml:"desirability_weight"`
	EconomyWeight      float64 `json:"economy_weight" yaml:"economy_weight"`
	PriceGapWeight     float64 `json:"price_gap_weight" yaml:"price_gap_weight"`
	ManagerWeight      float64 `json:"manager_weight" yaml:"manager_weight"`
	VariancePct        float64 `json:"variance_pct" yaml:"variance_pct"`
	IncentiveBias      float64 `json:"incentive_bias" yaml:"incentive_bias"`
	MaxDiscountPct     float64 `json:"max_discount_pct" yaml:"max_discount_pct"`
}

type PricingCoefficients struct {
	MarkupMin       float64 `json:"markup_min" yaml:"markup_min"`
	MarkupMax       float64 `json:"markup_max" yaml:"markup_max"`
	HoldbackPct     float64 `json:"holdback_pct" yaml:"holdback_pct"`
	PackFee         float64 `json:"pack_fee" yaml:"pack_fee"`
	ReconCost       float64 `json:"recon_cost" yaml:"recon_cost"`
	FloorMultiplier float64 `json:"floor_multiplier" yaml:"floor_multiplier"`
	AvgCostPerUnit  float64 `json:"avg_cost_per_unit" yaml:"avg_cost_per_unit"`
}

type InventoryCoefficients struct {
	YearDepreciation  float64 `json:"year_depreciation" yaml:"year_depreciation"`
	MinYearMultiplier float64 `json:"min_year_multiplier" yaml:"min_year_multiplier"`
	DesirabilityDecay float64 `json:"desirability_decay" yaml:"desirability_decay"`
	DesirabilityFloor float64 `json:"desirability_floor" yaml:"desirability_floor"`
	MaxPackSize       int     `json:"max_pack_size" yaml:"max_pack_size"`
}

type EconomyCoefficients struct {
	DemandDrift     float64 `json:"demand_drift" yaml:"demand_drift"`
	DemandReversion float64 `json:"demand_reversion" yaml:"demand_reversion"`
	MinDemand       float64 `json:"min_demand" yaml:"min_demand"`
	MaxDemand       float64 `json:"max_demand" yaml:"max_demand"`
	RateDrift       float64 `json:"rate_drift" yaml:"rate_drift"`
	MinRate         float64 `json:"min_rate" yaml:"min_rate"`
	MaxRate         float64 `json:"max_rate" yaml:"max_rate"`
	IncentiveDecay  float64 `json:"incentive_decay" yaml:"incentive_decay"`
	EventProb       float64 `json:"event_prob" yaml:"event_prob"`
}

type ServiceCoefficients struct {
	BaseDailyDemand  float64 `json:"base_daily_demand" yaml:"base_daily_demand"`
	DemandPerSale    float64 `json:"demand_per_sale" yaml:"demand_per_sale"`
	QueueTargetHours float64 `json:"queue_target_hours" yaml:"queue_target_hours"`
	LaborRate        float64 `json:"labor_rate" yaml:"labor_rate"`
	CsiPerJob        float64 `json:"csi_per_job" yaml:"csi_per_job"`
	ComebackCsi      float64 `json:"comeback_csi" yaml:"comeback_csi"`
}

type FinanceCoefficients struct {
	BackGrossProb    float64 `json:"back_gross_prob" yaml:"back_gross_prob"`
	AvgBackGross     float64 `json:"avg_back_gross" yaml:"avg_back_gross"`
	NeutralRate      float64 `json:"neutral_rate" yaml:"neutral_rate"`
	RatePenalty      float64 `json:"rate_penalty" yaml:"rate_penalty"`
	FloorPlanSpread  float64 `json:"floor_plan_spread" yaml:"floor_plan_spread"`
	FacilityBase     float64 `json:"facility_base" yaml:"facility_base"`
	PerSlotCost      float64 `json:"per_slot_cost" yaml:"per_slot_cost"`
	Overhead         float64 `json:"overhead" yaml:"overhead"`
	AdvisorSalary    float64 `json:"advisor_salary" yaml:"advisor_salary"`
	TechnicianSalary float64 `json:"technician_salary" yaml:"technician_salary"`
	ManagerSalary    float64 `json:"manager_salary" yaml:"manager_salary"`
	HireFee          float64 `json:"hire_fee" yaml:"hire_fee"`
	TrainingCost     float64 `json:"training_cost" yaml:"training_cost"`
}

type MoraleCoefficients struct {
	PerDeal         float64 `json:"per_deal" yaml:"per_deal"`
	NoSalePenalty   float64 `json:"no_sale_penalty" yaml:"no_sale_penalty"`
	TrainingBonus   float64 `json:"training_bonus" yaml:"training_bonus"`
	TechPerJob      float64 `json:"tech_per_job" yaml:"tech_per_job"`
	TechPerComeback float64 `json:"tech_per_comeback" yaml:"tech_per_comeback"`
	CsiScale        float64 `json:"csi_scale" yaml:"csi_scale"`
	CsiAnchor       float64 `json:"csi_anchor" yaml:"csi_anchor"`
	CsiReversion    float64 `json:"csi_reversion" yaml:"csi_reversion"`
}

type GuardrailCoefficients struct {
	TargetReplacementGross float64 `json:"target_replacement_gross" yaml:"target_replacement_gross"`
	AssumedFrontGross      float64 `json:"assumed_front_gross" yaml:"assumed_front_gross"`
	MinDaysSupply          float64 `json:"min_days_supply" yaml:"min_days_supply"`
	MaxDaysSupply          float64 `json:"max_days_supply" yaml:"max_days_supply"`
	MinRunwayDays          float64 `json:"min_runway_days" yaml:"min_runway_days"`
}

func DefaultCoefficients() Coefficients {
	return Coefficients{
		Leads: LeadCoefficients{
			BasePerDay:   36,
			MarketingK:   0.35,
			DiminishingK: 0.02,
		},
		Sales: SalesCoefficients{
			BaseLogit:          0.1,
			SkillWeight:        0.8,
			MoraleWeight:       0.5,
			DesirabilityWeight: 0.6,
			EconomyWeight:      1.0,
			PriceGapWeight:     1.0,
			ManagerWeight:      0.4,
			VariancePct:        0.03,
			IncentiveBias:      400,
			MaxDiscountPct:     0.04,
		},
		Pricing: PricingCoefficients{
			MarkupMin:       1.18,
			MarkupMax:       1.26,
			HoldbackPct:     0.02,
			PackFee:         500,
			ReconCost:       900,
			FloorMultiplier: 1.02,
			AvgCostPerUnit:  28_000,
		},
		Inventory: InventoryCoefficients{
			YearDepreciation:  0.02,
			MinYearMultiplier: 0.9,
			DesirabilityDecay: 0.25,
			DesirabilityFloor: 10,
			MaxPackSize:       25,
		},
		Economy: EconomyCoefficients{
			DemandDrift:     0.02,
			DemandReversion: 0.05,
			MinDemand:       0.6,
			MaxDemand:       1.4,
			RateDrift:       0.0005,
			MinRate:         0.02,
			MaxRate:         0.12,
			IncentiveDecay:  0.1,
			EventProb:       0.04,
		},
		Service: ServiceCoefficients{
			BaseDailyDemand:  18,
			DemandPerSale:    0.5,
			QueueTargetHours: 1,
			LaborRate:        120,
			CsiPerJob:        1,
			ComebackCsi:      -5,
		},
		Finance: FinanceCoefficients{
			BackGrossProb:    0.55,
			AvgBackGross:     1200,
			NeutralRate:      0.06,
			RatePenalty:      4,
			FloorPlanSpread:  0.015,
			FacilityBase:     1500,
			PerSlotCost:      40,
			Overhead:         600,
			AdvisorSalary:    180,
			TechnicianSalary: 220,
			ManagerSalary:    350,
			HireFee:          2500,
			TrainingCost:     4000,
		},
		Morale: MoraleCoefficients{
			PerDeal:         0.4,
			NoSalePenalty:   0.05,
			TrainingBonus:   0.3,
			TechPerJob:      0.3,
			TechPerComeback: 1.5,
			CsiScale:        0.05,
			CsiAnchor:       75,
			CsiReversion:    0.02,
		},
		Guardrails: GuardrailCoefficients{
			TargetReplacementGross: 3000,
			AssumedFrontGross:      2500,
			MinDaysSupply:          30,
			MaxDaysSupply:          90,
			MinRunwayDays:          30,
		},
	}
}

// MergeCoefficients deep-merges patch into a copy of base. Only keys present
// in patch change; base is never modified.
func MergeCoefficients(base Coefficients, patch map[string]any) (Coefficients, error) {
	raw, err := json.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("encode coefficients: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return base, fmt.Errorf("decode coefficients: %w", err)
	}
	mergeMaps(doc, patch)
	merged, err := json.Marshal(doc)
	if err != nil {
		return base, fmt.Errorf("encode merged coefficients: %w", err)
	}
	out := DefaultCoefficients()
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return base, fmt.Errorf("apply coefficient patch: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// Validate bounds the coefficients that scale how much work one hour does
// (lead and service volume, pack size) and the ones read as probabilities
// or ranges.
func (c Coefficients) Validate() error {
	var errs []error
	check := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s=%v outside [%v, %v]", name, v, lo, hi))
		}
	}
	check("leads.base_per_day", c.Leads.BasePerDay, 0, 1000)
	check("leads.marketing_k", c.Leads.MarketingK, 0, 10)
	check("leads.diminishing_k", c.Leads.DiminishingK, 0, 1)
	check("sales.variance_pct", c.Sales.VariancePct, 0, 1)
	check("sales.max_discount_pct", c.Sales.MaxDiscountPct, 0, 1)
	check("pricing.markup_min", c.Pricing.MarkupMin, 0.5, 5)
	check("pricing.markup_max", c.Pricing.MarkupMax, c.Pricing.MarkupMin, 5)
	check("pricing.avg_cost_per_unit", c.Pricing.AvgCostPerUnit, 1, 1_000_000)
	check("inventory.max_pack_size", float64(c.Inventory.MaxPackSize), 1, 100)
	check("economy.min_demand", c.Economy.MinDemand, 0, 10)
	check("economy.max_demand", c.Economy.MaxDemand, c.Economy.MinDemand, 10)
	check("economy.min_rate", c.Economy.MinRate, 0, 1)
	check("economy.max_rate", c.Economy.MaxRate, c.Economy.MinRate, 1)
	check("economy.event_prob", c.Economy.EventProb, 0, 1)
	check("service.base_daily_demand", c.Service.BaseDailyDemand, 0, 1000)
	check("service.demand_per_sale", c.Service.DemandPerSale, 0, 50)
	check("service.queue_target_hours", c.Service.QueueTargetHours, 0, BusinessDayHours)
	check("finance.back_gross_prob", c.Finance.BackGrossProb, 0, 1)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrBadCoefficients, errors.Join(errs...))
	}
	return nil
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		if srcIsMap {
			if dstMap, ok := asMap(dst[k]); ok {
				mergeMaps(dstMap, srcMap)
				dst[k] = dstMap
				continue
			}
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
