package game

import "sort"

type AdvisorArchetype struct {
	CloseMod          float64 `json:"close_mod" yaml:"close_mod"`
	GrossMod          float64 `json:"gross_mod" yaml:"gross_mod"`
	CsiMod            float64 `json:"csi_mod" yaml:"csi_mod"`
	BackMod           float64 `json:"back_mod" yaml:"back_mod"`
	MoraleSensitivity float64 `json:"morale_sensitivity" yaml:"morale_sensitivity"`
}

type TechnicianArchetype struct {
	EfficiencyMod float64 `json:"efficiency_mod" yaml:"efficiency_mod"`
	ComebackRate  float64 `json:"comeback_rate" yaml:"comeback_rate"`
}

type CustomerArchetype struct {
	Name             string  `json:"name" yaml:"name"`
	Weight           float64 `json:"weight" yaml:"weight"`
	CloseBias        float64 `json:"close_bias" yaml:"close_bias"`
	GrossBias        float64 `json:"gross_bias" yaml:"gross_bias"`
	CsiBias          float64 `json:"csi_bias" yaml:"csi_bias"`
	BEVAffinity      float64 `json:"bev_affinity" yaml:"bev_affinity"`
	PriceSensitivity float64 `json:"price_sensitivity" yaml:"price_sensitivity"`
}

// Archetypes are read-only behavioural modifier bundles. They are passed into
// the models at call time rather than read from package state.
type Archetypes struct {
	Advisors    map[string]AdvisorArchetype    `json:"advisors" yaml:"advisors"`
	Technicians map[string]TechnicianArchetype `json:"technicians" yaml:"technicians"`
	Customers   []CustomerArchetype            `json:"customers" yaml:"customers"`
}

func DefaultArchetypes() Archetypes {
	return Archetypes{
		Advisors: map[string]AdvisorArchetype{
			"closer":        {CloseMod: 0.35, GrossMod: -0.05, CsiMod: -0.1, BackMod: 0.02, MoraleSensitivity: 1.2},
			"relationship":  {CloseMod: 0.0, GrossMod: 0.05, CsiMod: 0.3, BackMod: 0.05, MoraleSensitivity: 0.9},
			"grinder":       {CloseMod: 0.15, GrossMod: 0.0, CsiMod: 0.0, BackMod: 0.0, MoraleSensitivity: 0.6},
			"finance_savvy": {CloseMod: 0.05, GrossMod: 0.1, CsiMod: 0.05, BackMod: 0.12, MoraleSensitivity: 1.0},
			"rookie":        {CloseMod: -0.2, GrossMod: -0.1, CsiMod: 0.1, BackMod: -0.05, MoraleSensitivity: 1.4},
		},
		Technicians: map[string]TechnicianArchetype{
			"veteran":    {EfficiencyMod: 0.1, ComebackRate: 0.02},
			"speedster":  {EfficiencyMod: 0.25, ComebackRate: 0.08},
			"meticulous": {EfficiencyMod: -0.1, ComebackRate: 0.01},
			"apprentice": {EfficiencyMod: -0.2, ComebackRate: 0.06},
		},
		Customers: []CustomerArchetype{
			{Name: "bargain_hunter", Weight: 0.30, CloseBias: -0.2, GrossBias: -0.3, CsiBias: -0.1, BEVAffinity: 0.05, PriceSensitivity: 0.8},
			{Name: "loyal_repeat", Weight: 0.15, CloseBias: 0.3, GrossBias: 0.1, CsiBias: 0.3, BEVAffinity: 0.1, PriceSensitivity: 0.3},
			{Name: "eco_minded", Weight: 0.15, CloseBias: 0.0, GrossBias: 0.0, CsiBias: 0.1, BEVAffinity: 0.8, PriceSensitivity: 0.5},
			{Name: "impulse", Weight: 0.15, CloseBias: 0.25, GrossBias: 0.2, CsiBias: 0.0, BEVAffinity: 0.1, PriceSensitivity: 0.2},
			{Name: "researcher", Weight: 0.25, CloseBias: -0.1, GrossBias: -0.1, CsiBias: 0.1, BEVAffinity: 0.3, PriceSensitivity: 0.6},
		},
	}
}

func (a Archetypes) advisor(name string) AdvisorArchetype {
	return a.Advisors[name]
}

func (a Archetypes) technician(name string) TechnicianArchetype {
	return a.Technicians[name]
}

// AdvisorNames lists advisor archetypes in a stable order. Map iteration
// order must never leak into a draw.
func (a Archetypes) AdvisorNames() []string {
	return sortedKeys(a.Advisors)
}

func (a Archetypes) TechnicianNames() []string {
	return sortedKeys(a.Technicians)
}

// NewCustomer draws a customer archetype by weight.
func (a Archetypes) NewCustomer(rng *RNG) Customer {
	if len(a.Customers) == 0 {
		return Customer{Archetype: "walk_in", PriceSensitivity: 0.5}
	}
	weights := make([]float64, len(a.Customers))
	for i, c := range a.Customers {
		weights[i] = c.Weight
	}
	c := a.Customers[rng.WeightedIndex(weights)]
	return Customer{
		Archetype:        c.Name,
		CloseBias:        c.CloseBias,
		GrossBias:        c.GrossBias,
		CsiBias:          c.CsiBias,
		BEVAffinity:      c.BEVAffinity,
		PriceSensitivity: c.PriceSensitivity,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
