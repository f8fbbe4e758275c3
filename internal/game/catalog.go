package game

import "strings"

type CatalogEntry struct {
	Make     string  `json:"make" yaml:"make"`
	Model    string  `json:"model" yaml:"model"`
	Segment  string  `json:"segment" yaml:"segment"`
	YearFrom int     `json:"year_from" yaml:"year_from"`
	YearTo   int     `json:"year_to" yaml:"year_to"`
	IsBEV    bool    `json:"is_bev" yaml:"is_bev"`
	CostBias float64 `json:"cost_bias" yaml:"cost_bias"`
}

type Catalog []CatalogEntry

// Tables bundles the static data the models read. The engine receives one
// value at construction; nothing in the package reads globals.
type Tables struct {
	Archetypes Archetypes `json:"archetypes" yaml:"archetypes"`
	Catalog    Catalog    `json:"catalog" yaml:"catalog"`
}

func DefaultTables() Tables {
	return Tables{
		Archetypes: DefaultArchetypes(),
		Catalog:    DefaultCatalog(),
	}
}

var segmentBaseDemand = map[string]float64{
	"sedan":       55,
	"suv":         70,
	"truck":       68,
	"compact":     50,
	"luxury":      62,
	"convertible": 45,
	"ev":          60,
	"minivan":     48,
}

var conditionBonus = map[string]float64{
	"new":       10,
	"certified": 6,
	"used":      0,
	"rough":     -12,
}

// Segments returns the segments known to the desirability table, sorted.
func Segments() []string {
	return sortedKeys(segmentBaseDemand)
}

func DefaultCatalog() Catalog {
	return Catalog{
		{Make: "Toyota", Model: "Camry", Segment: "sedan", YearFrom: 2017, YearTo: 2024},
		{Make: "Honda", Model: "Accord", Segment: "sedan", YearFrom: 2017, YearTo: 2024},
		{Make: "Hyundai", Model: "Sonata", Segment: "sedan", YearFrom: 2018, YearTo: 2024},
		{Make: "Toyota", Model: "RAV4", Segment: "suv", YearFrom: 2018, YearTo: 2024},
		{Make: "Ford", Model: "Explorer", Segment: "suv", YearFrom: 2017, YearTo: 2024},
		{Make: "Subaru", Model: "Outback", Segment: "suv", YearFrom: 2017, YearTo: 2024},
		{Make: "Ford", Model: "F-150", Segment: "truck", YearFrom: 2016, YearTo: 2024},
		{Make: "Chevrolet", Model: "Silverado", Segment: "truck", YearFrom: 2016, YearTo: 2024},
		{Make: "Ram", Model: "1500", Segment: "truck", YearFrom: 2017, YearTo: 2024},
		{Make: "Honda", Model: "Civic", Segment: "compact", YearFrom: 2017, YearTo: 2024},
		{Make: "Mazda", Model: "3", Segment: "compact", YearFrom: 2018, YearTo: 2024},
		{Make: "Kia", Model: "Forte", Segment: "compact", YearFrom: 2019, YearTo: 2024},
		{Make: "BMW", Model: "5 Series", Segment: "luxury", YearFrom: 2018, YearTo: 2024},
		{Make: "Lexus", Model: "ES", Segment: "luxury", YearFrom: 2018, YearTo: 2024},
		{Make: "Mazda", Model: "MX-5 Miata", Segment: "convertible", YearFrom: 2016, YearTo: 2024},
		{Make: "Ford", Model: "Mustang Convertible", Segment: "convertible", YearFrom: 2016, YearTo: 2024},
		{Make: "Tesla", Model: "Model 3", Segment: "ev", YearFrom: 2019, YearTo: 2024, IsBEV: true},
		{Make: "Chevrolet", Model: "Bolt EV", Segment: "ev", YearFrom: 2018, YearTo: 2023, IsBEV: true},
		{Make: "Hyundai", Model: "Ioniq 5", Segment: "ev", YearFrom: 2022, YearTo: 2024, IsBEV: true},
		{Make: "Honda", Model: "Odyssey", Segment: "minivan", YearFrom: 2017, YearTo: 2024},
		{Make: "Chrysler", Model: "Pacifica", Segment: "minivan", YearFrom: 2017, YearTo: 2024},
	}
}

// BySegment returns the entries for segment, in catalog order.
func (c Catalog) BySegment(segment string) []CatalogEntry {
	var out []CatalogEntry
	for _, e := range c {
		if strings.EqualFold(e.Segment, segment) {
			out = append(out, e)
		}
	}
	return out
}

func genericEntry(segment string, year int) CatalogEntry {
	name := "Vehicle"
	if segment != "" {
		name = strings.ToUpper(segment[:1]) + segment[1:]
	}
	return CatalogEntry{
		Make:     "Generic",
		Model:    name,
		Segment:  segment,
		YearFrom: year - 5,
		YearTo:   year,
		IsBEV:    segment == "ev",
	}
}
