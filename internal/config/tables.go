package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dealersim/internal/game"
)

// TablesFile is the on-disk override document. Every section is optional;
// anything left out keeps the built-in default.
type TablesFile struct {
	Archetypes struct {
		Advisors    map[string]game.AdvisorArchetype    `yaml:"advisors"`
		Technicians map[string]game.TechnicianArchetype `yaml:"technicians"`
		Customers   []game.CustomerArchetype            `yaml:"customers"`
	} `yaml:"archetypes"`
	Catalog      game.Catalog   `yaml:"catalog"`
	Coefficients map[string]any `yaml:"coefficients"`
}

type Overrides struct {
	Tables       game.Tables
	Coefficients *game.Coefficients
}

// LoadTables reads path and overlays it on the default tables. An empty
// path returns the defaults unchanged.
func LoadTables(path string) (Overrides, error) {
	out := Overrides{Tables: game.DefaultTables()}
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read tables file: %w", err)
	}
	return ParseTables(raw)
}

func ParseTables(raw []byte) (Overrides, error) {
	out := Overrides{Tables: game.DefaultTables()}
	var doc TablesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return out, fmt.Errorf("parse tables file: %w", err)
	}

	for name, a := range doc.Archetypes.Advisors {
		out.Tables.Archetypes.Advisors[name] = a
	}
	for name, t := range doc.Archetypes.Technicians {
		out.Tables.Archetypes.Technicians[name] = t
	}
	if len(doc.Archetypes.Customers) > 0 {
		for _, c := range doc.Archetypes.Customers {
			if c.Weight < 0 {
				return out, fmt.Errorf("customer archetype %q: weight must be >= 0", c.Name)
			}
		}
		out.Tables.Archetypes.Customers = doc.Archetypes.Customers
	}
	if len(doc.Catalog) > 0 {
		for _, e := range doc.Catalog {
			if e.Segment == "" || e.YearFrom > e.YearTo {
				return out, fmt.Errorf("catalog entry %s %s: segment and year range required", e.Make, e.Model)
			}
		}
		out.Tables.Catalog = doc.Catalog
	}
	if len(doc.Coefficients) > 0 {
		c, err := game.MergeCoefficients(game.DefaultCoefficients(), doc.Coefficients)
		if err != nil {
			return out, err
		}
		out.Coefficients = &c
	}
	return out, nil
}
