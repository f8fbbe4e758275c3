package game

import "testing"

func TestMergeCoefficientsDeepMerge(t *testing.T) {
	base := DefaultCoefficients()
	merged, err := MergeCoefficients(base, map[string]any{
		"sales": map[string]any{"base_logit": 0.5},
		"leads": map[string]any{"base_per_day": 50.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Sales.BaseLogit != 0.5 || merged.Leads.BasePerDay != 50 {
		t.Fatalf("patch not applied: %+v", merged.Sales)
	}
	if merged.Sales.SkillWeight != base.Sales.SkillWeight || merged.Leads.MarketingK != base.Leads.MarketingK {
		t.Fatalf("sibling keys must survive the merge")
	}
	if base.Sales.BaseLogit != DefaultCoefficients().Sales.BaseLogit {
		t.Fatalf("base was mutated")
	}
}

func TestMergeCoefficientsYAMLStyleMaps(t *testing.T) {
	merged, err := MergeCoefficients(DefaultCoefficients(), map[string]any{
		"economy": map[any]any{"event_prob": 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Economy.EventProb != 0.5 {
		t.Fatalf("event prob got=%v", merged.Economy.EventProb)
	}
}

func TestMergeCoefficientsRejectsUnknownKeys(t *testing.T) {
	base := DefaultCoefficients()
	got, err := MergeCoefficients(base, map[string]any{"sales": map[string]any{"magic": 1}})
	if err == nil {
		t.Fatalf("expected unknown key to fail")
	}
	if got != base {
		t.Fatalf("failed merge must return base")
	}
}
