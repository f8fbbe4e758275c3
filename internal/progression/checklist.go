package progression

import (
	"fmt"
	"slices"

	"dealersim/internal/game"
)

// Milestone is one requirement on the checklist. Met is evaluated after
// every closed day; Reward runs once, the first time Met holds.
type Milestone struct {
	ID          string
	Description string
	Met         func(game.GameState) bool
	Reward      func(*game.GameState) string
}

// Checklist is the production Progression: an ordered list of milestones
// whose ids are recorded in GameState.Unlocks once achieved.
type Checklist struct {
	milestones []Milestone
}

func New(milestones ...Milestone) *Checklist {
	return &Checklist{milestones: milestones}
}

func Default() *Checklist {
	return New(DefaultMilestones()...)
}

func (c *Checklist) Milestones() []Milestone {
	return slices.Clone(c.milestones)
}

func (c *Checklist) Check(s game.GameState) (game.GameState, []string) {
	var notes []string
	for _, m := range c.milestones {
		if slices.Contains(s.Unlocks, m.ID) || !m.Met(s) {
			continue
		}
		s.Unlocks = append(s.Unlocks, m.ID)
		note := fmt.Sprintf("Milestone reached: %s", m.Description)
		if m.Reward != nil {
			if reward := m.Reward(&s); reward != "" {
				note += " (" + reward + ")"
			}
		}
		notes = append(notes, note)
	}
	return s, notes
}

func unitsAtLeast(n int) func(game.GameState) bool {
	return func(s game.GameState) bool { return s.Lifetime.UnitsSold >= n }
}

func growLot(n int) func(*game.GameState) string {
	return func(s *game.GameState) string {
		s.Capacity.LotSize += n
		return fmt.Sprintf("lot expanded to %d spaces", s.Capacity.LotSize)
	}
}

func addAdvisorSlot(s *game.GameState) string {
	s.Capacity.AdvisorSlots++
	return fmt.Sprintf("%d advisor desks", s.Capacity.AdvisorSlots)
}

func addServiceBay(s *game.GameState) string {
	s.Capacity.TechnicianBays++
	return fmt.Sprintf("%d service bays", s.Capacity.TechnicianBays)
}

func DefaultMilestones() []Milestone {
	return []Milestone{
		{
			ID:          "first_sale",
			Description: "first vehicle sold",
			Met:         unitsAtLeast(1),
		},
		{
			ID:          "units_10",
			Description: "10 units sold",
			Met:         unitsAtLeast(10),
			Reward:      growLot(10),
		},
		{
			ID:          "units_50",
			Description: "50 units sold",
			Met:         unitsAtLeast(50),
			Reward:      addAdvisorSlot,
		},
		{
			ID:          "units_100",
			Description: "100 units sold",
			Met:         unitsAtLeast(100),
			Reward:      growLot(20),
		},
		{
			ID:          "service_200",
			Description: "200 repair orders completed",
			Met:         func(s game.GameState) bool { return s.Lifetime.ROsCompleted >= 200 },
			Reward:      addServiceBay,
		},
		{
			ID:          "csi_85",
			Description: "customer satisfaction at 85",
			Met:         func(s game.GameState) bool { return s.CSI >= 85 },
			Reward:      addAdvisorSlot,
		},
		{
			ID:          "cash_3m",
			Description: "cash balance over 3,000,000",
			Met:         func(s game.GameState) bool { return s.Cash >= 3_000_000 },
			Reward:      growLot(30),
		},
		{
			ID:          "first_month",
			Description: "first month closed",
			Met:         func(s game.GameState) bool { return len(s.MonthlyReports) > 0 },
		},
	}
}
