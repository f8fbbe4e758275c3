package game

import "fmt"

type EventKind string

const (
	EventDemandSurge   EventKind = "demand_surge"
	EventDemandSlump   EventKind = "demand_slump"
	EventRateHike      EventKind = "rate_hike"
	EventRateCut       EventKind = "rate_cut"
	EventStorm         EventKind = "storm"
	EventIncentivePush EventKind = "incentive_push"
)

var eventKinds = []EventKind{
	EventDemandSurge,
	EventDemandSlump,
	EventRateHike,
	EventRateCut,
	EventStorm,
	EventIncentivePush,
}

type EconomicEvent struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text"`
}

var seasonalWeather = map[string][2]float64{
	"winter": {0.3, 0.9},
	"spring": {0.6, 1.0},
	"summer": {0.7, 1.0},
	"fall":   {0.5, 1.0},
}

// DriftEconomy applies one daily mean-reverting step to the economy.
func DriftEconomy(e Economy, month int, c EconomyCoefficients, rng *RNG) Economy {
	e.DemandIndex += c.DemandReversion*(1-e.DemandIndex) + rng.Range(-c.DemandDrift, c.DemandDrift)
	e.DemandIndex = clamp(e.DemandIndex, c.MinDemand, c.MaxDemand)
	e.InterestRate = clamp(e.InterestRate+rng.Range(-c.RateDrift, c.RateDrift), c.MinRate, c.MaxRate)
	w := seasonalWeather[Season(month)]
	e.WeatherFactor = rng.Range(w[0], w[1])
	e.IncentiveLevel = clamp(e.IncentiveLevel*(1-c.IncentiveDecay), 0, 1)
	return e
}

// RollEvent fires at most one economic shock. A nil event means the day was
// quiet and e is returned unchanged.
func RollEvent(e Economy, c EconomyCoefficients, rng *RNG) (Economy, *EconomicEvent) {
	if !rng.Chance(c.EventProb) {
		return e, nil
	}
	kind := eventKinds[rng.Pick(len(eventKinds))]
	var text string
	switch kind {
	case EventDemandSurge:
		delta := rng.Range(0.1, 0.2)
		e.DemandIndex = clamp(e.DemandIndex+delta, c.MinDemand, c.MaxDemand)
		text = fmt.Sprintf("Buyers flood the market: demand up %.0f%%", delta*100)
	case EventDemandSlump:
		delta := rng.Range(0.1, 0.2)
		e.DemandIndex = clamp(e.DemandIndex-delta, c.MinDemand, c.MaxDemand)
		text = fmt.Sprintf("Consumer confidence dips: demand down %.0f%%", delta*100)
	case EventRateHike:
		delta := rng.Range(0.005, 0.01)
		e.InterestRate = clamp(e.InterestRate+delta, c.MinRate, c.MaxRate)
		text = fmt.Sprintf("Central bank hikes rates to %.2f%%", e.InterestRate*100)
	case EventRateCut:
		delta := rng.Range(0.005, 0.01)
		e.InterestRate = clamp(e.InterestRate-delta, c.MinRate, c.MaxRate)
		text = fmt.Sprintf("Central bank cuts rates to %.2f%%", e.InterestRate*100)
	case EventStorm:
		e.WeatherFactor = rng.Range(0.1, 0.3)
		text = "Severe storm keeps shoppers home"
	case EventIncentivePush:
		e.IncentiveLevel = clamp(e.IncentiveLevel+rng.Range(0.3, 0.6), 0, 1)
		text = "Manufacturer launches a cash-back incentive push"
	}
	return e, &EconomicEvent{Kind: kind, Text: text}
}
