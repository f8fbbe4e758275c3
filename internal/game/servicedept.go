package game

import "math"

type ServiceHourInput struct {
	Hour         int
	Day          int
	Month        int
	Year         int
	Seed         int64
	NextJob      int
	SalesToday   int
	Queue        []ServiceJob
	Technicians  []Technician
	HoursUsed    map[string]float64
	Coefficients Coefficients
	Archetypes   Archetypes
}

func (s GameState) serviceHourInput(t Tables) ServiceHourInput {
	return ServiceHourInput{
		Hour:         s.Hour,
		Day:          s.Day,
		Month:        s.Month,
		Year:         s.Year,
		Seed:         s.Seed,
		NextJob:      s.NextJobNumber,
		SalesToday:   s.Today.UnitsSold,
		Queue:        s.ServiceQueue,
		Technicians:  s.Technicians,
		HoursUsed:    s.Today.TechHoursUsed,
		Coefficients: s.Coefficients,
		Archetypes:   t.Archetypes,
	}
}

func moraleFactor(morale float64) float64 {
	return 1 + (morale-50)/200
}

// TechnicianEfficiency folds archetype and morale into the base efficiency.
func TechnicianEfficiency(t Technician, arch TechnicianArchetype) float64 {
	return clamp(t.Efficiency*(1+arch.EfficiencyMod)*moraleFactor(t.Morale), 0.4, 2)
}

// DailyCapacity is the labor hours a technician can book in one business day.
func DailyCapacity(efficiency float64) float64 {
	return clamp(7*efficiency, 3, 12)
}

// SimulateServiceHour tops up the queue to the hourly target and lets each
// active technician work jobs from the front while the head job still fits
// in their remaining daily capacity. Unfinished jobs stay queued.
func SimulateServiceHour(in ServiceHourInput, rng *RNG) ServiceHourResult {
	c := in.Coefficients.Service
	res := ServiceHourResult{
		HoursUsed: map[string]float64{},
		Completed: map[string]int{},
		Comebacks: map[string]int{},
		NextJob:   in.NextJob,
	}
	queue := make([]ServiceJob, len(in.Queue))
	copy(queue, in.Queue)

	hourly := (c.BaseDailyDemand + float64(in.SalesToday)*c.DemandPerSale) / BusinessDayHours
	target := maxInt(1, int(math.Round(hourly*c.QueueTargetHours)))
	for len(queue) < target {
		queue = append(queue, ServiceJob{
			ID:           newID("job", in.Seed, res.NextJob),
			LaborHours:   rng.Range(1, 5),
			ComebackRisk: rng.Range(0.1, 0.25),
			OpenedDay:    in.Day,
			OpenedHour:   in.Hour,
		})
		res.NextJob++
	}

	for _, t := range in.Technicians {
		if !t.Active {
			continue
		}
		arch := in.Archetypes.technician(t.Archetype)
		mf := moraleFactor(t.Morale)
		eff := TechnicianEfficiency(t, arch)
		remaining := DailyCapacity(eff) - in.HoursUsed[t.ID]

		for len(queue) > 0 && queue[0].LaborHours <= remaining {
			job := queue[0]
			queue = queue[1:]
			remaining -= job.LaborHours

			parts := job.LaborHours * c.LaborRate * rng.Range(0.6, 1.4)
			comebackP := clamp(job.ComebackRisk+arch.ComebackRate-mf*0.05, 0.02, 0.25)
			comeback := rng.Chance(comebackP)
			csi := c.CsiPerJob * eff
			if comeback {
				csi = c.ComebackCsi
				res.Comebacks[t.ID]++
				res.ComebackCount++
			}
			res.ROs = append(res.ROs, RepairOrder{
				ID:           newID("ro", in.Seed, job.ID),
				JobID:        job.ID,
				TechnicianID: t.ID,
				LaborHours:   job.LaborHours,
				PartsRevenue: roundCents(parts),
				Comeback:     comeback,
				CsiImpact:    csi,
				Day:          in.Day,
				Month:        in.Month,
				Year:         in.Year,
				Hour:         in.Hour,
			})
			res.HoursUsed[t.ID] += job.LaborHours
			res.Completed[t.ID]++
			res.ServiceHours += job.LaborHours
			res.PartsRevenue += roundCents(parts)
			res.CsiDelta += csi
		}
	}
	res.Queue = queue
	return res
}
