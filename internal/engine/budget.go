package engine

import (
	"github.com/talgya/mini-city/internal/balance"
)

// Category is one line of the city budget.
type Category struct {
	Name    string `json:"name"`
	Funding int    `json:"funding"` // percent, 0-100
	Count   int    `json:"count"`
	Cost    int    `json:"cost"` // monthly
}

// Budget is recomputed from building counts every tick.
type Budget struct {
	Police         Category `json:"police"`
	Fire           Category `json:"fire"`
	Health         Category `json:"health"`
	Education      Category `json:"education"`
	Transportation Category `json:"transportation"`
	Parks          Category `json:"parks"`
	Power          Category `json:"power"`
	Water          Category `json:"water"`
}

// DefaultBudget funds every category fully.
func DefaultBudget() Budget {
	c := func(name string) Category { return Category{Name: name, Funding: 100} }
	return Budget{
		Police:         c("police"),
		Fire:           c("fire"),
		Health:         c("health"),
		Education:      c("education"),
		Transportation: c("transportation"),
		Parks:          c("parks"),
		Power:          c("power"),
		Water:          c("water"),
	}
}

// Categories returns pointers to every line, in display order.
func (b *Budget) Categories() []*Category {
	return []*Category{&b.Police, &b.Fire, &b.Health, &b.Education,
		&b.Transportation, &b.Parks, &b.Power, &b.Water}
}

// Total returns the monthly upkeep across all categories.
func (b Budget) Total() int {
	total := 0
	for _, c := range b.Categories() {
		total += c.Cost
	}
	return total
}

// RecomputeBudget refreshes counts and costs from the census, keeping the
// player's funding levels.
func RecomputeBudget(b Budget, c Census, cfg *balance.Config) Budget {
	u := cfg.Budget
	set := func(cat *Category, count, upkeep int) {
		cat.Count = count
		cat.Cost = count * upkeep * cat.Funding / 100
	}
	set(&b.Police, c.PoliceStations, u.PoliceUpkeep)
	set(&b.Fire, c.FireStations, u.FireUpkeep)
	set(&b.Health, c.Hospitals, u.HealthUpkeep)
	set(&b.Education, c.Schools, u.EducationUpkeep)
	set(&b.Transportation, c.Roads+c.Rail+c.Bridges, u.RoadUpkeep)
	set(&b.Parks, c.Parks, u.ParkUpkeep)
	set(&b.Power, c.PowerPlants, u.PowerUpkeep)
	set(&b.Water, c.WaterTowers, u.WaterUpkeep)
	return b
}

// MonthlyIncome is the tax take at the player's rate.
func MonthlyIncome(population, jobs int, taxRate float64, cfg *balance.Config) int {
	return int(float64(population)*cfg.Budget.ResidentTax*taxRate +
		float64(jobs)*cfg.Budget.JobTax*taxRate)
}
