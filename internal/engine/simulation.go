// Simulation state: the complete, serialisable city snapshot that each tick
// consumes and produces.
package engine

import (
	"github.com/google/uuid"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/coverage"
)

// State is one tick's immutable snapshot. SimulateTick and the player tools
// return a new *State and never modify their input; unchanged grid rows are
// shared between snapshots, so consumers must not mutate anything reachable
// from a State.
type State struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GridSize int    `json:"grid_size"`

	Grid     *city.Grid         `json:"grid"`
	Services *coverage.Services `json:"services"`
	Stats    Stats              `json:"stats"`
	Census   Census             `json:"census"`
	Budget   Budget             `json:"budget"`

	TaxRate          float64 `json:"tax_rate"`
	EffectiveTaxRate float64 `json:"effective_tax_rate"`

	Calendar         Calendar         `json:"calendar"`
	WaterBodies      []city.WaterBody `json:"water_bodies,omitempty"`
	DisastersEnabled bool             `json:"disasters_enabled"`

	// Seed is the world seed; a resumed city reseeds its random source
	// from Seed and Calendar.TotalTicks.
	Seed int64 `json:"seed"`
}

// Demand is the signed RCI pressure, each component in [-100, 100].
type Demand struct {
	Residential float64 `json:"residential"`
	Commercial  float64 `json:"commercial"`
	Industrial  float64 `json:"industrial"`
}

// For returns the component for a zone. Unzoned land has no demand.
func (d Demand) For(z city.Zone) float64 {
	switch z {
	case city.ZoneResidential:
		return d.Residential
	case city.ZoneCommercial:
		return d.Commercial
	case city.ZoneIndustrial:
		return d.Industrial
	}
	return 0
}

// Stats is the outward summary of a tick.
type Stats struct {
	Population  int     `json:"population"`
	Jobs        int     `json:"jobs"`
	Money       int     `json:"money"`
	Income      int     `json:"income"`
	Expenses    int     `json:"expenses"`
	Safety      float64 `json:"safety"`
	Health      float64 `json:"health"`
	Education   float64 `json:"education"`
	Environment float64 `json:"environment"`
	Happiness   float64 `json:"happiness"`
	Demand      Demand  `json:"demand"`
}

// NewState wraps an upstream grid into a fresh city. The grid is adopted,
// not copied.
func NewState(name string, g *city.Grid, water []city.WaterBody, cfg *balance.Config) *State {
	s := &State{
		ID:               uuid.NewString(),
		Name:             name,
		GridSize:         g.Size(),
		Grid:             g,
		Services:         coverage.Calculate(g, cfg),
		Budget:           DefaultBudget(),
		TaxRate:          cfg.Budget.StartingTax,
		EffectiveTaxRate: cfg.Budget.StartingTax,
		Calendar:         NewCalendar(),
		WaterBodies:      water,
		DisastersEnabled: true,
	}
	s.Stats.Money = cfg.Budget.StartingMoney
	s.Stats, s.Census = Aggregate(g, s.Services, s.Stats, s.TaxRate, s.EffectiveTaxRate, cfg)
	// A new city starts from neutral demand and lets smoothing carry it.
	s.Stats.Demand = Demand{}
	s.Budget = RecomputeBudget(s.Budget, s.Census, cfg)
	return s
}

// withGrid returns a shallow copy pointing at a new grid.
func (s *State) withGrid(g *city.Grid) *State {
	next := *s
	next.Grid = g
	return &next
}
