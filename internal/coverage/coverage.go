// Package coverage computes per-tile service reach fields from the service
// buildings on a grid. It is a pure function of the grid and the balance.
package coverage

import (
	"math"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
)

// Services holds one field per service, flattened row-major.
type Services struct {
	Size      int       `json:"size"`
	Power     []bool    `json:"power"`
	Water     []bool    `json:"water"`
	Police    []float64 `json:"police"`
	Fire      []float64 `json:"fire"`
	Health    []float64 `json:"health"`
	Education []float64 `json:"education"`
}

// New allocates empty fields for a size×size grid.
func New(size int) *Services {
	n := size * size
	return &Services{
		Size:      size,
		Power:     make([]bool, n),
		Water:     make([]bool, n),
		Police:    make([]float64, n),
		Fire:      make([]float64, n),
		Health:    make([]float64, n),
		Education: make([]float64, n),
	}
}

// Powered reports power reach at (x, y).
func (s *Services) Powered(x, y int) bool { return s.Power[y*s.Size+x] }

// Watered reports water reach at (x, y).
func (s *Services) Watered(x, y int) bool { return s.Water[y*s.Size+x] }

// Level returns the numeric coverage of a service at (x, y).
func (s *Services) Level(svc city.Service, x, y int) float64 {
	i := y*s.Size + x
	switch svc {
	case city.ServicePolice:
		return s.Police[i]
	case city.ServiceFire:
		return s.Fire[i]
	case city.ServiceHealth:
		return s.Health[i]
	case city.ServiceEducation:
		return s.Education[i]
	case city.ServicePower:
		if s.Power[i] {
			return 100
		}
	case city.ServiceWater:
		if s.Water[i] {
			return 100
		}
	}
	return 0
}

// Average returns the mean of the four numeric services at (x, y).
func (s *Services) Average(x, y int) float64 {
	i := y*s.Size + x
	return (s.Police[i] + s.Fire[i] + s.Health[i] + s.Education[i]) / 4
}

// BaseRange returns the unscaled radius for a service building type, or 0.
func BaseRange(t city.BuildingType, cfg *balance.Config) float64 {
	c := cfg.Coverage
	switch t {
	case city.TypePoliceStation:
		return c.PoliceRange
	case city.TypeFireStation:
		return c.FireRange
	case city.TypeHospital:
		return c.HospitalRange
	case city.TypeSchool:
		return c.SchoolRange
	case city.TypeUniversity:
		return c.UniversityRange
	case city.TypePowerPlant:
		return c.PowerRange
	case city.TypeWaterTower:
		return c.WaterRange
	}
	return 0
}

// EffectiveRange scales a base range by building level.
func EffectiveRange(base float64, level int, cfg *balance.Config) float64 {
	if level < 1 {
		level = 1
	}
	return base * (1 + float64(level-1)*cfg.Coverage.LevelRangeStep)
}

// Calculate builds every coverage field. Cost is O(sources × range²).
func Calculate(v city.View, cfg *balance.Config) *Services {
	size := v.Size()
	s := New(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := v.At(x, y)
			spec := city.SpecOf(t.Building.Type)
			if spec.Kind != city.KindService || spec.Service == city.ServiceNone {
				continue
			}
			if !t.Building.Completed() || t.Building.Abandoned {
				continue
			}
			r := EffectiveRange(BaseRange(t.Building.Type, cfg), t.Building.Level, cfg)
			if r <= 0 {
				continue
			}
			s.stamp(spec.Service, x, y, r, cfg.Coverage.Cap)
		}
	}
	return s
}

func (s *Services) stamp(svc city.Service, cx, cy int, r, limit float64) {
	reach := int(math.Ceil(r))
	r2 := r * r
	x0, x1 := max(0, cx-reach), min(s.Size-1, cx+reach)
	y0, y1 := max(0, cy-reach), min(s.Size-1, cy+reach)

	var field []float64
	var flags []bool
	switch svc {
	case city.ServicePower:
		flags = s.Power
	case city.ServiceWater:
		flags = s.Water
	case city.ServicePolice:
		field = s.Police
	case city.ServiceFire:
		field = s.Fire
	case city.ServiceHealth:
		field = s.Health
	case city.ServiceEducation:
		field = s.Education
	default:
		return
	}

	for y := y0; y <= y1; y++ {
		dy := float64(y - cy)
		for x := x0; x <= x1; x++ {
			dx := float64(x - cx)
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			i := y*s.Size + x
			if flags != nil {
				flags[i] = true
				continue
			}
			add := (1 - math.Sqrt(d2)/r) * 100
			if add <= 0 {
				continue
			}
			field[i] = math.Min(limit, field[i]+add)
		}
	}
}
