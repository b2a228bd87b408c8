// Package balance holds every tuned simulation coefficient as named configuration.
// The values are empirical "feel" constants; changing one is a balance decision.
package balance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tuning knobs consumed by the tick.
type Config struct {
	Coverage    Coverage    `yaml:"coverage"`
	Reach       Reach       `yaml:"reach"`
	Growth      Growth      `yaml:"growth"`
	Abandonment Abandonment `yaml:"abandonment"`
	Demand      Demand      `yaml:"demand"`
	Fire        Fire        `yaml:"fire"`
	Bridge      Bridge      `yaml:"bridge"`
	Calendar    Calendar    `yaml:"calendar"`
	Budget      Budget      `yaml:"budget"`
	Environment Environment `yaml:"environment"`

	// DisableSkip forces every tile through the full update path.
	// Only useful for verifying that the static-tile shortcut is invisible.
	DisableSkip bool `yaml:"disable_skip"`
}

// Coverage holds service radii (in tiles) before level scaling.
type Coverage struct {
	PoliceRange     float64 `yaml:"police_range"`
	FireRange       float64 `yaml:"fire_range"`
	HospitalRange   float64 `yaml:"hospital_range"`
	SchoolRange     float64 `yaml:"school_range"`
	UniversityRange float64 `yaml:"university_range"`
	PowerRange      float64 `yaml:"power_range"`
	WaterRange      float64 `yaml:"water_range"`
	LevelRangeStep  float64 `yaml:"level_range_step"` // +20% range per level above 1
	Cap             float64 `yaml:"cap"`
}

// Reach bounds the zone-local road search.
type Reach struct {
	MaxDistance int `yaml:"max_distance"`
}

// Growth covers spawning, construction, density and consolidation.
type Growth struct {
	SpawnBase          float64 `yaml:"spawn_base"`
	SpawnDemandScale   float64 `yaml:"spawn_demand_scale"`
	SpawnMinDemand     float64 `yaml:"spawn_min_demand"`
	ConstructionBase   float64 `yaml:"construction_base"`
	ConstructionJitter float64 `yaml:"construction_jitter"`
	AgePerTick         float64 `yaml:"age_per_tick"`

	LandValueDivisor float64 `yaml:"land_value_divisor"`
	CoverageDivisor  float64 `yaml:"coverage_divisor"`
	AgeDivisor       float64 `yaml:"age_divisor"`
	BoostThreshold   float64 `yaml:"boost_threshold"`
	BoostSpan        float64 `yaml:"boost_span"`
	BoostWeight      float64 `yaml:"boost_weight"`

	UpgradeMinAge           float64 `yaml:"upgrade_min_age"`
	ConsolidationBase       float64 `yaml:"consolidation_base"`
	ConsolidationDemandMax  float64 `yaml:"consolidation_demand_max"`
	ConsolidationHighDemand float64 `yaml:"consolidation_high_demand"`
	ConsolidationHighBonus  float64 `yaml:"consolidation_high_bonus"`
	LevelPopulationStep     float64 `yaml:"level_population_step"`
}

// Abandonment covers decay into vacancy and the recovery back to zoned grass.
type Abandonment struct {
	DemandThreshold    float64 `yaml:"demand_threshold"`
	MinAge             float64 `yaml:"min_age"`
	MaxBase            float64 `yaml:"max_base"`
	Divisor            float64 `yaml:"divisor"`
	UtilityPenalty     float64 `yaml:"utility_penalty"` // per missing utility
	MaxLevelPenalty    float64 `yaml:"max_level_penalty"`
	AbandonedAgeFactor float64 `yaml:"abandoned_age_factor"`

	RecoveryThreshold float64 `yaml:"recovery_threshold"`
	RecoveryMax       float64 `yaml:"recovery_max"`
	RecoveryDivisor   float64 `yaml:"recovery_divisor"`
}

// Demand covers the RCI model and the tax lag.
type Demand struct {
	Smoothing        float64 `yaml:"smoothing"`
	TaxLag           float64 `yaml:"tax_lag"`
	NeutralTax       float64 `yaml:"neutral_tax"`
	TaxSpan          float64 `yaml:"tax_span"`
	TaxFineTune      float64 `yaml:"tax_fine_tune"`
	WorkforceShare   float64 `yaml:"workforce_share"`
	ShopperShare     float64 `yaml:"shopper_share"`
	LaborShare       float64 `yaml:"labor_share"`
	ResidentialBase  float64 `yaml:"residential_base"`
	CommercialBase   float64 `yaml:"commercial_base"`
	IndustrialBase   float64 `yaml:"industrial_base"`
	ImbalanceWeight  float64 `yaml:"imbalance_weight"`
	ImbalanceFloor   float64 `yaml:"imbalance_floor"`
	PollutionDrag    float64 `yaml:"pollution_drag"`
	RailBonusPerTile float64 `yaml:"rail_bonus_per_tile"`
	RailBonusMax     float64 `yaml:"rail_bonus_max"`
	SubwayBonus      float64 `yaml:"subway_bonus"`
	SubwayBonusMax   float64 `yaml:"subway_bonus_max"`
}

// Fire covers ignition, spread and extinguishing.
type Fire struct {
	IgniteChance      float64 `yaml:"ignite_chance"`
	SpreadChance      float64 `yaml:"spread_chance"`
	CoverageDamping   float64 `yaml:"coverage_damping"`
	ExtinguishDivisor float64 `yaml:"extinguish_divisor"`
	BurnRate          float64 `yaml:"burn_rate"`
}

// Bridge bounds water spans.
type Bridge struct {
	MaxSpan        int `yaml:"max_span"`
	LargeMaxSpan   int `yaml:"large_max_span"`
	VariantModulus int `yaml:"variant_modulus"`
}

// Calendar maps ticks onto the in-game date.
type Calendar struct {
	TicksPerDay       int `yaml:"ticks_per_day"`
	DaysPerMonth      int `yaml:"days_per_month"`
	MonthsPerYear     int `yaml:"months_per_year"`
	TicksPerVisualDay int `yaml:"ticks_per_visual_day"`
}

// Budget holds monthly upkeep per building and per-capita income rates.
type Budget struct {
	PoliceUpkeep    int     `yaml:"police_upkeep"`
	FireUpkeep      int     `yaml:"fire_upkeep"`
	HealthUpkeep    int     `yaml:"health_upkeep"`
	EducationUpkeep int     `yaml:"education_upkeep"`
	RoadUpkeep      int     `yaml:"road_upkeep"`
	ParkUpkeep      int     `yaml:"park_upkeep"`
	PowerUpkeep     int     `yaml:"power_upkeep"`
	WaterUpkeep     int     `yaml:"water_upkeep"`
	ResidentTax     float64 `yaml:"resident_tax"`
	JobTax          float64 `yaml:"job_tax"`
	StartingMoney   int     `yaml:"starting_money"`
	StartingTax     float64 `yaml:"starting_tax"`
}

// Environment covers pollution and derived per-tile fields.
type Environment struct {
	PollutionDecay     float64 `yaml:"pollution_decay"`
	PollutionEpsilon   float64 `yaml:"pollution_epsilon"`
	LandValueBase      float64 `yaml:"land_value_base"`
	LandValueService   float64 `yaml:"land_value_service"`
	LandValueUtility   float64 `yaml:"land_value_utility"`
	LandValueGreen     float64 `yaml:"land_value_green"`
	LandValuePollution float64 `yaml:"land_value_pollution"`
	LandValueRate      float64 `yaml:"land_value_rate"`
	CrimeBase          float64 `yaml:"crime_base"`
	TrafficDivisor     float64 `yaml:"traffic_divisor"`
}

// Default returns the tuned baseline.
func Default() *Config {
	return &Config{
		Coverage: Coverage{
			PoliceRange:     13,
			FireRange:       18,
			HospitalRange:   24,
			SchoolRange:     11,
			UniversityRange: 19,
			PowerRange:      15,
			WaterRange:      12,
			LevelRangeStep:  0.2,
			Cap:             100,
		},
		Reach: Reach{MaxDistance: 8},
		Growth: Growth{
			SpawnBase:          0.02,
			SpawnDemandScale:   0.10,
			SpawnMinDemand:     -10,
			ConstructionBase:   24,
			ConstructionJitter: 12,
			AgePerTick:         0.1,

			LandValueDivisor: 24,
			CoverageDivisor:  28,
			AgeDivisor:       60,
			BoostThreshold:   30,
			BoostSpan:        70,
			BoostWeight:      0.7,

			UpgradeMinAge:           12,
			ConsolidationBase:       0.08,
			ConsolidationDemandMax:  0.25,
			ConsolidationHighDemand: 70,
			ConsolidationHighBonus:  0.05,
			LevelPopulationStep:     0.25,
		},
		Abandonment: Abandonment{
			DemandThreshold:    -20,
			MinAge:             30,
			MaxBase:            0.02,
			Divisor:            4000,
			UtilityPenalty:     0.005,
			MaxLevelPenalty:    0.003,
			AbandonedAgeFactor: 0.1,

			RecoveryThreshold: 10,
			RecoveryMax:       0.12,
			RecoveryDivisor:   600,
		},
		Demand: Demand{
			Smoothing:        0.12,
			TaxLag:           0.03,
			NeutralTax:       9,
			TaxSpan:          91,
			TaxFineTune:      2,
			WorkforceShare:   0.6,
			ShopperShare:     0.25,
			LaborShare:       0.35,
			ResidentialBase:  40,
			CommercialBase:   25,
			IndustrialBase:   30,
			ImbalanceWeight:  60,
			ImbalanceFloor:   100,
			PollutionDrag:    0.4,
			RailBonusPerTile: 0.1,
			RailBonusMax:     8,
			SubwayBonus:      1.5,
			SubwayBonusMax:   10,
		},
		Fire: Fire{
			IgniteChance:      0.00003,
			SpreadChance:      0.005,
			CoverageDamping:   0.95,
			ExtinguishDivisor: 300,
			BurnRate:          2.0 / 3.0,
		},
		Bridge: Bridge{
			MaxSpan:        10,
			LargeMaxSpan:   5,
			VariantModulus: 100,
		},
		Calendar: Calendar{
			TicksPerDay:       30,
			DaysPerMonth:      30,
			MonthsPerYear:     12,
			TicksPerVisualDay: 450,
		},
		Budget: Budget{
			PoliceUpkeep:    40,
			FireUpkeep:      40,
			HealthUpkeep:    90,
			EducationUpkeep: 60,
			RoadUpkeep:      1,
			ParkUpkeep:      5,
			PowerUpkeep:     120,
			WaterUpkeep:     40,
			ResidentTax:     0.4,
			JobTax:          0.2,
			StartingMoney:   100000,
			StartingTax:     9,
		},
		Environment: Environment{
			PollutionDecay:     0.95,
			PollutionEpsilon:   0.01,
			LandValueBase:      25,
			LandValueService:   0.35,
			LandValueUtility:   8,
			LandValueGreen:     3,
			LandValuePollution: 0.5,
			LandValueRate:      0.1,
			CrimeBase:          40,
			TrafficDivisor:     4,
		},
	}
}

// Load reads a YAML balance file and overlays it on Default().
// Keys absent from the file keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would make the tick ill-defined.
func (c *Config) Validate() error {
	if c.Reach.MaxDistance < 1 {
		return fmt.Errorf("reach.max_distance must be >= 1, got %d", c.Reach.MaxDistance)
	}
	if c.Demand.Smoothing <= 0 || c.Demand.Smoothing > 1 {
		return fmt.Errorf("demand.smoothing must be in (0,1], got %v", c.Demand.Smoothing)
	}
	if c.Demand.TaxSpan <= 0 {
		return fmt.Errorf("demand.tax_span must be positive, got %v", c.Demand.TaxSpan)
	}
	if c.Bridge.MaxSpan < 1 || c.Bridge.LargeMaxSpan >= c.Bridge.MaxSpan {
		return fmt.Errorf("bridge spans inconsistent: large_max_span=%d max_span=%d",
			c.Bridge.LargeMaxSpan, c.Bridge.MaxSpan)
	}
	if c.Calendar.TicksPerDay < 1 || c.Calendar.DaysPerMonth < 1 || c.Calendar.MonthsPerYear < 1 {
		return fmt.Errorf("calendar periods must be positive")
	}
	if c.Fire.ExtinguishDivisor <= 0 || c.Abandonment.Divisor <= 0 || c.Abandonment.RecoveryDivisor <= 0 {
		return fmt.Errorf("divisors must be positive")
	}
	return nil
}
