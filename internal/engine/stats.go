package engine

import (
	"math"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/coverage"
)

// Census is the raw tally behind Stats, gathered in the same pass.
type Census struct {
	Tiles     int `json:"tiles"`
	Land      int `json:"land"`
	Water     int `json:"water"`
	Trees     int `json:"trees"`
	Roads     int `json:"roads"`
	Rail      int `json:"rail"`
	Bridges   int `json:"bridges"`
	Subway    int `json:"subway"`
	Parks     int `json:"parks"`
	ZonedLand int `json:"zoned_land"`

	Buildings         int `json:"buildings"`
	UnderConstruction int `json:"under_construction"`
	Abandoned         int `json:"abandoned"`
	Burning           int `json:"burning"`
	Unpowered         int `json:"unpowered"`
	Unwatered         int `json:"unwatered"`

	ResidentialJobs int `json:"residential_jobs"`
	CommercialJobs  int `json:"commercial_jobs"`
	IndustrialJobs  int `json:"industrial_jobs"`

	PoliceStations int `json:"police_stations"`
	FireStations   int `json:"fire_stations"`
	Hospitals      int `json:"hospitals"`
	Schools        int `json:"schools"`
	PowerPlants    int `json:"power_plants"`
	WaterTowers    int `json:"water_towers"`
	Stations       int `json:"stations"`

	Landmarks map[city.Landmark]int `json:"landmarks,omitempty"`

	Pollution   float64 `json:"pollution"`
	LandValue   float64 `json:"land_value"`
	Crime       float64 `json:"crime"`
	PoliceCover float64 `json:"police_cover"`
	FireCover   float64 `json:"fire_cover"`
	HealthCover float64 `json:"health_cover"`
	EduCover    float64 `json:"edu_cover"`
}

// landmarkBonus is the flat RCI boost a completed landmark grants.
var landmarkBonus = map[city.Landmark]Demand{
	city.LandmarkAirport:       {Residential: 0, Commercial: 10, Industrial: 8},
	city.LandmarkCityHall:      {Residential: 5, Commercial: 3, Industrial: 0},
	city.LandmarkSpaceProgram:  {Residential: 4, Commercial: 0, Industrial: 12},
	city.LandmarkStadium:       {Residential: 6, Commercial: 6, Industrial: 0},
	city.LandmarkMuseum:        {Residential: 4, Commercial: 4, Industrial: 0},
	city.LandmarkAmusementPark: {Residential: 8, Commercial: 6, Industrial: 0},
}

// Aggregate tallies the grid in one pass and derives population, ratings and
// smoothed RCI demand. prev supplies the money balance and the demand being
// smoothed. taxRate is the player's rate; effTax is the lagged rate that
// drives demand.
func Aggregate(g *city.Grid, svc *coverage.Services, prev Stats, taxRate, effTax float64, cfg *balance.Config) (Stats, Census) {
	var c Census
	var st Stats
	st.Money = prev.Money

	size := g.Size()
	c.Tiles = size * size
	for y := 0; y < size; y++ {
		row := g.Rows[y]
		for x := range row {
			t := &row[x]
			b := &t.Building
			if t.HasSubway {
				c.Subway++
			}
			if t.HasRailOverlay {
				c.Rail++
			}
			if t.IsWater() {
				c.Water++
				continue
			}
			c.Land++
			c.Pollution += t.Pollution
			if t.Zone != city.ZoneNone {
				i := y*size + x
				c.ZonedLand++
				c.LandValue += t.LandValue
				c.Crime += t.Crime
				c.PoliceCover += svc.Police[i]
				c.FireCover += svc.Fire[i]
				c.HealthCover += svc.Health[i]
				c.EduCover += svc.Education[i]
			}

			spec := city.SpecOf(b.Type)
			switch spec.Kind {
			case city.KindTerrain:
				if b.Type == city.TypeTree {
					c.Trees++
				}
				continue
			case city.KindInfrastructure:
				if b.Type == city.TypeRail {
					c.Rail++
				} else {
					c.Roads++
				}
				continue
			case city.KindBridge:
				c.Bridges++
				continue
			case city.KindPlaceholder:
				continue
			}

			c.Buildings++
			if b.OnFire {
				c.Burning++
			}
			if spec.Park {
				c.Parks += spec.Width * spec.Height
			}
			switch spec.Service {
			case city.ServicePolice:
				c.PoliceStations++
			case city.ServiceFire:
				c.FireStations++
			case city.ServiceHealth:
				c.Hospitals++
			case city.ServiceEducation:
				c.Schools++
			case city.ServicePower:
				c.PowerPlants++
			case city.ServiceWater:
				c.WaterTowers++
			}
			if b.Type == city.TypeSubwayStation || b.Type == city.TypeRailStation {
				c.Stations++
			}
			if spec.Landmark != city.LandmarkNone {
				if c.Landmarks == nil {
					c.Landmarks = make(map[city.Landmark]int)
				}
				c.Landmarks[spec.Landmark]++
			}

			if spec.Kind == city.KindZoned {
				if !b.Completed() {
					c.UnderConstruction++
				}
				if b.Abandoned {
					c.Abandoned++
				}
				if !b.Powered {
					c.Unpowered++
				}
				if !b.Watered {
					c.Unwatered++
				}
				switch t.Zone {
				case city.ZoneCommercial:
					c.CommercialJobs += b.Jobs
				case city.ZoneIndustrial:
					c.IndustrialJobs += b.Jobs
				default:
					c.ResidentialJobs += b.Jobs
				}
			}
			st.Population += b.Population
			st.Jobs += b.Jobs
		}
	}

	st.Income = MonthlyIncome(st.Population, st.Jobs, taxRate, cfg)
	rateCity(&st, &c, taxRate)
	raw := rawDemand(st, c, effTax, cfg.Demand)
	st.Demand = smoothDemand(prev.Demand, raw, cfg.Demand.Smoothing)
	return st, c
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// rateCity fills the five [0,100] ratings from the census averages.
func rateCity(st *Stats, c *Census, taxRate float64) {
	police := mean(c.PoliceCover, c.ZonedLand)
	crime := mean(c.Crime, c.ZonedLand)
	pollution := math.Min(100, mean(c.Pollution, c.Land)*4)
	green := 0.0
	if c.Tiles > 0 {
		green = math.Min(100, float64(c.Trees+c.Parks+c.Water)/float64(c.Tiles)*200)
	}

	st.Safety = balance.Clamp(police*0.7+(100-crime)*0.3, 0, 100)
	st.Health = balance.Clamp(mean(c.HealthCover, c.ZonedLand)*0.6+(100-pollution)*0.4, 0, 100)
	st.Education = balance.Clamp(mean(c.EduCover, c.ZonedLand), 0, 100)
	st.Environment = balance.Clamp((100-pollution)*0.6+green*0.4, 0, 100)
	st.Happiness = balance.Clamp(
		st.Safety*0.25+st.Health*0.25+st.Education*0.2+st.Environment*0.2+math.Max(0, 100-taxRate*4)*0.1,
		0, 100)
}

// TaxMultiplier scales raw demand by the lagged tax rate.
func TaxMultiplier(effTax float64, cfg balance.Demand) float64 {
	return math.Max(0, 1-(effTax-cfg.NeutralTax)/cfg.TaxSpan)
}

func imbalance(want, have float64, cfg balance.Demand) float64 {
	return cfg.ImbalanceWeight * (want - have) / math.Max(want+have, cfg.ImbalanceFloor)
}

// rawDemand computes unsmoothed RCI pressure clamped to [-100, 100].
func rawDemand(st Stats, c Census, effTax float64, cfg balance.Demand) Demand {
	pop := float64(st.Population)
	d := Demand{
		Residential: cfg.ResidentialBase + imbalance(float64(st.Jobs), pop*cfg.WorkforceShare, cfg),
		Commercial:  cfg.CommercialBase + imbalance(pop*cfg.ShopperShare, float64(c.CommercialJobs), cfg),
		Industrial:  cfg.IndustrialBase + imbalance(pop*cfg.LaborShare, float64(c.IndustrialJobs), cfg),
	}
	d.Residential -= mean(c.Pollution, c.Land) * cfg.PollutionDrag

	for lm := city.LandmarkAirport; lm <= city.LandmarkAmusementPark; lm++ {
		if c.Landmarks[lm] == 0 {
			continue
		}
		bonus := landmarkBonus[lm]
		d.Residential += bonus.Residential
		d.Commercial += bonus.Commercial
		d.Industrial += bonus.Industrial
	}
	rail := math.Min(cfg.RailBonusMax, float64(c.Rail)*cfg.RailBonusPerTile)
	d.Commercial += rail
	d.Industrial += rail
	subway := math.Min(cfg.SubwayBonusMax, float64(c.Subway)*cfg.SubwayBonus)
	d.Residential += subway
	d.Commercial += subway

	mult := TaxMultiplier(effTax, cfg)
	fine := (cfg.NeutralTax - effTax) * cfg.TaxFineTune
	adj := func(v float64) float64 { return balance.Clamp(v*mult+fine, -100, 100) }
	return Demand{Residential: adj(d.Residential), Commercial: adj(d.Commercial), Industrial: adj(d.Industrial)}
}

// smoothDemand moves prev a fixed fraction toward raw.
func smoothDemand(prev, raw Demand, k float64) Demand {
	return Demand{
		Residential: balance.Clamp(prev.Residential+(raw.Residential-prev.Residential)*k, -100, 100),
		Commercial:  balance.Clamp(prev.Commercial+(raw.Commercial-prev.Commercial)*k, -100, 100),
		Industrial:  balance.Clamp(prev.Industrial+(raw.Industrial-prev.Industrial)*k, -100, 100),
	}
}
