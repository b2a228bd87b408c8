package city

// BuildingType is the string tag identifying a structure.
type BuildingType string

const (
	TypeGrass  BuildingType = "grass"
	TypeTree   BuildingType = "tree"
	TypeWater  BuildingType = "water"
	TypeRoad   BuildingType = "road"
	TypeRail   BuildingType = "rail"
	TypeEmpty  BuildingType = "empty"
	TypeBridge BuildingType = "bridge"

	TypeHouseSmall    BuildingType = "house_small"
	TypeHouseMedium   BuildingType = "house_medium"
	TypeMansion       BuildingType = "mansion"
	TypeApartmentLow  BuildingType = "apartment_low"
	TypeApartmentHigh BuildingType = "apartment_high"

	TypeShopSmall  BuildingType = "shop_small"
	TypeShopMedium BuildingType = "shop_medium"
	TypeOfficeLow  BuildingType = "office_low"
	TypeOfficeHigh BuildingType = "office_high"
	TypeMall       BuildingType = "mall"

	TypeFactorySmall  BuildingType = "factory_small"
	TypeFactoryMedium BuildingType = "factory_medium"
	TypeWarehouse     BuildingType = "warehouse"
	TypeFactoryLarge  BuildingType = "factory_large"

	TypePoliceStation BuildingType = "police_station"
	TypeFireStation   BuildingType = "fire_station"
	TypeHospital      BuildingType = "hospital"
	TypeSchool        BuildingType = "school"
	TypeUniversity    BuildingType = "university"
	TypePowerPlant    BuildingType = "power_plant"
	TypeWaterTower    BuildingType = "water_tower"
	TypeSubwayStation BuildingType = "subway_station"
	TypeRailStation   BuildingType = "rail_station"
	TypePark          BuildingType = "park"
	TypeParkLarge     BuildingType = "park_large"
	TypeCityHall      BuildingType = "city_hall"
	TypeStadium       BuildingType = "stadium"
	TypeMuseum        BuildingType = "museum"
	TypeAirport       BuildingType = "airport"
	TypeSpaceProgram  BuildingType = "space_program"
	TypeAmusementPark BuildingType = "amusement_park"
)

// Kind is the one-per-type classification used by the tick instead of ad hoc
// type comparisons.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTerrain
	KindInfrastructure
	KindPlaceholder
	KindZoned
	KindService
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindInfrastructure:
		return "infrastructure"
	case KindPlaceholder:
		return "placeholder"
	case KindZoned:
		return "zoned"
	case KindService:
		return "service"
	case KindBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// Service identifies which coverage field a building feeds.
type Service uint8

const (
	ServiceNone Service = iota
	ServicePolice
	ServiceFire
	ServiceHealth
	ServiceEducation
	ServicePower
	ServiceWater
)

// Landmark tags buildings that feed demand bonuses.
type Landmark uint8

const (
	LandmarkNone Landmark = iota
	LandmarkAirport
	LandmarkCityHall
	LandmarkSpaceProgram
	LandmarkStadium
	LandmarkMuseum
	LandmarkAmusementPark
)

// Spec is the static description of a building type.
type Spec struct {
	Kind           Kind
	Zone           Zone
	Width, Height  int
	Rank           int // position on the zone ladder, 1-5
	Population     int
	Jobs           int
	Pollution      float64
	Starter        bool // may become active without power or water
	Consolidatable bool // small enough to be absorbed by a larger footprint
	Flammable      bool
	Park           bool
	Service        Service
	Landmark       Landmark
	Cost           int
}

var catalog = map[BuildingType]Spec{
	TypeGrass:  {Kind: KindTerrain, Width: 1, Height: 1},
	TypeTree:   {Kind: KindTerrain, Width: 1, Height: 1},
	TypeWater:  {Kind: KindTerrain, Width: 1, Height: 1},
	TypeRoad:   {Kind: KindInfrastructure, Width: 1, Height: 1, Cost: 25},
	TypeRail:   {Kind: KindInfrastructure, Width: 1, Height: 1, Cost: 40},
	TypeEmpty:  {Kind: KindPlaceholder, Width: 1, Height: 1},
	TypeBridge: {Kind: KindBridge, Width: 1, Height: 1, Cost: 200},

	TypeHouseSmall:    {Kind: KindZoned, Zone: ZoneResidential, Width: 1, Height: 1, Rank: 1, Population: 6, Starter: true, Consolidatable: true, Flammable: true},
	TypeHouseMedium:   {Kind: KindZoned, Zone: ZoneResidential, Width: 1, Height: 1, Rank: 2, Population: 14, Consolidatable: true, Flammable: true},
	TypeMansion:       {Kind: KindZoned, Zone: ZoneResidential, Width: 2, Height: 2, Rank: 3, Population: 30, Flammable: true},
	TypeApartmentLow:  {Kind: KindZoned, Zone: ZoneResidential, Width: 2, Height: 2, Rank: 4, Population: 90, Flammable: true},
	TypeApartmentHigh: {Kind: KindZoned, Zone: ZoneResidential, Width: 2, Height: 2, Rank: 5, Population: 180, Flammable: true},

	TypeShopSmall:  {Kind: KindZoned, Zone: ZoneCommercial, Width: 1, Height: 1, Rank: 1, Jobs: 6, Starter: true, Consolidatable: true, Flammable: true},
	TypeShopMedium: {Kind: KindZoned, Zone: ZoneCommercial, Width: 1, Height: 1, Rank: 2, Jobs: 14, Consolidatable: true, Flammable: true},
	TypeOfficeLow:  {Kind: KindZoned, Zone: ZoneCommercial, Width: 2, Height: 2, Rank: 3, Jobs: 45, Flammable: true},
	TypeOfficeHigh: {Kind: KindZoned, Zone: ZoneCommercial, Width: 2, Height: 2, Rank: 4, Jobs: 100, Flammable: true},
	TypeMall:       {Kind: KindZoned, Zone: ZoneCommercial, Width: 3, Height: 3, Rank: 5, Jobs: 160, Flammable: true},

	TypeFactorySmall:  {Kind: KindZoned, Zone: ZoneIndustrial, Width: 1, Height: 1, Rank: 1, Jobs: 8, Pollution: 10, Starter: true, Consolidatable: true, Flammable: true},
	TypeFactoryMedium: {Kind: KindZoned, Zone: ZoneIndustrial, Width: 2, Height: 2, Rank: 2, Jobs: 30, Pollution: 25, Flammable: true},
	TypeWarehouse:     {Kind: KindZoned, Zone: ZoneIndustrial, Width: 2, Height: 2, Rank: 3, Jobs: 40, Pollution: 15, Flammable: true},
	TypeFactoryLarge:  {Kind: KindZoned, Zone: ZoneIndustrial, Width: 3, Height: 3, Rank: 4, Jobs: 90, Pollution: 45, Flammable: true},

	TypePoliceStation: {Kind: KindService, Width: 1, Height: 1, Jobs: 10, Service: ServicePolice, Flammable: true, Cost: 500},
	TypeFireStation:   {Kind: KindService, Width: 1, Height: 1, Jobs: 10, Service: ServiceFire, Flammable: true, Cost: 500},
	TypeHospital:      {Kind: KindService, Width: 2, Height: 2, Jobs: 40, Service: ServiceHealth, Flammable: true, Cost: 1000},
	TypeSchool:        {Kind: KindService, Width: 2, Height: 2, Jobs: 20, Service: ServiceEducation, Flammable: true, Cost: 400},
	TypeUniversity:    {Kind: KindService, Width: 3, Height: 3, Jobs: 60, Service: ServiceEducation, Flammable: true, Cost: 2000},
	TypePowerPlant:    {Kind: KindService, Width: 2, Height: 2, Jobs: 30, Pollution: 30, Service: ServicePower, Flammable: true, Cost: 3000},
	TypeWaterTower:    {Kind: KindService, Width: 1, Height: 1, Jobs: 5, Service: ServiceWater, Cost: 1000},
	TypeSubwayStation: {Kind: KindService, Width: 1, Height: 1, Jobs: 5, Flammable: true, Cost: 750},
	TypeRailStation:   {Kind: KindService, Width: 2, Height: 2, Jobs: 15, Flammable: true, Cost: 1000},
	TypePark:          {Kind: KindService, Width: 1, Height: 1, Park: true, Cost: 150},
	TypeParkLarge:     {Kind: KindService, Width: 3, Height: 3, Park: true, Cost: 600},
	TypeCityHall:      {Kind: KindService, Width: 2, Height: 2, Jobs: 30, Landmark: LandmarkCityHall, Flammable: true, Cost: 5000},
	TypeStadium:       {Kind: KindService, Width: 3, Height: 3, Jobs: 50, Landmark: LandmarkStadium, Flammable: true, Cost: 5000},
	TypeMuseum:        {Kind: KindService, Width: 3, Height: 3, Jobs: 25, Landmark: LandmarkMuseum, Flammable: true, Cost: 4000},
	TypeAirport:       {Kind: KindService, Width: 4, Height: 4, Jobs: 120, Pollution: 20, Landmark: LandmarkAirport, Flammable: true, Cost: 10000},
	TypeSpaceProgram:  {Kind: KindService, Width: 3, Height: 3, Jobs: 80, Landmark: LandmarkSpaceProgram, Flammable: true, Cost: 15000},
	TypeAmusementPark: {Kind: KindService, Width: 4, Height: 4, Jobs: 60, Landmark: LandmarkAmusementPark, Flammable: true, Cost: 8000},
}

// MaxFootprint is the largest footprint edge in the catalog.
const MaxFootprint = 4

var ladders = map[Zone][5]BuildingType{
	ZoneResidential: {TypeHouseSmall, TypeHouseMedium, TypeMansion, TypeApartmentLow, TypeApartmentHigh},
	ZoneCommercial:  {TypeShopSmall, TypeShopMedium, TypeOfficeLow, TypeOfficeHigh, TypeMall},
	ZoneIndustrial:  {TypeFactorySmall, TypeFactoryMedium, TypeWarehouse, TypeFactoryLarge, TypeFactoryLarge},
}

// SpecOf returns the catalog entry for a type. Unknown types are 1×1 KindUnknown.
func SpecOf(t BuildingType) Spec {
	if s, ok := catalog[t]; ok {
		return s
	}
	return Spec{Kind: KindUnknown, Width: 1, Height: 1}
}

// KindOf returns the classification of a type.
func KindOf(t BuildingType) Kind {
	return catalog[t].Kind
}

// Known reports whether the type is in the catalog.
func Known(t BuildingType) bool {
	_, ok := catalog[t]
	return ok
}

// Size returns the footprint of a type.
func Size(t BuildingType) (w, h int) {
	s := SpecOf(t)
	return s.Width, s.Height
}

// LadderType returns the zoned type for a zone at a density level (1-5).
func LadderType(z Zone, level int) (BuildingType, bool) {
	l, ok := ladders[z]
	if !ok || level < 1 || level > 5 {
		return "", false
	}
	return l[level-1], true
}

// StarterFor returns the smallest building of a zone.
func StarterFor(z Zone) (BuildingType, bool) {
	return LadderType(z, 1)
}

// IsFarm reports whether a small factory at (x, y) renders as a farm.
// Purely cosmetic; roughly half of all positions qualify.
func IsFarm(x, y int) bool {
	h := uint32(x)*73856093 ^ uint32(y)*19349663
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return h&1 == 0
}
