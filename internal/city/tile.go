// Package city provides the tile grid, the building catalog, and the
// copy-on-write grid builder used by each tick.
package city

// Zone is the player-assigned land-use category of a tile.
type Zone uint8

const (
	ZoneNone Zone = iota
	ZoneResidential
	ZoneCommercial
	ZoneIndustrial
)

// Zones lists the three buildable zones in RCI order.
var Zones = [3]Zone{ZoneResidential, ZoneCommercial, ZoneIndustrial}

func (z Zone) String() string {
	switch z {
	case ZoneResidential:
		return "residential"
	case ZoneCommercial:
		return "commercial"
	case ZoneIndustrial:
		return "industrial"
	default:
		return "none"
	}
}

// ParseZone maps a zone name back to its value.
func ParseZone(s string) (Zone, bool) {
	switch s {
	case "none", "":
		return ZoneNone, true
	case "residential", "r", "R":
		return ZoneResidential, true
	case "commercial", "c", "C":
		return ZoneCommercial, true
	case "industrial", "i", "I":
		return ZoneIndustrial, true
	}
	return ZoneNone, false
}

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a footprint rectangle anchored at its top-left origin.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Area returns W×H.
func (r Rect) Area() int { return r.W * r.H }

// BridgeInfo describes one tile of a bridge span. Immutable once placed.
type BridgeInfo struct {
	Kind        string       `json:"kind"`        // small, large, suspension
	Variant     string       `json:"variant"`     // cosmetic style
	Orientation string       `json:"orientation"` // ns or ew
	Position    string       `json:"position"`    // start, middle, end, single
	Track       BuildingType `json:"track"`       // road or rail
	Span        int          `json:"span"`
	Index       int          `json:"index"`
}

// Building is the structure occupying a tile. Placeholder cells of a
// multi-tile footprint carry Type == TypeEmpty and Level 0.
type Building struct {
	Type                 BuildingType `json:"type"`
	Level                int          `json:"level"`
	Population           int          `json:"population"`
	Jobs                 int          `json:"jobs"`
	Powered              bool         `json:"powered"`
	Watered              bool         `json:"watered"`
	OnFire               bool         `json:"on_fire"`
	FireProgress         float64      `json:"fire_progress"`
	Age                  float64      `json:"age"`
	ConstructionProgress float64      `json:"construction_progress"`
	Abandoned            bool         `json:"abandoned"`
	Bridge               *BridgeInfo  `json:"bridge,omitempty"`
}

// Completed reports whether construction has finished.
func (b *Building) Completed() bool {
	return b.ConstructionProgress >= 100
}

// Tile is one cell of the grid.
type Tile struct {
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Zone           Zone     `json:"zone"`
	Building       Building `json:"building"`
	LandValue      float64  `json:"land_value"`
	Pollution      float64  `json:"pollution"`
	Crime          float64  `json:"crime"`
	Traffic        float64  `json:"traffic"`
	HasSubway      bool     `json:"has_subway"`
	HasRailOverlay bool     `json:"has_rail_overlay"`

	// Owner is the flat index of the origin tile for placeholder cells, -1 otherwise.
	Owner int32 `json:"owner"`
}

// NewTile returns a tile holding a freshly built structure of the given type.
func NewTile(x, y int, typ BuildingType) Tile {
	return Tile{
		X:         x,
		Y:         y,
		Building:  Building{Type: typ, ConstructionProgress: 100},
		LandValue: 30,
		Owner:     -1,
	}
}

// Kind returns the classification of the tile's building.
func (t *Tile) Kind() Kind {
	return KindOf(t.Building.Type)
}

// IsPlaceholder reports whether the tile is a non-origin footprint cell.
func (t *Tile) IsPlaceholder() bool {
	return t.Building.Type == TypeEmpty
}

// IsOpenLand reports whether the tile is grass or tree (buildable, never "empty").
func (t *Tile) IsOpenLand() bool {
	return t.Building.Type == TypeGrass || t.Building.Type == TypeTree
}

// IsWater reports whether the tile is open water.
func (t *Tile) IsWater() bool {
	return t.Building.Type == TypeWater
}

// IsRoadLike reports whether the tile grants road access (roads and bridges).
func (t *Tile) IsRoadLike() bool {
	return t.Building.Type == TypeRoad || t.Building.Type == TypeBridge
}

// ResetToGrass clears the building and any rail overlay, keeping or
// dropping the zone.
func (t *Tile) ResetToGrass(keepZone bool) {
	t.Building = Building{Type: TypeGrass, ConstructionProgress: 100}
	t.HasRailOverlay = false
	t.Owner = -1
	t.Crime = 0
	t.Traffic = 0
	if !keepZone {
		t.Zone = ZoneNone
	}
}

// WaterBody is metadata for a connected region of water from world generation.
type WaterBody struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"` // lake or ocean
	Tiles    int    `json:"tiles"`
	Centroid Point  `json:"centroid"`
}
