// Package advisor reads a tick's output and produces ranked, human-readable
// advice. It is deterministic and never modifies the state it reads.
package advisor

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/coverage"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/reach"
)

// Levels, most urgent first.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
	LevelWatch    = "WATCH"
)

var levelPriority = map[string]int{LevelCritical: 3, LevelWarning: 2, LevelWatch: 1}

// Message is one piece of advice.
type Message struct {
	Topic    string `json:"topic"`
	Level    string `json:"level"`
	Priority int    `json:"priority"`
	Text     string `json:"text"`
}

// Health is the overall verdict derived from the messages.
type Health struct {
	Level    string    `json:"level"` // worst message level, or HEALTHY
	Messages []Message `json:"messages"`
}

// Triage runs Advise on a state and summarises the worst level.
func Triage(s *engine.State) Health {
	msgs := Advise(s.Stats, s.Census, s.Services, s.Grid)
	h := Health{Level: "HEALTHY", Messages: msgs}
	if len(msgs) > 0 {
		h.Level = msgs[0].Level
	}
	return h
}

// Advise inspects stats, services and the grid and returns messages sorted
// by priority, then topic.
func Advise(st engine.Stats, c engine.Census, svc *coverage.Services, g *city.Grid) []Message {
	var out []Message
	add := func(topic, level, format string, args ...any) {
		out = append(out, Message{
			Topic:    topic,
			Level:    level,
			Priority: levelPriority[level],
			Text:     fmt.Sprintf(format, args...),
		})
	}

	if c.Burning > 0 {
		add("fire", LevelCritical, "%d buildings are on fire", c.Burning)
		if c.FireStations == 0 {
			add("fire_coverage", LevelWarning, "No fire station protects the city")
		}
	}

	if st.Money < 0 {
		add("budget", LevelCritical, "The treasury is in debt by %s", humanize.Comma(int64(-st.Money)))
	} else if st.Expenses > st.Income && st.Money < (st.Expenses-st.Income)*3 {
		add("budget", LevelWarning, "Spending exceeds income; %s left", humanize.Comma(int64(st.Money)))
	}

	if c.Unpowered > 0 {
		level := LevelWatch
		if c.Buildings > 0 && c.Unpowered*4 >= c.Buildings {
			level = LevelWarning
		}
		add("power", level, "%d zoned buildings have no power", c.Unpowered)
	}
	if c.Unwatered > 0 {
		level := LevelWatch
		if c.Buildings > 0 && c.Unwatered*4 >= c.Buildings {
			level = LevelWarning
		}
		add("water", level, "%d zoned buildings have no water", c.Unwatered)
	}

	if c.Buildings > 0 && c.Abandoned*10 >= c.Buildings {
		add("abandonment", LevelWarning, "%d buildings stand abandoned", c.Abandoned)
	}

	for _, z := range []struct {
		name string
		v    float64
	}{
		{"residential", st.Demand.Residential},
		{"commercial", st.Demand.Commercial},
		{"industrial", st.Demand.Industrial},
	} {
		switch {
		case z.v > 50:
			add("demand_"+z.name, LevelWatch, "Strong %s demand (%.0f): zone more %s land", z.name, z.v, z.name)
		case z.v < -30:
			add("demand_"+z.name, LevelWarning, "Weak %s demand (%.0f): buildings may be abandoned", z.name, z.v)
		}
	}

	if st.Population > 0 {
		if st.Safety < 40 {
			add("safety", LevelWarning, "Safety is low (%.0f); build police stations", st.Safety)
		}
		if st.Health < 40 {
			add("health", LevelWarning, "Health is low (%.0f); build hospitals", st.Health)
		}
		if st.Population > 500 && st.Education < 30 {
			add("education", LevelWatch, "Education is low (%.0f); build schools", st.Education)
		}
		if st.Environment < 40 {
			add("environment", LevelWatch, "Pollution is hurting the city (environment %.0f)", st.Environment)
		}
	}

	unreachable, dark := idleZones(g, svc)
	if unreachable > 0 {
		add("roads", LevelWatch, "%d zoned tiles are too far from a road to develop", unreachable)
	}
	if dark > 0 {
		add("power_coverage", LevelWatch, "%d zoned tiles lie outside any power plant's range", dark)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// idleZones counts zoned open land with no road in reach, and zoned open
// land outside power coverage.
func idleZones(g *city.Grid, svc *coverage.Services) (unreachable, dark int) {
	if g == nil {
		return 0, 0
	}
	sc := reach.NewScratch(g.Size())
	for y := 0; y < g.Size(); y++ {
		for x := 0; x < g.Size(); x++ {
			t := g.At(x, y)
			if t.Zone == city.ZoneNone || !t.IsOpenLand() {
				continue
			}
			if !reach.HasRoadAccess(g, x, y, reach.DefaultMaxDistance, sc) {
				unreachable++
			}
			if svc != nil && svc.Size == g.Size() && !svc.Powered(x, y) {
				dark++
			}
		}
	}
	return unreachable, dark
}
