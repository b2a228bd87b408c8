package engine

import (
	"fmt"

	"github.com/talgya/mini-city/internal/balance"
)

// Calendar tracks in-game time. Tick counts up to TicksPerDay and resets;
// Hour is a purely visual clock that cycles every TicksPerVisualDay ticks.
type Calendar struct {
	Tick       int     `json:"tick"`
	Day        int     `json:"day"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	TotalTicks uint64  `json:"total_ticks"`
	Hour       float64 `json:"hour"`
}

// NewCalendar starts on day 1 of month 1, year 1.
func NewCalendar() Calendar {
	return Calendar{Day: 1, Month: 1, Year: 1}
}

// Advance moves the calendar forward one tick and reports day and month rollovers.
func (c Calendar) Advance(cfg balance.Calendar) (next Calendar, newDay, newMonth bool) {
	c.TotalTicks++
	c.Tick++
	if c.Tick >= cfg.TicksPerDay {
		c.Tick = 0
		c.Day++
		newDay = true
		if c.Day > cfg.DaysPerMonth {
			c.Day = 1
			c.Month++
			newMonth = true
			if c.Month > cfg.MonthsPerYear {
				c.Month = 1
				c.Year++
			}
		}
	}
	if cfg.TicksPerVisualDay > 0 {
		c.Hour = float64(c.TotalTicks%uint64(cfg.TicksPerVisualDay)) / float64(cfg.TicksPerVisualDay) * 24
	}
	return c, newDay, newMonth
}

// String returns a human-readable date.
func (c Calendar) String() string {
	return fmt.Sprintf("Year %d, Month %d, Day %d (%02d:00)", c.Year, c.Month, c.Day, int(c.Hour))
}
