package views

import (
	"fmt"
	"time"

	"github.com/LovationAdmin/triptrack-api/models"
)

const (
	CountdownUpcoming = "upcoming"
	CountdownToday    = "today"
	CountdownPast     = "past"

	// CountdownRefreshSeconds is how often clients should recompute the countdown.
	CountdownRefreshSeconds = 60
)

type Countdown struct {
	Status         string `json:"status"`
	Days           int    `json:"days"`
	Hours          int    `json:"hours"`
	Label          string `json:"label"`
	Display        string `json:"display"`
	RefreshSeconds int    `json:"refresh_seconds"`
}

// NewCountdown compares the trip's target day (midnight UTC) with now.
func NewCountdown(target models.Date, now time.Time) Countdown {
	now = now.UTC()
	start := models.NewDate(target.Time).Time
	today := models.NewDate(now).Time

	c := Countdown{RefreshSeconds: CountdownRefreshSeconds}

	switch {
	case start.Equal(today):
		c.Status = CountdownToday
		c.Hours = max(0, int(start.Sub(now).Hours()))
		c.Label = "Trip Day!"
		if c.Hours > 0 {
			c.Display = fmt.Sprintf("%dh remaining", c.Hours)
		} else {
			c.Display = "Today!"
		}
	case start.Before(today):
		c.Status = CountdownPast
		c.Label = "Trip Completed"
		c.Display = "Completed"
	default:
		remaining := start.Sub(now)
		c.Status = CountdownUpcoming
		c.Days = int(remaining.Hours() / 24)
		c.Hours = int(remaining.Hours()) % 24
		c.Label = "Days Until Trip"
		c.Display = fmt.Sprintf("%dd %dh", c.Days, c.Hours)
	}

	return c
}
