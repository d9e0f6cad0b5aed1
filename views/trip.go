package views

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/triptrack-api/models"
)

const UnknownTraveler = "Unknown"

// TripSummary aggregates every member's savings against target × member count.
type TripSummary struct {
	TotalSavings     string  `json:"total_savings"`
	TotalTarget      string  `json:"total_target"`
	Percent          float64 `json:"percent"`
	PercentDisplay   string  `json:"percent_display"`
	BarWidth         float64 `json:"bar_width"`
	MemberCount      int     `json:"member_count"`
	CompletedMembers int     `json:"completed_members"`
	Tier             string  `json:"tier"`
}

func Summarize(trip models.Trip) TripSummary {
	total := decimal.Zero
	completed := 0
	for _, m := range trip.Members {
		total = total.Add(m.CurrentSavings)
		if m.CurrentSavings.GreaterThanOrEqual(trip.TargetAmount) {
			completed++
		}
	}

	target := trip.TargetAmount.Mul(decimal.NewFromInt(int64(len(trip.Members))))
	percent := ProgressPercent(total, target)

	return TripSummary{
		TotalSavings:     total.StringFixed(2),
		TotalTarget:      target.StringFixed(2),
		Percent:          percent.InexactFloat64(),
		PercentDisplay:   percent.StringFixed(1) + "%",
		BarWidth:         BarWidth(percent),
		MemberCount:      len(trip.Members),
		CompletedMembers: completed,
		Tier:             Tier(percent),
	}
}

// TripCard is one dashboard entry.
type TripCard struct {
	models.Trip
	Summary   TripSummary `json:"summary"`
	Countdown Countdown   `json:"countdown"`
}

func NewTripCard(trip models.Trip, now time.Time) TripCard {
	return TripCard{
		Trip:      trip,
		Summary:   Summarize(trip),
		Countdown: NewCountdown(trip.TargetDate, now),
	}
}

type MemberView struct {
	models.TripMember
	Progress ProgressAvatar `json:"progress"`
}

type LogEntry struct {
	models.SavingsLog
	TravelerName string `json:"traveler_name"`
	Change       string `json:"change"`
}

// TripDetail is the trip page payload. Members shadows the embedded trip's list.
type TripDetail struct {
	models.Trip
	Members      []MemberView `json:"members"`
	SavingsLogs  []LogEntry   `json:"savings_logs"`
	Summary      TripSummary  `json:"summary"`
	Countdown    Countdown    `json:"countdown"`
	CanEdit      bool         `json:"can_edit"`
	IsAdmin      bool         `json:"is_admin"`
	ViaShareLink bool         `json:"via_share_link"`
}

func NewTripDetail(trip models.Trip, logs []models.SavingsLog, now time.Time) TripDetail {
	detail := TripDetail{
		Trip:        trip,
		Members:     make([]MemberView, 0, len(trip.Members)),
		SavingsLogs: make([]LogEntry, 0, len(logs)),
		Summary:     Summarize(trip),
		Countdown:   NewCountdown(trip.TargetDate, now),
	}

	names := make(map[string]string, len(trip.Members))
	for _, m := range trip.Members {
		detail.Members = append(detail.Members, MemberView{
			TripMember: m,
			Progress:   NewProgressAvatar(m, trip.TargetAmount),
		})
		if m.User != nil {
			names[m.UserID] = m.User.Name
		}
	}

	for _, log := range logs {
		name, ok := names[log.UserID]
		if !ok {
			name = UnknownTraveler
		}
		detail.SavingsLogs = append(detail.SavingsLogs, LogEntry{
			SavingsLog:   log,
			TravelerName: name,
			Change:       LogChange(log),
		})
	}

	return detail
}

// LogChange renders new - old with a sign, treating missing amounts as zero.
func LogChange(log models.SavingsLog) string {
	oldAmount := decimal.Zero
	if log.OldAmount.Valid {
		oldAmount = log.OldAmount.Decimal
	}
	newAmount := decimal.Zero
	if log.NewAmount.Valid {
		newAmount = log.NewAmount.Decimal
	}

	change := newAmount.Sub(oldAmount)
	if change.IsNegative() {
		return change.StringFixed(2)
	}
	return "+" + change.StringFixed(2)
}

// Gallery is the photos page payload.
type Gallery struct {
	TripID           string    `json:"trip_id"`
	Name             string    `json:"name"`
	Location         string    `json:"location,omitempty"`
	PlaceDescription string    `json:"place_description,omitempty"`
	Photos           []string  `json:"photos"`
	Countdown        Countdown `json:"countdown"`
	ViaShareLink     bool      `json:"via_share_link"`
}

func NewGallery(trip models.Trip, now time.Time) Gallery {
	photos := []string(trip.Photos)
	if photos == nil {
		photos = []string{}
	}
	return Gallery{
		TripID:           trip.ID,
		Name:             trip.Name,
		Location:         trip.Location,
		PlaceDescription: trip.PlaceDescription,
		Photos:           photos,
		Countdown:        NewCountdown(trip.TargetDate, now),
	}
}
