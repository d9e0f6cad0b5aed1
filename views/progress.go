// Package views builds the presentation payloads the frontend renders:
// progress avatars, trip cards, countdowns and CSV exports.
package views

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/triptrack-api/models"
)

const (
	TierRose    = "rose"
	TierAmber   = "amber"
	TierSky     = "sky"
	TierEmerald = "emerald"
)

var (
	hundred    = decimal.NewFromInt(100)
	milestones = []int{25, 50, 75, 100}
)

// ProgressPercent is current/target*100, or 0 when the target is not positive.
// The result is not clamped.
func ProgressPercent(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return current.Mul(hundred).DivRound(target, 4)
}

// BarWidth clamps a percentage to [0, 100] for rendering.
func BarWidth(percent decimal.Decimal) float64 {
	switch {
	case percent.IsNegative():
		return 0
	case percent.GreaterThan(hundred):
		return 100
	default:
		return percent.InexactFloat64()
	}
}

func Tier(percent decimal.Decimal) string {
	switch {
	case percent.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return TierEmerald
	case percent.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return TierSky
	case percent.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return TierAmber
	default:
		return TierRose
	}
}

// Initials takes the first letter of each word, upper-cased, at most two.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == 2 {
			break
		}
	}
	return b.String()
}

type Milestone struct {
	Percent int  `json:"percent"`
	Reached bool `json:"reached"`
}

type ProgressAvatar struct {
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	Initials       string      `json:"initials"`
	AvatarColor    string      `json:"avatar_color"`
	PhotoURL       string      `json:"photo_url,omitempty"`
	CurrentSavings string      `json:"current_savings"`
	TargetAmount   string      `json:"target_amount"`
	Percent        float64     `json:"percent"`
	PercentDisplay string      `json:"percent_display"`
	BarWidth       float64     `json:"bar_width"`
	Tier           string      `json:"tier"`
	Milestones     []Milestone `json:"milestones"`
	HasReachedGoal bool        `json:"has_reached_goal"`
}

// NewProgressAvatar describes one member's progress toward the per-person target.
func NewProgressAvatar(member models.TripMember, target decimal.Decimal) ProgressAvatar {
	percent := ProgressPercent(member.CurrentSavings, target)

	avatar := ProgressAvatar{
		UserID:         member.UserID,
		AvatarColor:    models.DefaultAvatarColor,
		CurrentSavings: member.CurrentSavings.StringFixed(2),
		TargetAmount:   target.StringFixed(2),
		Percent:        percent.InexactFloat64(),
		PercentDisplay: percent.StringFixed(1) + "%",
		BarWidth:       BarWidth(percent),
		Tier:           Tier(percent),
		HasReachedGoal: member.CurrentSavings.GreaterThanOrEqual(target),
	}

	if member.User != nil {
		avatar.Name = member.User.Name
		avatar.Initials = Initials(member.User.Name)
		avatar.PhotoURL = member.User.PhotoURL
		if member.User.AvatarColor != "" {
			avatar.AvatarColor = member.User.AvatarColor
		}
	}

	for _, m := range milestones {
		avatar.Milestones = append(avatar.Milestones, Milestone{
			Percent: m,
			Reached: percent.GreaterThanOrEqual(decimal.NewFromInt(int64(m))),
		})
	}

	return avatar
}
