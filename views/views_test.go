package views

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/triptrack-api/models"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func member(userID, name, savings string) models.TripMember {
	return models.TripMember{
		ID:             "m-" + userID,
		UserID:         userID,
		CurrentSavings: decimal.RequireFromString(savings),
		UpdatedAt:      time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		User:           &models.User{ID: userID, Name: name},
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Alice", "A"},
		{"alice smith", "AS"},
		{"Mary Jane Watson", "MJ"},
		{"  bob   the builder ", "BT"},
		{"", ""},
		{"élodie durand", "ÉD"},
	}

	for _, tt := range tests {
		if got := Initials(tt.name); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		percent string
		want    string
	}{
		{"0", TierRose},
		{"49.99", TierRose},
		{"50", TierAmber},
		{"74.9", TierAmber},
		{"75", TierSky},
		{"99.99", TierSky},
		{"100", TierEmerald},
		{"250", TierEmerald},
	}

	for _, tt := range tests {
		if got := Tier(decimal.RequireFromString(tt.percent)); got != tt.want {
			t.Errorf("Tier(%s) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestProgressAvatar(t *testing.T) {
	target := decimal.RequireFromString("1000")

	t.Run("partial progress", func(t *testing.T) {
		avatar := NewProgressAvatar(member("u1", "Alice Smith", "600"), target)

		if avatar.Percent != 60 {
			t.Errorf("Expected percent 60, got %v", avatar.Percent)
		}
		if avatar.PercentDisplay != "60.0%" {
			t.Errorf("Expected display 60.0%%, got %s", avatar.PercentDisplay)
		}
		if avatar.Tier != TierAmber {
			t.Errorf("Expected tier amber, got %s", avatar.Tier)
		}
		if avatar.HasReachedGoal {
			t.Error("Expected goal not reached")
		}
		if avatar.Initials != "AS" {
			t.Errorf("Expected initials AS, got %s", avatar.Initials)
		}
		if avatar.AvatarColor != models.DefaultAvatarColor {
			t.Errorf("Expected default avatar color, got %s", avatar.AvatarColor)
		}

		reached := map[int]bool{}
		for _, m := range avatar.Milestones {
			reached[m.Percent] = m.Reached
		}
		if !reached[25] || !reached[50] || reached[75] || reached[100] {
			t.Errorf("unexpected milestones %+v", avatar.Milestones)
		}
	})

	t.Run("over target clamps only the bar", func(t *testing.T) {
		avatar := NewProgressAvatar(member("u2", "Bob", "1250"), target)

		if avatar.Percent != 125 {
			t.Errorf("Expected raw percent 125, got %v", avatar.Percent)
		}
		if avatar.BarWidth != 100 {
			t.Errorf("Expected bar width 100, got %v", avatar.BarWidth)
		}
		if avatar.CurrentSavings != "1250.00" {
			t.Errorf("Expected unclamped savings 1250.00, got %s", avatar.CurrentSavings)
		}
		if !avatar.HasReachedGoal || avatar.Tier != TierEmerald {
			t.Errorf("Expected goal reached with emerald tier, got %+v", avatar)
		}
	})

	t.Run("custom color", func(t *testing.T) {
		m := member("u3", "Cara", "0")
		m.User.AvatarColor = "#ff0000"
		avatar := NewProgressAvatar(m, target)
		if avatar.AvatarColor != "#ff0000" {
			t.Errorf("Expected #ff0000, got %s", avatar.AvatarColor)
		}
	})
}

func TestCountdown(t *testing.T) {
	target := mustDate(t, "2025-10-01")

	tests := []struct {
		name        string
		now         time.Time
		wantStatus  string
		wantDisplay string
		wantLabel   string
	}{
		{
			name:        "upcoming",
			now:         time.Date(2025, 9, 28, 14, 0, 0, 0, time.UTC),
			wantStatus:  CountdownUpcoming,
			wantDisplay: "2d 10h",
			wantLabel:   "Days Until Trip",
		},
		{
			name:        "day before late evening",
			now:         time.Date(2025, 9, 30, 23, 0, 0, 0, time.UTC),
			wantStatus:  CountdownUpcoming,
			wantDisplay: "0d 1h",
			wantLabel:   "Days Until Trip",
		},
		{
			name:        "trip day",
			now:         time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
			wantStatus:  CountdownToday,
			wantDisplay: "Today!",
			wantLabel:   "Trip Day!",
		},
		{
			name:        "past",
			now:         time.Date(2025, 10, 2, 0, 0, 1, 0, time.UTC),
			wantStatus:  CountdownPast,
			wantDisplay: "Completed",
			wantLabel:   "Trip Completed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCountdown(target, tt.now)
			if c.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, c.Status)
			}
			if c.Display != tt.wantDisplay {
				t.Errorf("Expected display %q, got %q", tt.wantDisplay, c.Display)
			}
			if c.Label != tt.wantLabel {
				t.Errorf("Expected label %q, got %q", tt.wantLabel, c.Label)
			}
			if c.RefreshSeconds != 60 {
				t.Errorf("Expected refresh 60s, got %d", c.RefreshSeconds)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	trip := models.Trip{
		TargetAmount: decimal.RequireFromString("1000"),
		Members: []models.TripMember{
			member("u1", "Alice", "1000"),
			member("u2", "Bob", "500"),
		},
	}

	s := Summarize(trip)
	if s.TotalSavings != "1500.00" || s.TotalTarget != "2000.00" {
		t.Errorf("unexpected totals %s / %s", s.TotalSavings, s.TotalTarget)
	}
	if s.Percent != 75 || s.Tier != TierSky {
		t.Errorf("Expected 75%% sky, got %v %s", s.Percent, s.Tier)
	}
	if s.CompletedMembers != 1 || s.MemberCount != 2 {
		t.Errorf("Expected 1 of 2 completed, got %d of %d", s.CompletedMembers, s.MemberCount)
	}

	empty := Summarize(models.Trip{TargetAmount: decimal.RequireFromString("1000")})
	if empty.Percent != 0 || empty.Tier != TierRose {
		t.Errorf("Expected empty trip at 0%% rose, got %+v", empty)
	}
}

func TestTripDetailLogs(t *testing.T) {
	trip := models.Trip{
		ID:           "t1",
		TargetAmount: decimal.RequireFromString("1200"),
		TargetDate:   mustDate(t, "2030-01-01"),
		Members:      []models.TripMember{member("u1", "Alice", "300")},
	}
	logs := []models.SavingsLog{
		{
			UserID:    "u1",
			OldAmount: decimal.NewNullDecimal(decimal.RequireFromString("0")),
			NewAmount: decimal.NewNullDecimal(decimal.RequireFromString("300")),
		},
		{
			UserID:    "gone",
			OldAmount: decimal.NewNullDecimal(decimal.RequireFromString("50")),
			NewAmount: decimal.NewNullDecimal(decimal.RequireFromString("20")),
		},
	}

	detail := NewTripDetail(trip, logs, time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC))

	if detail.SavingsLogs[0].TravelerName != "Alice" || detail.SavingsLogs[0].Change != "+300.00" {
		t.Errorf("unexpected first log %+v", detail.SavingsLogs[0])
	}
	if detail.SavingsLogs[1].TravelerName != UnknownTraveler || detail.SavingsLogs[1].Change != "-30.00" {
		t.Errorf("unexpected orphan log %+v", detail.SavingsLogs[1])
	}

	body, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal detail: %v", err)
	}
	var decoded struct {
		Members []struct {
			Progress struct {
				Percent float64 `json:"percent"`
			} `json:"progress"`
		} `json:"members"`
		TargetDate string `json:"target_date"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if len(decoded.Members) != 1 || decoded.Members[0].Progress.Percent != 25 {
		t.Errorf("Expected members with progress in payload, got %s", body)
	}
	if decoded.TargetDate != "2030-01-01" {
		t.Errorf("Expected target_date 2030-01-01, got %s", decoded.TargetDate)
	}
}

func TestWriteSavingsCSV(t *testing.T) {
	trip := models.Trip{
		Name:         "Summer in Lisbon",
		TargetAmount: decimal.RequireFromString("1200"),
		Members: []models.TripMember{
			member("u1", "Alice", "300"),
			member("u2", "Bob, Jr.", "1200.5"),
		},
	}

	var buf bytes.Buffer
	if err := WriteSavingsCSV(&buf, trip); err != nil {
		t.Fatalf("WriteSavingsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "User Name,Target Amount,Current Savings,Completion %,Last Updated" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "Alice,1200.00,300.00,25.00%,2025-03-01T12:30:00Z" {
		t.Errorf("unexpected row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], `"Bob, Jr.",1200.00,1200.50,100.04%`) {
		t.Errorf("unexpected quoted row %q", lines[2])
	}

	if got := ExportFilename("Summer in  Lisbon"); got != "Summer_in_Lisbon_savings.csv" {
		t.Errorf("unexpected filename %q", got)
	}
}
