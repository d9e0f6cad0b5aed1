package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// TRIP
// ============================================================================

type Trip struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	TargetDate       Date            `json:"target_date"`
	TargetAmount     decimal.Decimal `json:"target_amount"`
	CreatedBy        string          `json:"created_by"`
	PlaceDescription string          `json:"place_description,omitempty"`
	Location         string          `json:"location,omitempty"`
	Photos           PhotoList       `json:"photos"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Members          []TripMember    `json:"members"`
}

type TripMember struct {
	ID             string          `json:"id"`
	TripID         string          `json:"trip_id"`
	UserID         string          `json:"user_id"`
	CurrentSavings decimal.Decimal `json:"current_savings"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	User           *User           `json:"user,omitempty"`
}

// SavingsLog is append-only history. It outlives the member it describes.
type SavingsLog struct {
	ID        string              `json:"id"`
	TripID    string              `json:"trip_id"`
	UserID    string              `json:"user_id"`
	OldAmount decimal.NullDecimal `json:"old_amount"`
	NewAmount decimal.NullDecimal `json:"new_amount"`
	AdminID   string              `json:"admin_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type TripShareLink struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	ShareToken string    `json:"share_token"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ============================================================================
// TRIP REQUESTS
// ============================================================================

type TripRequest struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	TargetDate       string      `json:"target_date"`
	TargetAmount     AmountInput `json:"target_amount"`
	PlaceDescription string      `json:"place_description"`
	Location         string      `json:"location"`
	Photos           []string    `json:"photos"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type AddSavingsRequest struct {
	Amount decimal.NullDecimal `json:"amount"`
}

type ShareRequest struct {
	Notify bool `json:"notify"`
}

type ShareLinkResponse struct {
	Token     string `json:"token"`
	DetailURL string `json:"detail_url"`
	PhotosURL string `json:"photos_url"`
	Created   bool   `json:"created"`
	Notified  int    `json:"notified,omitempty"`
}
