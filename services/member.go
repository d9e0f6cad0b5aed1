package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

const (
	msgSavingsConflict = "Savings changed while you were editing, please retry"
	msgDuplicateMember = "This traveler is already a member of this trip"
)

// ErrInvalidAmount rejects a savings increment that is missing or not positive.
var ErrInvalidAmount = &Error{Kind: ErrValidation, Message: "Please enter a valid amount to add (must be greater than 0)"}

type MemberService struct {
	db *sql.DB
}

func NewMemberService(db *sql.DB) *MemberService {
	return &MemberService{db: db}
}

// SavingsResult describes one successful savings update, re-read from the store.
type SavingsResult struct {
	Member         models.TripMember  `json:"member"`
	OldAmount      decimal.Decimal    `json:"old_amount"`
	NewAmount      decimal.Decimal    `json:"new_amount"`
	GoalReachedNow bool               `json:"goal_reached_now"`
	Log            *models.SavingsLog `json:"log,omitempty"`
}

func (s *MemberService) List(ctx context.Context, tripID string) ([]models.TripMember, error) {
	members, err := loadMembers(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}
	if m, ok := members[tripID]; ok {
		return m, nil
	}
	return []models.TripMember{}, nil
}

func (s *MemberService) Get(ctx context.Context, tripID, memberID string) (*models.TripMember, error) {
	query := `
		SELECT tm.id, tm.trip_id, tm.user_id, tm.current_savings, tm.created_at, tm.updated_at, ` + userColumnsFor("u") + `
		FROM trip_members tm
		INNER JOIN users u ON u.id = tm.user_id
		WHERE tm.id = $1 AND tm.trip_id = $2
	`
	m, err := scanMember(s.db.QueryRowContext(ctx, query, memberID, tripID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Member not found")
	}
	return m, err
}

// Candidates lists the owner's travelers that are not yet on the trip.
func (s *MemberService) Candidates(ctx context.Context, tripID, ownerID string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.owner_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM trip_members tm WHERE tm.trip_id = $2 AND tm.user_id = u.id
		  )
		ORDER BY u.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Add puts one of the owner's travelers on the trip with zero savings.
func (s *MemberService) Add(ctx context.Context, trip *models.Trip, ownerID, userID string) (*models.TripMember, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1 AND owner_id = $2`, userID, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Traveler not found")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	memberID := uuid.New().String()
	query := `
		INSERT INTO trip_members (id, trip_id, user_id, current_savings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, memberID, trip.ID, userID, decimal.Zero, now, now); err != nil {
		if isUniqueViolation(err) {
			return nil, conflict(msgDuplicateMember)
		}
		return nil, translateStoreError(err, "Member")
	}

	utils.LogTripAction("Member added", trip.ID, userID)
	return s.Get(ctx, trip.ID, memberID)
}

// Remove deletes the membership. Its savings history stays.
func (s *MemberService) Remove(ctx context.Context, tripID, memberID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trip_members WHERE id = $1 AND trip_id = $2`, memberID, tripID)
	if err != nil {
		return translateStoreError(err, "Member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Member not found")
	}

	utils.LogTripAction("Member removed", tripID, memberID)
	return nil
}

// AddSavings adds amount to a member's savings. The write is a compare-and-swap
// on the value just read, so a concurrent update makes this call fail with
// ErrConflict instead of being lost. The history row is written afterwards and
// a failure there does not undo the update.
func (s *MemberService) AddSavings(ctx context.Context, trip *models.Trip, memberID string, amount decimal.Decimal, adminID string) (*SavingsResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var userID string
	var oldAmount decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, current_savings FROM trip_members WHERE id = $1 AND trip_id = $2`,
		memberID, trip.ID,
	).Scan(&userID, &oldAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Member not found")
	}
	if err != nil {
		return nil, err
	}

	newAmount := oldAmount.Add(amount)
	swapped, err := s.swapSavings(ctx, trip.ID, memberID, oldAmount, newAmount)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, conflict(msgSavingsConflict)
	}

	utils.LogSavingsAction("Savings updated", trip.ID, memberID, oldAmount, newAmount)

	result := &SavingsResult{
		OldAmount:      oldAmount,
		NewAmount:      newAmount,
		GoalReachedNow: oldAmount.LessThan(trip.TargetAmount) && newAmount.GreaterThanOrEqual(trip.TargetAmount),
	}

	entry := models.SavingsLog{
		ID:        uuid.New().String(),
		TripID:    trip.ID,
		UserID:    userID,
		OldAmount: decimal.NewNullDecimal(oldAmount),
		NewAmount: decimal.NewNullDecimal(newAmount),
		AdminID:   adminID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.appendLog(ctx, entry); err != nil {
		slog.Error("[Savings] failed to write savings log",
			"trip_id", utils.MaskID(trip.ID),
			"member_id", utils.MaskID(memberID),
			"error", err,
		)
	} else {
		result.Log = &entry
	}

	member, err := s.Get(ctx, trip.ID, memberID)
	if err != nil {
		return nil, err
	}
	result.Member = *member
	return result, nil
}

// swapSavings writes newAmount only if the stored value still equals oldAmount.
func (s *MemberService) swapSavings(ctx context.Context, tripID, memberID string, oldAmount, newAmount decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trip_members
		SET current_savings = $1, updated_at = $2
		WHERE id = $3 AND trip_id = $4 AND current_savings = $5
	`, newAmount, time.Now().UTC(), memberID, tripID, oldAmount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *MemberService) appendLog(ctx context.Context, entry models.SavingsLog) error {
	query := `
		INSERT INTO savings_log (id, trip_id, user_id, old_amount, new_amount, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.TripID, entry.UserID, entry.OldAmount, entry.NewAmount, nullString(entry.AdminID), entry.CreatedAt)
	return err
}

// Logs returns a trip's savings history, newest first.
func (s *MemberService) Logs(ctx context.Context, tripID string) ([]models.SavingsLog, error) {
	query := `
		SELECT id, trip_id, user_id, old_amount, new_amount, admin_id, created_at
		FROM savings_log
		WHERE trip_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.SavingsLog{}
	for rows.Next() {
		var entry models.SavingsLog
		var adminID sql.NullString
		if err := rows.Scan(&entry.ID, &entry.TripID, &entry.UserID, &entry.OldAmount, &entry.NewAmount, &adminID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.AdminID = adminID.String
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
