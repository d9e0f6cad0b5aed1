package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

const tripColumns = `id, name, description, target_date, target_amount, created_by, place_description, location, photos, created_at, updated_at`

func scanTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	var description, createdBy, placeDescription, location sql.NullString
	err := row.Scan(
		&t.ID,
		&t.Name,
		&description,
		&t.TargetDate,
		&t.TargetAmount,
		&createdBy,
		&placeDescription,
		&location,
		&t.Photos,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.CreatedBy = createdBy.String
	t.PlaceDescription = placeDescription.String
	t.Location = location.String
	t.Members = []models.TripMember{}
	return &t, nil
}

type TripService struct {
	db *sql.DB
}

func NewTripService(db *sql.DB) *TripService {
	return &TripService{db: db}
}

// TripInput is a validated trip form.
type TripInput struct {
	Name             string
	Description      string
	TargetDate       models.Date
	TargetAmount     decimal.Decimal
	PlaceDescription string
	Location         string
	Photos           models.PhotoList
}

// ValidateTripRequest checks name, then date, then amount, and reports the
// first failure.
func ValidateTripRequest(req models.TripRequest) (TripInput, error) {
	in := TripInput{
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		PlaceDescription: strings.TrimSpace(req.PlaceDescription),
		Location:         strings.TrimSpace(req.Location),
		Photos:           models.PhotoList(req.Photos).Clean(),
	}

	if in.Name == "" {
		return TripInput{}, invalid("Please enter a trip name")
	}

	date, err := models.ParseDate(req.TargetDate)
	if err != nil {
		return TripInput{}, invalid("Please select a target date")
	}
	in.TargetDate = date

	amount, ok := req.TargetAmount.Decimal()
	if !ok || !amount.IsPositive() {
		return TripInput{}, invalid("Please enter a valid target amount")
	}
	in.TargetAmount = amount

	return in, nil
}

// List returns the trips created by a profile, soonest first, with members.
func (s *TripService) List(ctx context.Context, profileID string) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE created_by = $1 ORDER BY target_date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []models.Trip{}
	var ids []string
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
		ids = append(ids, trip.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	members, err := loadMembers(ctx, s.db, ids...)
	if err != nil {
		return nil, err
	}
	for i := range trips {
		if m, ok := members[trips[i].ID]; ok {
			trips[i].Members = m
		}
	}

	return trips, nil
}

// Get loads any trip by id with its members. Callers check access.
func (s *TripService) Get(ctx context.Context, id string) (*models.Trip, error) {
	trip, err := scanTrip(s.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Trip not found")
	}
	if err != nil {
		return nil, err
	}

	members, err := loadMembers(ctx, s.db, trip.ID)
	if err != nil {
		return nil, err
	}
	if m, ok := members[trip.ID]; ok {
		trip.Members = m
	}
	return trip, nil
}

// GetOwned loads a trip only when profileID created it. A foreign trip is
// reported as not found.
func (s *TripService) GetOwned(ctx context.Context, profileID, id string) (*models.Trip, error) {
	trip, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.CreatedBy != profileID {
		return nil, notFound("Trip not found")
	}
	return trip, nil
}

func (s *TripService) Create(ctx context.Context, creator *models.User, in TripInput) (*models.Trip, error) {
	now := time.Now().UTC()
	trip := &models.Trip{
		ID:               uuid.New().String(),
		Name:             in.Name,
		Description:      in.Description,
		TargetDate:       in.TargetDate,
		TargetAmount:     in.TargetAmount,
		CreatedBy:        creator.ID,
		PlaceDescription: in.PlaceDescription,
		Location:         in.Location,
		Photos:           in.Photos,
		CreatedAt:        now,
		UpdatedAt:        now,
		Members:          []models.TripMember{},
	}

	query := `
		INSERT INTO trips (id, name, description, target_date, target_amount, created_by, place_description, location, photos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		trip.ID,
		trip.Name,
		nullString(trip.Description),
		trip.TargetDate,
		trip.TargetAmount,
		trip.CreatedBy,
		nullString(trip.PlaceDescription),
		nullString(trip.Location),
		trip.Photos,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		return nil, translateStoreError(err, "Trip")
	}

	utils.LogTripAction("Trip created", trip.ID, creator.ID)
	return trip, nil
}

// Update replaces every editable field of an owned trip.
func (s *TripService) Update(ctx context.Context, creator *models.User, id string, in TripInput) (*models.Trip, error) {
	query := `
		UPDATE trips
		SET name = $1, description = $2, target_date = $3, target_amount = $4,
		    place_description = $5, location = $6, photos = $7, updated_at = $8
		WHERE id = $9 AND created_by = $10
	`
	res, err := s.db.ExecContext(ctx, query,
		in.Name,
		nullString(in.Description),
		in.TargetDate,
		in.TargetAmount,
		nullString(in.PlaceDescription),
		nullString(in.Location),
		in.Photos,
		time.Now().UTC(),
		id,
		creator.ID,
	)
	if err != nil {
		return nil, translateStoreError(err, "Trip")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Trip not found")
	}

	utils.LogTripAction("Trip updated", id, creator.ID)
	return s.Get(ctx, id)
}

// Delete removes an owned trip; members, logs and share links cascade.
func (s *TripService) Delete(ctx context.Context, creator *models.User, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1 AND created_by = $2`, id, creator.ID)
	if err != nil {
		return translateStoreError(err, "Trip")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Trip not found")
	}

	utils.LogTripAction("Trip deleted", id, creator.ID)
	return nil
}

// loadMembers fetches members with their profiles, grouped by trip id.
func loadMembers(ctx context.Context, db *sql.DB, tripIDs ...string) (map[string][]models.TripMember, error) {
	result := make(map[string][]models.TripMember, len(tripIDs))
	if len(tripIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(tripIDs))
	args := make([]any, len(tripIDs))
	for i, id := range tripIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `
		SELECT tm.id, tm.trip_id, tm.user_id, tm.current_savings, tm.created_at, tm.updated_at, ` + userColumnsFor("u") + `
		FROM trip_members tm
		INNER JOIN users u ON u.id = tm.user_id
		WHERE tm.trip_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY tm.created_at ASC
	`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result[m.TripID] = append(result[m.TripID], *m)
	}
	return result, rows.Err()
}

func scanMember(row rowScanner) (*models.TripMember, error) {
	var m models.TripMember
	user, err := scanUser(row, &m.ID, &m.TripID, &m.UserID, &m.CurrentSavings, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.User = user
	return &m, nil
}
