package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

type ShareService struct {
	db          *sql.DB
	frontendURL string
	mailer      Mailer
}

func NewShareService(db *sql.DB, frontendURL string, mailer Mailer) *ShareService {
	return &ShareService{
		db:          db,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		mailer:      mailer,
	}
}

// NewShareToken concatenates two random UUIDs without dashes.
func NewShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetOrCreate returns the trip's share link, minting one when none exists.
// trip_id is unique, so a concurrent mint loses the insert and returns the
// winner's link.
func (s *ShareService) GetOrCreate(ctx context.Context, trip *models.Trip, issuerID string) (*models.TripShareLink, bool, error) {
	link, err := s.linkForTrip(ctx, trip.ID)
	if err == nil {
		return link, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	now := time.Now().UTC()
	link = &models.TripShareLink{
		ID:         uuid.New().String(),
		TripID:     trip.ID,
		ShareToken: NewShareToken(),
		CreatedBy:  issuerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trip_share_links (id, trip_id, share_token, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, link.ID, link.TripID, link.ShareToken, nullString(link.CreatedBy), link.CreatedAt, link.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		existing, lookupErr := s.linkForTrip(ctx, trip.ID)
		if lookupErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, translateStoreError(err, "Share link")
	}

	utils.LogShareAction("Share link created", trip.ID, issuerID)
	return link, true, nil
}

func (s *ShareService) linkForTrip(ctx context.Context, tripID string) (*models.TripShareLink, error) {
	var link models.TripShareLink
	var createdBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, share_token, created_by, created_at, updated_at
		FROM trip_share_links
		WHERE trip_id = $1
	`, tripID).Scan(&link.ID, &link.TripID, &link.ShareToken, &createdBy, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	link.CreatedBy = createdBy.String
	return &link, nil
}

// Validate succeeds only when token is a share link of tripID.
func (s *ShareService) Validate(ctx context.Context, tripID, token string) error {
	if token == "" {
		return notFound("Invalid share link")
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM trip_share_links WHERE trip_id = $1 AND share_token = $2`, tripID, token,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("Invalid share link")
	}
	return err
}

func (s *ShareService) DetailURL(tripID, token string) string {
	return s.frontendURL + "/trips/" + url.PathEscape(tripID) + "?token=" + url.QueryEscape(token)
}

func (s *ShareService) PhotosURL(tripID, token string) string {
	return s.frontendURL + "/trips/" + url.PathEscape(tripID) + "/photos?token=" + url.QueryEscape(token)
}

func (s *ShareService) Response(link *models.TripShareLink, created bool) models.ShareLinkResponse {
	return models.ShareLinkResponse{
		Token:     link.ShareToken,
		DetailURL: s.DetailURL(link.TripID, link.ShareToken),
		PhotosURL: s.PhotosURL(link.TripID, link.ShareToken),
		Created:   created,
	}
}

// Notify emails the link to every member with an email address. Failures are
// logged and skipped; the number of emails sent is returned.
func (s *ShareService) Notify(ctx context.Context, trip *models.Trip, inviter *models.User, link *models.TripShareLink) int {
	if s.mailer == nil {
		return 0
	}

	sent := 0
	for _, m := range trip.Members {
		if m.User == nil || m.User.Email == "" {
			continue
		}
		err := s.mailer.SendShareLink(ctx, ShareLinkEmail{
			To:           m.User.Email,
			TravelerName: m.User.Name,
			InviterName:  inviter.Name,
			TripName:     trip.Name,
			TargetDate:   trip.TargetDate.String(),
			DetailURL:    s.DetailURL(trip.ID, link.ShareToken),
			PhotosURL:    s.PhotosURL(trip.ID, link.ShareToken),
		})
		if err != nil {
			slog.Warn("[Share] failed to email share link",
				"trip_id", utils.MaskID(trip.ID),
				"to", utils.MaskEmail(m.User.Email),
				"error", err,
			)
			continue
		}
		sent++
	}

	utils.LogShareAction("Share link emailed", trip.ID, inviter.ID)
	return sent
}
