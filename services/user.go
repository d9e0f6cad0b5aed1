package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LovationAdmin/triptrack-api/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const userColumns = `id, auth_user_id, name, email, role, avatar_color, photo_url, owner_id, is_owner, created_at, updated_at`

// userColumnsFor qualifies userColumns with a table alias.
func userColumnsFor(alias string) string {
	cols := strings.Split(userColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	var u models.User
	var authUserID, email, photoURL, ownerID sql.NullString
	dest := append(extra, &u.ID, &authUserID, &u.Name, &email, &u.Role, &u.AvatarColor, &photoURL, &ownerID, &u.IsOwner, &u.CreatedAt, &u.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.AuthUserID = authUserID.String
	u.Email = email.String
	u.PhotoURL = photoURL.String
	u.OwnerID = ownerID.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// UserInput is a validated profile form.
type UserInput struct {
	Name        string
	Email       string
	Role        string
	AvatarColor string
}

func ValidateUserRequest(req models.UserRequest) (UserInput, error) {
	in := UserInput{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Role:        req.Role,
		AvatarColor: req.AvatarColor,
	}
	if in.Name == "" {
		return UserInput{}, invalid("Please enter a name")
	}
	if in.Role == "" {
		in.Role = models.RoleJoiner
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleJoiner {
		return UserInput{}, invalid("Role must be admin or joiner")
	}
	if in.AvatarColor == "" {
		in.AvatarColor = models.DefaultAvatarColor
	}
	return in, nil
}

// List returns the profiles in an owner's scope, newest first.
func (s *UserService) List(ctx context.Context, ownerID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
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

// Get returns a profile only when it belongs to ownerID.
func (s *UserService) Get(ctx context.Context, ownerID, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND owner_id = $2`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Traveler not found")
	}
	return u, err
}

// GetByAuthUserID resolves the profile linked to an account.
func (s *UserService) GetByAuthUserID(ctx context.Context, accountID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_user_id = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Profile not found")
	}
	return u, err
}

// Create inserts a profile owned by the actor's owner.
func (s *UserService) Create(ctx context.Context, actor *models.User, in UserInput) (*models.User, error) {
	now := time.Now().UTC()
	u := &models.User{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Email:       in.Email,
		Role:        in.Role,
		AvatarColor: in.AvatarColor,
		OwnerID:     actor.OwnerScope(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := insertProfile(ctx, s.db, u); err != nil {
		return nil, translateStoreError(err, "A traveler with this email")
	}
	return u, nil
}

func insertProfile(ctx context.Context, db execer, u *models.User) error {
	query := `
		INSERT INTO users (id, auth_user_id, name, email, role, avatar_color, photo_url, owner_id, is_owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := db.ExecContext(ctx, query,
		u.ID,
		nullString(u.AuthUserID),
		u.Name,
		nullString(u.Email),
		u.Role,
		u.AvatarColor,
		nullString(u.PhotoURL),
		nullString(u.OwnerID),
		u.IsOwner,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

// Update replaces name, email, role and avatar color.
func (s *UserService) Update(ctx context.Context, actor *models.User, id string, in UserInput) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, role = $3, avatar_color = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7
	`
	res, err := s.db.ExecContext(ctx, query,
		in.Name, nullString(in.Email), in.Role, in.AvatarColor, time.Now().UTC(), id, actor.OwnerScope())
	if err != nil {
		return nil, translateStoreError(err, "A traveler with this email")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Traveler not found")
	}

	return s.Get(ctx, actor.OwnerScope(), id)
}

// Delete removes a profile. Memberships cascade; savings history is kept.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id string) error {
	if id == actor.ID {
		return invalid("You cannot delete your own profile")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND owner_id = $2`, id, actor.OwnerScope())
	if err != nil {
		return translateStoreError(err, "Traveler")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Traveler not found")
	}
	return nil
}

// SetPhotoURL stores or clears (empty url) a profile photo.
func (s *UserService) SetPhotoURL(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET photo_url = $1, updated_at = $2 WHERE id = $3`,
		nullString(url), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update photo url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Traveler not found")
	}
	return nil
}
