package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

var (
	ErrTOTPRequired = &Error{Kind: ErrUnauthorized, Message: "2FA code required"}
	ErrInvalidTOTP  = &Error{Kind: ErrUnauthorized, Message: "Invalid 2FA code"}
)

type AuthService struct {
	db            *sql.DB
	tokens        *utils.TokenManager
	users         *UserService
	encryptionKey string
	sessionTTL    time.Duration
}

func NewAuthService(db *sql.DB, tokens *utils.TokenManager, users *UserService, encryptionKey string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		db:            db,
		tokens:        tokens,
		users:         users,
		encryptionKey: encryptionKey,
		sessionTTL:    sessionTTL,
	}
}

const accountColumns = `id, email, password_hash, totp_secret, totp_enabled, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var secret sql.NullString
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &secret, &a.TOTPEnabled, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.TOTPSecret = secret.String
	return &a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultProfileName is the local part of an email address.
func defaultProfileName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// newOwnerProfile builds the self-owned admin profile for an account.
func newOwnerProfile(account *models.Account, name string) *models.User {
	now := time.Now().UTC()
	id := uuid.New().String()
	if name = strings.TrimSpace(name); name == "" {
		name = defaultProfileName(account.Email)
	}
	return &models.User{
		ID:          id,
		AuthUserID:  account.ID,
		Name:        name,
		Email:       account.Email,
		Role:        models.RoleAdmin,
		AvatarColor: models.DefaultAvatarColor,
		OwnerID:     id,
		IsOwner:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SignUp creates the account, its owner profile and a first session.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	email = normalizeEmail(email)

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := newOwnerProfile(account, name)

	err = utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO accounts (id, email, password_hash, totp_enabled, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, account.ID, account.Email, account.PasswordHash, false, account.CreatedAt, account.UpdatedAt); err != nil {
			return translateStoreError(err, "An account with this email")
		}
		if err := insertProfile(ctx, tx, profile); err != nil {
			return translateStoreError(err, "A traveler profile with this email")
		}
		return nil
	})
	if err != nil {
		utils.LogAuthAction("Signup", email, false)
		return nil, err
	}

	utils.LogAuthAction("Signup", email, true)
	return s.openSession(ctx, account, profile)
}

// SignIn checks credentials (and the 2FA code when enabled), provisions a
// missing profile and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password, totpCode string) (*models.AuthResponse, error) {
	email = normalizeEmail(email)

	account, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		utils.LogAuthAction("Login", email, false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(account.PasswordHash, password) {
		utils.LogAuthAction("Login", email, false)
		return nil, ErrInvalidCredentials
	}

	if account.TOTPEnabled {
		if totpCode == "" {
			return nil, ErrTOTPRequired
		}
		ok, err := s.checkTOTP(account, totpCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			utils.LogAuthAction("Login 2FA", email, false)
			return nil, ErrInvalidTOTP
		}
	}

	profile, err := s.ensureProfile(ctx, account)
	if err != nil {
		return nil, err
	}

	utils.LogAuthAction("Login", email, true)
	return s.openSession(ctx, account, profile)
}

func (s *AuthService) ensureProfile(ctx context.Context, account *models.Account) (*models.User, error) {
	profile, err := s.users.GetByAuthUserID(ctx, account.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	profile = newOwnerProfile(account, "")
	if err := insertProfile(ctx, s.db, profile); err != nil {
		if isUniqueViolation(err) {
			// A concurrent login created it first.
			return s.users.GetByAuthUserID(ctx, account.ID)
		}
		return nil, translateStoreError(err, "A traveler profile with this email")
	}

	slog.Info("[Auth] provisioned owner profile", "profile_id", utils.MaskID(profile.ID))
	return profile, nil
}

func (s *AuthService) openSession(ctx context.Context, account *models.Account, profile *models.User) (*models.AuthResponse, error) {
	now := time.Now().UTC()
	session := models.Session{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		RefreshToken: utils.GenerateRefreshToken(),
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}

	return s.issue(ctx, s.db, account, profile, session)
}

func (s *AuthService) issue(ctx context.Context, db execer, account *models.Account, profile *models.User, session models.Session) (*models.AuthResponse, error) {
	query := `
		INSERT INTO sessions (id, account_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := db.ExecContext(ctx, query, session.ID, session.AccountID, session.RefreshToken, session.ExpiresAt, session.CreatedAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(account.ID, session.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.AuthResponse{
		Token:        token,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         profile,
	}, nil
}

// SignOut deletes the session so its access token stops resolving.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

// ResolveSession validates an access token and returns its live session.
func (s *AuthService) ResolveSession(ctx context.Context, tokenString string) (*models.Session, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Invalid token"}
	}

	var session models.Session
	err = s.db.QueryRowContext(ctx,
		`SELECT id, account_id, refresh_token, expires_at, created_at FROM sessions WHERE id = $1`,
		claims.SessionID,
	).Scan(&session.ID, &session.AccountID, &session.RefreshToken, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Session expired"}
	}
	if err != nil {
		return nil, err
	}

	if session.AccountID != claims.AccountID || time.Now().After(session.ExpiresAt) {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Session expired"}
	}
	return &session, nil
}

// ProfileForAccount never provisions; a missing profile is ErrNotFound.
func (s *AuthService) ProfileForAccount(ctx context.Context, accountID string) (*models.User, error) {
	return s.users.GetByAuthUserID(ctx, accountID)
}

// Refresh rotates a session: the old refresh token is consumed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var old models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, expires_at FROM sessions WHERE refresh_token = $1`, refreshToken,
	).Scan(&old.ID, &old.AccountID, &old.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Invalid refresh token"}
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(old.ExpiresAt) {
		s.SignOut(ctx, old.ID)
		return nil, &Error{Kind: ErrUnauthorized, Message: "Session expired"}
	}

	account, err := s.account(ctx, old.AccountID)
	if err != nil {
		return nil, err
	}
	profile, err := s.ensureProfile(ctx, account)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := models.Session{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		RefreshToken: utils.GenerateRefreshToken(),
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}

	var resp *models.AuthResponse
	err = utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, old.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &Error{Kind: ErrUnauthorized, Message: "Invalid refresh token"}
		}
		resp, err = s.issue(ctx, tx, account, profile, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CleanExpiredSessions deletes sessions past their expiry.
func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AuthService) account(ctx context.Context, id string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Account not found"}
	}
	return account, err
}

// ============================================================================
// 2FA
// ============================================================================

// SetupTOTP stores a fresh encrypted secret. It is not enforced until verified.
func (s *AuthService) SetupTOTP(ctx context.Context, accountID string) (*models.TOTPSetupResponse, error) {
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.TOTPEnabled {
		return nil, conflict("2FA is already enabled")
	}

	secret, qrURL, err := utils.GenerateTOTPSecret(account.Email)
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	encrypted, err := utils.Encrypt(s.encryptionKey, []byte(secret))
	if errors.Is(err, utils.ErrInvalidEncryptionKey) {
		return nil, &Error{Kind: ErrUnavailable, Message: "2FA is not configured on this server"}
	}
	if err != nil {
		return nil, fmt.Errorf("encrypt totp secret: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE accounts SET totp_secret = $1, totp_enabled = $2, updated_at = $3 WHERE id = $4`,
		encrypted, false, time.Now().UTC(), account.ID)
	if err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{Secret: secret, QRCode: qrURL}, nil
}

// EnableTOTP turns 2FA on once the user proves they hold the secret.
func (s *AuthService) EnableTOTP(ctx context.Context, accountID, code string) error {
	return s.setTOTP(ctx, accountID, code, true)
}

func (s *AuthService) DisableTOTP(ctx context.Context, accountID, code string) error {
	return s.setTOTP(ctx, accountID, code, false)
}

func (s *AuthService) setTOTP(ctx context.Context, accountID, code string, enabled bool) error {
	account, err := s.account(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TOTPSecret == "" {
		return invalid("2FA has not been set up")
	}

	ok, err := s.checkTOTP(account, code)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("Invalid 2FA code")
	}

	secret := sql.NullString{String: account.TOTPSecret, Valid: enabled}
	_, err = s.db.ExecContext(ctx,
		`UPDATE accounts SET totp_secret = $1, totp_enabled = $2, updated_at = $3 WHERE id = $4`,
		secret, enabled, time.Now().UTC(), account.ID)
	return err
}

func (s *AuthService) checkTOTP(account *models.Account, code string) (bool, error) {
	secret, err := utils.Decrypt(s.encryptionKey, account.TOTPSecret)
	if errors.Is(err, utils.ErrInvalidEncryptionKey) {
		return false, &Error{Kind: ErrUnavailable, Message: "2FA is not configured on this server"}
	}
	if err != nil {
		return false, fmt.Errorf("decrypt totp secret: %w", err)
	}
	return utils.VerifyTOTP(string(secret), code), nil
}
