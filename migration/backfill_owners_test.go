package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/LovationAdmin/triptrack-api/testutil"
)

func insertAccount(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO accounts (id, email, password_hash, totp_enabled, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, "hash", false, now, now)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

func insertLegacyUser(t *testing.T, db *sql.DB, name string, accountID sql.NullString, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO users (id, auth_user_id, name, role, avatar_color, is_owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, accountID, name, "admin", "#0ea5e9", false, createdAt, createdAt)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func ownerOf(t *testing.T, db *sql.DB, userID string) (string, bool) {
	t.Helper()
	var owner sql.NullString
	var isOwner bool
	if err := db.QueryRow(`SELECT owner_id, is_owner FROM users WHERE id = $1`, userID).Scan(&owner, &isOwner); err != nil {
		t.Fatalf("query owner: %v", err)
	}
	return owner.String, isOwner
}

func TestBackfillOwners(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	firstAccount := insertAccount(t, db, "first@example.com")
	secondAccount := insertAccount(t, db, "second@example.com")
	first := insertLegacyUser(t, db, "First", sql.NullString{String: firstAccount, Valid: true}, base)
	second := insertLegacyUser(t, db, "Second", sql.NullString{String: secondAccount, Valid: true}, base.Add(time.Minute))
	traveler := insertLegacyUser(t, db, "Traveler", sql.NullString{}, base.Add(2*time.Minute))

	tripID := uuid.NewString()
	_, err := db.Exec(`INSERT INTO trips (id, name, target_date, target_amount, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		tripID, "Legacy", base, "500", base, base)
	if err != nil {
		t.Fatalf("insert trip: %v", err)
	}

	report, err := BackfillOwners(ctx, db)
	if err != nil {
		t.Fatalf("BackfillOwners failed: %v", err)
	}
	if report.Owners != 2 || report.Travelers != 1 || report.Trips != 1 {
		t.Errorf("unexpected report %+v", report)
	}

	for _, id := range []string{first, second} {
		owner, isOwner := ownerOf(t, db, id)
		if owner != id || !isOwner {
			t.Errorf("Expected %s to own itself, got owner=%s is_owner=%v", id, owner, isOwner)
		}
	}
	if owner, isOwner := ownerOf(t, db, traveler); owner != first || isOwner {
		t.Errorf("Expected traveler owned by the earliest owner, got owner=%s is_owner=%v", owner, isOwner)
	}

	var createdBy string
	if err := db.QueryRow(`SELECT created_by FROM trips WHERE id = $1`, tripID).Scan(&createdBy); err != nil {
		t.Fatalf("query trip: %v", err)
	}
	if createdBy != first {
		t.Errorf("Expected trip assigned to %s, got %s", first, createdBy)
	}

	again, err := BackfillOwners(ctx, db)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if again != (BackfillReport{}) {
		t.Errorf("Expected second run to change nothing, got %+v", again)
	}
}

func TestBackfillOwnersWithoutAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	traveler := insertLegacyUser(t, db, "Orphan", sql.NullString{}, time.Now().UTC())

	report, err := BackfillOwners(context.Background(), db)
	if err != nil {
		t.Fatalf("BackfillOwners failed: %v", err)
	}
	if report != (BackfillReport{}) {
		t.Errorf("Expected nothing to change, got %+v", report)
	}
	if owner, _ := ownerOf(t, db, traveler); owner != "" {
		t.Errorf("Expected orphan to stay unowned, got %s", owner)
	}
}
