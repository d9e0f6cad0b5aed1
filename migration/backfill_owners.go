// Package migration holds one-off data fixes run from the command line.
//
// USAGE:
//
//	triptrack-api -backfill-owners
//
// BackfillOwners brings rows created before owner scoping existed into the
// owner model. It is idempotent: a second run finds nothing to do.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LovationAdmin/triptrack-api/utils"
)

// BackfillReport counts the rows each step changed.
type BackfillReport struct {
	Owners    int64
	Travelers int64
	Trips     int64
}

// BackfillOwners runs three steps in one transaction:
//  1. profiles linked to an account but without owner become self-owned owners;
//  2. remaining unowned profiles are assigned to the earliest owner;
//  3. trips without a creator are assigned to that same owner.
//
// Steps 2 and 3 are skipped when no owner exists.
func BackfillOwners(ctx context.Context, db *sql.DB) (BackfillReport, error) {
	var report BackfillReport
	now := time.Now().UTC()

	err := utils.WithTransaction(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET owner_id = id, is_owner = $1, updated_at = $2
			WHERE owner_id IS NULL AND auth_user_id IS NOT NULL
		`, true, now)
		if err != nil {
			return fmt.Errorf("backfill account owners: %w", err)
		}
		report.Owners, _ = res.RowsAffected()

		var ownerID string
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM users
			WHERE is_owner = $1 AND owner_id = id
			ORDER BY created_at ASC
			LIMIT 1
		`, true).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("[Migration] no owner profile found, leaving unowned travelers and trips as they are")
			return nil
		}
		if err != nil {
			return fmt.Errorf("find first owner: %w", err)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET owner_id = $1, updated_at = $2 WHERE owner_id IS NULL`, ownerID, now)
		if err != nil {
			return fmt.Errorf("backfill travelers: %w", err)
		}
		report.Travelers, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx,
			`UPDATE trips SET created_by = $1, updated_at = $2 WHERE created_by IS NULL`, ownerID, now)
		if err != nil {
			return fmt.Errorf("backfill trips: %w", err)
		}
		report.Trips, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return BackfillReport{}, err
	}

	slog.Info("[Migration] owner backfill finished",
		"owners", report.Owners,
		"travelers", report.Travelers,
		"trips", report.Trips,
	)
	return report, nil
}
