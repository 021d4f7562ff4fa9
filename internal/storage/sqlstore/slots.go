package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
)

const slotColumns = `id, audition_id, start_time, end_time, location, max_signups, current_signups, callback`

func scanSlot(row rowScanner) (models.Slot, error) {
	var slot models.Slot
	var start, end string
	var maxSignups sql.NullInt64

	if err := row.Scan(&slot.ID, &slot.AuditionID, &start, &end, &slot.Location,
		&maxSignups, &slot.CurrentSignups, &slot.Callback); err != nil {
		return models.Slot{}, err
	}

	var err error
	if slot.StartTime, err = parseTimestamp(start); err != nil {
		return models.Slot{}, err
	}
	if slot.EndTime, err = parseTimestamp(end); err != nil {
		return models.Slot{}, err
	}
	if maxSignups.Valid {
		n := int(maxSignups.Int64)
		slot.MaxSignups = &n
	}
	return slot, nil
}

func (s *Store) AddSlot(ctx context.Context, slot models.Slot) (models.Slot, error) {
	if err := slot.Validate(); err != nil {
		return models.Slot{}, err
	}
	slot.ID = s.ensureID(slot.ID)

	var maxSignups sql.NullInt64
	if slot.MaxSignups != nil {
		maxSignups = sql.NullInt64{Int64: int64(*slot.MaxSignups), Valid: true}
	}

	_, err := s.exec(ctx, `
		INSERT INTO slots (`+slotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID, slot.AuditionID, formatTimestamp(slot.StartTime), formatTimestamp(slot.EndTime),
		slot.Location, maxSignups, slot.CurrentSignups, slot.Callback,
	)
	if err != nil {
		return models.Slot{}, fmt.Errorf("failed to add slot: %w", err)
	}
	return s.GetSlot(ctx, slot.ID)
}

func (s *Store) GetSlot(ctx context.Context, id string) (models.Slot, error) {
	slot, err := scanSlot(s.queryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id))
	if err != nil {
		return models.Slot{}, notFound("slot", id, err)
	}
	return slot, nil
}

func (s *Store) SlotsForAudition(ctx context.Context, auditionID string) ([]models.Slot, error) {
	rows, err := s.query(ctx, `SELECT `+slotColumns+` FROM slots
		WHERE audition_id = ?
		ORDER BY start_time, id`, auditionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// SignUp records userID against slotID. The increment only applies while
// the slot has room, so the database decides the race for the last place.
// A repeated sign-up fails on the signups primary key and rolls the
// increment back.
func (s *Store) SignUp(ctx context.Context, slotID, userID string) (models.Slot, error) {
	if userID == "" {
		return models.Slot{}, fmt.Errorf("sign-up needs a user")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Slot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.dialect.Rebind(`
		UPDATE slots SET current_signups = current_signups + 1
		WHERE id = ? AND current_signups < COALESCE(max_signups, 1)`), slotID)
	if err != nil {
		return models.Slot{}, fmt.Errorf("take slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Slot{}, fmt.Errorf("take slot: %w", err)
	}
	if n == 0 {
		var id string
		err := tx.QueryRowContext(ctx, s.dialect.Rebind(`SELECT id FROM slots WHERE id = ?`), slotID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Slot{}, fmt.Errorf("slot %q: %w", slotID, storage.ErrNotFound)
		}
		if err != nil {
			return models.Slot{}, err
		}
		return models.Slot{}, storage.ErrSlotFull
	}

	_, err = tx.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO slot_signups (slot_id, user_id, created_at) VALUES (?, ?, ?)`),
		slotID, userID, formatTimestamp(s.now()))
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return models.Slot{}, storage.ErrAlreadySignedUp
		}
		return models.Slot{}, fmt.Errorf("record sign-up: %w", err)
	}

	slot, err := scanSlot(tx.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT `+slotColumns+` FROM slots WHERE id = ?`), slotID))
	if err != nil {
		return models.Slot{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Slot{}, fmt.Errorf("commit sign-up: %w", err)
	}
	return slot, nil
}
