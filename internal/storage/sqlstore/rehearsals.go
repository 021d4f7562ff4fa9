package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
	"github.com/julianstephens/callboard/internal/utils"
	"github.com/julianstephens/callboard/internal/validation"
)

const rehearsalColumns = `r.id, r.audition_id, r.title, r.date, r.start_time, r.end_time, r.location, r.notes, r.recurrence`

const agendaColumns = `g.id, g.rehearsal_event_id, g.title, g.description, g.start_time, g.end_time`

// auditionsByRole selects the audition IDs a user reaches through role
var auditionsByRole = map[models.UserRole]string{
	models.RoleOwner:          `SELECT id FROM auditions WHERE owner_id = ?`,
	models.RoleProductionTeam: `SELECT audition_id FROM team_members WHERE user_id = ?`,
	models.RoleCast:           `SELECT audition_id FROM cast_members WHERE user_id = ?`,
}

func scanRehearsal(row rowScanner) (models.RehearsalEvent, error) {
	var r models.RehearsalEvent
	err := row.Scan(&r.ID, &r.AuditionID, &r.Title, &r.Date, &r.StartTime, &r.EndTime,
		&r.Location, &r.Notes, &r.Recurrence)
	return r, err
}

func scanAgendaItem(row rowScanner) (models.AgendaItem, error) {
	var item models.AgendaItem
	err := row.Scan(&item.ID, &item.RehearsalEventID, &item.Title, &item.Description,
		&item.StartTime, &item.EndTime)
	return item, err
}

// AddRehearsalEvent stores a rehearsal and any agenda items it carries.
// Agenda items must fit the rehearsal window.
func (s *Store) AddRehearsalEvent(ctx context.Context, r models.RehearsalEvent) (models.RehearsalEvent, error) {
	if r.Title == "" {
		return models.RehearsalEvent{}, fmt.Errorf("rehearsal title cannot be empty")
	}
	if _, err := utils.ParseDateInLocation(r.Date, time.UTC); err != nil {
		return models.RehearsalEvent{}, err
	}
	if err := validation.ValidateRange(r.StartTime, r.EndTime); err != nil {
		return models.RehearsalEvent{}, err
	}
	for _, item := range r.AgendaItems {
		if err := validation.ValidateWithinBounds(r.StartTime, r.EndTime, item.StartTime, item.EndTime); err != nil {
			return models.RehearsalEvent{}, fmt.Errorf("agenda item %q: %w", item.Title, err)
		}
	}
	r.ID = s.ensureID(r.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.RehearsalEvent{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO rehearsal_events (id, audition_id, title, date, start_time, end_time, location, notes, recurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.AuditionID, r.Title, r.Date, r.StartTime, r.EndTime, r.Location, r.Notes, r.Recurrence,
	)
	if err != nil {
		return models.RehearsalEvent{}, fmt.Errorf("failed to add rehearsal event: %w", err)
	}

	for i := range r.AgendaItems {
		item := &r.AgendaItems[i]
		item.ID = s.ensureID(item.ID)
		item.RehearsalEventID = r.ID
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`
			INSERT INTO agenda_items (id, rehearsal_event_id, title, description, start_time, end_time)
			VALUES (?, ?, ?, ?, ?, ?)`),
			item.ID, item.RehearsalEventID, item.Title, item.Description, item.StartTime, item.EndTime,
		); err != nil {
			return models.RehearsalEvent{}, fmt.Errorf("failed to add agenda item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.RehearsalEvent{}, fmt.Errorf("commit rehearsal event: %w", err)
	}
	return r, nil
}

func (s *Store) GetRehearsalEvent(ctx context.Context, id string) (models.RehearsalEvent, error) {
	r, err := scanRehearsal(s.queryRow(ctx, `SELECT `+rehearsalColumns+` FROM rehearsal_events r WHERE r.id = ?`, id))
	if err != nil {
		return models.RehearsalEvent{}, notFound("rehearsal event", id, err)
	}

	items, err := s.agendaItems(ctx, `SELECT `+agendaColumns+` FROM agenda_items g
		WHERE g.rehearsal_event_id = ?
		ORDER BY g.start_time, g.id`, id)
	if err != nil {
		return models.RehearsalEvent{}, err
	}
	r.AgendaItems = items[id]
	return r, nil
}

// AddAgendaItem attaches an item to an existing rehearsal after checking it
// against the rehearsal window.
func (s *Store) AddAgendaItem(ctx context.Context, item models.AgendaItem) (models.AgendaItem, error) {
	if item.Title == "" {
		return models.AgendaItem{}, fmt.Errorf("agenda item title cannot be empty")
	}
	parent, err := s.GetRehearsalEvent(ctx, item.RehearsalEventID)
	if err != nil {
		return models.AgendaItem{}, err
	}
	if err := validation.ValidateWithinBounds(parent.StartTime, parent.EndTime, item.StartTime, item.EndTime); err != nil {
		return models.AgendaItem{}, err
	}
	item.ID = s.ensureID(item.ID)

	if _, err := s.exec(ctx, `
		INSERT INTO agenda_items (id, rehearsal_event_id, title, description, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.RehearsalEventID, item.Title, item.Description, item.StartTime, item.EndTime,
	); err != nil {
		return models.AgendaItem{}, fmt.Errorf("failed to add agenda item: %w", err)
	}
	return item, nil
}

func (s *Store) RehearsalEventsForUser(ctx context.Context, userID string, role models.UserRole) ([]models.RehearsalEvent, error) {
	sub, ok := auditionsByRole[role]
	if !ok {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	rows, err := s.query(ctx, `SELECT `+rehearsalColumns+` FROM rehearsal_events r
		WHERE r.audition_id IN (`+sub+`)
		ORDER BY r.date, r.start_time, r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RehearsalEvent
	for rows.Next() {
		r, err := scanRehearsal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	items, err := s.agendaItems(ctx, `SELECT `+agendaColumns+` FROM agenda_items g
		JOIN rehearsal_events r ON r.id = g.rehearsal_event_id
		WHERE r.audition_id IN (`+sub+`)
		ORDER BY g.start_time, g.id`, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].AgendaItems = items[out[i].ID]
	}
	return out, nil
}

// agendaItems groups the selected items by rehearsal event ID
func (s *Store) agendaItems(ctx context.Context, query string, args ...any) (map[string][]models.AgendaItem, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.AgendaItem)
	for rows.Next() {
		item, err := scanAgendaItem(rows)
		if err != nil {
			return nil, err
		}
		out[item.RehearsalEventID] = append(out[item.RehearsalEventID], item)
	}
	return out, rows.Err()
}

func (s *Store) AddProductionEvent(ctx context.Context, pe models.ProductionEvent) (models.ProductionEvent, error) {
	if pe.Title == "" {
		return models.ProductionEvent{}, fmt.Errorf("production event title cannot be empty")
	}
	if _, err := utils.ParseDateInLocation(pe.Date, time.UTC); err != nil {
		return models.ProductionEvent{}, err
	}
	if pe.StartTime != "" && pe.EndTime != "" {
		if err := validation.ValidateRange(pe.StartTime, pe.EndTime); err != nil {
			return models.ProductionEvent{}, err
		}
	}
	if pe.Kind == "" {
		pe.Kind = models.ProductionEventOther
	}
	pe.ID = s.ensureID(pe.ID)

	if _, err := s.exec(ctx, `
		INSERT INTO production_events (id, audition_id, kind, title, date, start_time, end_time, location, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pe.ID, pe.AuditionID, string(pe.Kind), pe.Title, pe.Date, pe.StartTime, pe.EndTime, pe.Location, pe.Description,
	); err != nil {
		return models.ProductionEvent{}, fmt.Errorf("failed to add production event: %w", err)
	}
	return pe, nil
}

func (s *Store) AssignProductionEvent(ctx context.Context, productionEventID, userID string) error {
	var id string
	if err := s.queryRow(ctx, `SELECT id FROM production_events WHERE id = ?`, productionEventID).Scan(&id); err != nil {
		return notFound("production event", productionEventID, err)
	}
	if _, err := s.exec(ctx, `
		INSERT INTO production_event_assignments (production_event_id, user_id) VALUES (?, ?)`,
		productionEventID, userID,
	); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to assign production event: %w", err)
	}
	return nil
}

func (s *Store) AssignedProductionEvents(ctx context.Context, userID string) ([]models.ProductionEvent, error) {
	rows, err := s.query(ctx, `
		SELECT pe.id, pe.audition_id, pe.kind, pe.title, pe.date, pe.start_time, pe.end_time,
		       pe.location, pe.description, sh.id, COALESCE(sh.title, ''), COALESCE(sh.author, '')
		FROM production_events pe
		JOIN production_event_assignments x ON x.production_event_id = pe.id
		LEFT JOIN auditions a ON a.id = pe.audition_id
		LEFT JOIN shows sh ON sh.id = a.show_id
		WHERE x.user_id = ?
		ORDER BY pe.date, pe.start_time, pe.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProductionEvent
	for rows.Next() {
		var pe models.ProductionEvent
		var kind, showTitle, showAuthor string
		var showID sql.NullString
		if err := rows.Scan(&pe.ID, &pe.AuditionID, &kind, &pe.Title, &pe.Date, &pe.StartTime,
			&pe.EndTime, &pe.Location, &pe.Description, &showID, &showTitle, &showAuthor); err != nil {
			return nil, err
		}
		pe.Kind = models.ProductionEventKind(kind)
		if showID.Valid {
			pe.Show = &models.Show{ID: showID.String, Title: showTitle, Author: showAuthor}
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}
