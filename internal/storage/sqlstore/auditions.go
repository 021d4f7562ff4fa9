package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
)

const auditionColumns = `
	a.id, a.show_id, a.owner_id, a.title, a.location, a.audition_date,
	a.rehearsal_dates, a.performance_dates, a.workflow_status,
	COALESCE(sh.title, ''), COALESCE(sh.author, '')`

const auditionFrom = `
	FROM auditions a
	LEFT JOIN shows sh ON sh.id = a.show_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudition(row rowScanner, extra ...any) (models.Audition, error) {
	var a models.Audition
	var showID sql.NullString
	var status, showTitle, showAuthor string

	dest := append([]any{
		&a.ID, &showID, &a.OwnerID, &a.Title, &a.Location, &a.AuditionDate,
		&a.RehearsalDates, &a.PerformanceDates, &status, &showTitle, &showAuthor,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Audition{}, err
	}

	a.WorkflowStatus = models.WorkflowStatus(status)
	if showID.Valid {
		a.ShowID = showID.String
		a.Show = &models.Show{ID: showID.String, Title: showTitle, Author: showAuthor}
	}
	return a, nil
}

func (s *Store) AddShow(ctx context.Context, show models.Show) (models.Show, error) {
	if strings.TrimSpace(show.Title) == "" {
		return models.Show{}, fmt.Errorf("show title cannot be empty")
	}
	show.ID = s.ensureID(show.ID)
	if _, err := s.exec(ctx, `INSERT INTO shows (id, title, author) VALUES (?, ?, ?)`,
		show.ID, show.Title, show.Author); err != nil {
		return models.Show{}, fmt.Errorf("failed to add show: %w", err)
	}
	return show, nil
}

// AddAudition stores an audition. An inline Show without an ID is created
// alongside it.
func (s *Store) AddAudition(ctx context.Context, a models.Audition) (models.Audition, error) {
	if a.Show != nil && a.ShowID == "" {
		show, err := s.AddShow(ctx, *a.Show)
		if err != nil {
			return models.Audition{}, err
		}
		a.Show = &show
		a.ShowID = show.ID
	}
	if err := a.Validate(); err != nil {
		return models.Audition{}, err
	}
	if a.WorkflowStatus == "" {
		a.WorkflowStatus = models.WorkflowAuditioning
	}
	a.ID = s.ensureID(a.ID)

	_, err := s.exec(ctx, `
		INSERT INTO auditions (id, show_id, owner_id, title, location, audition_date,
		                       rehearsal_dates, performance_dates, workflow_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullString(a.ShowID), a.OwnerID, a.Title, a.Location, a.AuditionDate,
		a.RehearsalDates, a.PerformanceDates, string(a.WorkflowStatus), formatTimestamp(s.now()),
	)
	if err != nil {
		return models.Audition{}, fmt.Errorf("failed to add audition: %w", err)
	}
	return s.GetAudition(ctx, a.ID)
}

func (s *Store) GetAudition(ctx context.Context, id string) (models.Audition, error) {
	row := s.queryRow(ctx, `SELECT `+auditionColumns+auditionFrom+` WHERE a.id = ?`, id)
	a, err := scanAudition(row)
	if err != nil {
		return models.Audition{}, notFound("audition", id, err)
	}
	return a, nil
}

func (s *Store) ListAuditions(ctx context.Context) ([]models.Audition, error) {
	return s.auditions(ctx, `SELECT `+auditionColumns+auditionFrom+` ORDER BY a.audition_date, a.id`)
}

func (s *Store) SetWorkflowStatus(ctx context.Context, auditionID string, status models.WorkflowStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown workflow status: %s", status)
	}
	res, err := s.exec(ctx, `UPDATE auditions SET workflow_status = ? WHERE id = ?`, string(status), auditionID)
	if err != nil {
		return fmt.Errorf("failed to update workflow status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("audition %q: %w", auditionID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) OwnedAuditions(ctx context.Context, userID string) ([]models.Audition, error) {
	return s.auditions(ctx, `SELECT `+auditionColumns+auditionFrom+`
		WHERE a.owner_id = ?
		ORDER BY a.audition_date, a.id`, userID)
}

func (s *Store) ProductionTeamAuditions(ctx context.Context, userID string) ([]models.Audition, error) {
	return s.auditions(ctx, `SELECT `+auditionColumns+auditionFrom+`
		JOIN team_members tm ON tm.audition_id = a.id
		WHERE tm.user_id = ?
		ORDER BY a.audition_date, a.id`, userID)
}

func (s *Store) auditions(ctx context.Context, query string, args ...any) ([]models.Audition, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Audition
	for rows.Next() {
		a, err := scanAudition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
