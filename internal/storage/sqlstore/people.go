package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
)

func (s *Store) AddCastMember(ctx context.Context, c models.CastMembership) error {
	if c.UserID == "" || c.AuditionID == "" {
		return fmt.Errorf("cast membership needs a user and an audition")
	}
	if _, err := s.exec(ctx, `INSERT INTO cast_members (user_id, audition_id, role_name) VALUES (?, ?, ?)`,
		c.UserID, c.AuditionID, c.RoleName); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to add cast member: %w", err)
	}
	return nil
}

func (s *Store) AddTeamMember(ctx context.Context, m models.TeamMembership) error {
	if m.UserID == "" || m.AuditionID == "" {
		return fmt.Errorf("team membership needs a user and an audition")
	}
	if _, err := s.exec(ctx, `INSERT INTO team_members (user_id, audition_id, role) VALUES (?, ?, ?)`,
		m.UserID, m.AuditionID, m.Role); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// CastShows returns the user's cast memberships with their auditions
// attached.
func (s *Store) CastShows(ctx context.Context, userID string) ([]models.CastMembership, error) {
	rows, err := s.query(ctx, `SELECT `+auditionColumns+`, cm.role_name`+auditionFrom+`
		JOIN cast_members cm ON cm.audition_id = a.id
		WHERE cm.user_id = ?
		ORDER BY a.audition_date, a.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CastMembership
	for rows.Next() {
		var role string
		a, err := scanAudition(rows, &role)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CastMembership{
			UserID:     userID,
			AuditionID: a.ID,
			Audition:   &a,
			RoleName:   role,
		})
	}
	return out, rows.Err()
}

func (s *Store) AddPersonalEvent(ctx context.Context, p models.PersonalEvent) (models.PersonalEvent, error) {
	if err := p.Validate(); err != nil {
		return models.PersonalEvent{}, err
	}
	if p.AllDay && !p.End.After(p.Start) {
		p.End = p.Start.AddDate(0, 0, 1)
	}
	p.ID = s.ensureID(p.ID)

	_, err := s.exec(ctx, `
		INSERT INTO personal_events (id, user_id, title, start_time, end_time, all_day, location, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, formatTimestamp(p.Start), formatTimestamp(p.End), p.AllDay, p.Location, p.Notes,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return models.PersonalEvent{}, fmt.Errorf("personal event %q: %w", p.ID, storage.ErrDuplicate)
		}
		return models.PersonalEvent{}, fmt.Errorf("failed to add personal event: %w", err)
	}
	return p, nil
}

func (s *Store) PersonalEvents(ctx context.Context, userID string) ([]models.PersonalEvent, error) {
	rows, err := s.query(ctx, `
		SELECT id, user_id, title, start_time, end_time, all_day, location, notes
		FROM personal_events
		WHERE user_id = ?
		ORDER BY start_time, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PersonalEvent
	for rows.Next() {
		var p models.PersonalEvent
		var start, end string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &start, &end, &p.AllDay, &p.Location, &p.Notes); err != nil {
			return nil, err
		}
		if p.Start, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if p.End, err = parseTimestamp(end); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProfile loads a profile. Casting history is derived from cast
// memberships rather than stored, so it is always verified.
func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	var skills, credits string
	err := s.queryRow(ctx, `
		SELECT user_id, name, email, phone, website, bio, skills, credits
		FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Website, &p.Bio, &skills, &credits)
	if err != nil {
		return models.Profile{}, notFound("profile", userID, err)
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return models.Profile{}, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal([]byte(credits), &p.Credits); err != nil {
		return models.Profile{}, fmt.Errorf("decode credits: %w", err)
	}

	casts, err := s.CastShows(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	for _, c := range casts {
		credit := models.Credit{Show: c.Audition.DisplayTitle(), Role: c.RoleName, Verified: true}
		if len(c.Audition.AuditionDate) >= 4 {
			credit.Year = c.Audition.AuditionDate[:4]
		}
		p.CastingHistory = append(p.CastingHistory, credit)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p models.Profile) error {
	if p.UserID == "" || p.Name == "" {
		return fmt.Errorf("profile needs a user and a name")
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Credits == nil {
		p.Credits = []models.Credit{}
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return err
	}
	credits, err := json.Marshal(p.Credits)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `
		INSERT INTO profiles (user_id, name, email, phone, website, bio, skills, credits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			website = excluded.website,
			bio = excluded.bio,
			skills = excluded.skills,
			credits = excluded.credits`,
		p.UserID, p.Name, p.Email, p.Phone, p.Website, p.Bio, string(skills), string(credits),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
