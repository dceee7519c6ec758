package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/T1mof/sprint-planner/internal/domain"
)

const uniqueViolation = "23505"

// Repository хранилище на PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ========================================
// TeamRepository Methods
// ========================================

func (r *Repository) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	members := []domain.TeamMember{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT member_id, name, role, capacity, days_off, active, country
		FROM team_members
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (r *Repository) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.GetContext(ctx, &member, `
		SELECT member_id, name, role, capacity, days_off, active, country
		FROM team_members
		WHERE member_id = $1
	`, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &member, nil
}

func (r *Repository) CreateMember(ctx context.Context, member *domain.TeamMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members (member_id, name, role, capacity, days_off, active, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, member.ID, member.Name, member.Role, member.Capacity, member.DaysOff, member.Active, member.Country)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMemberExists
		}
		return fmt.Errorf("failed to insert team member: %w", err)
	}

	slog.Info("Team member created in DB", "member_id", member.ID, "name", member.Name)
	return nil
}

func (r *Repository) UpdateMember(ctx context.Context, member *domain.TeamMember) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE team_members
		SET name = $1, role = $2, capacity = $3, days_off = $4, active = $5, country = $6, updated_at = NOW()
		WHERE member_id = $7
	`, member.Name, member.Role, member.Capacity, member.DaysOff, member.Active, member.Country, member.ID)
	if err != nil {
		return fmt.Errorf("failed to update team member: %w", err)
	}
	return expectAffected(result, domain.ErrMemberNotFound)
}

func (r *Repository) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE member_id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	if err := expectAffected(result, domain.ErrMemberNotFound); err != nil {
		return err
	}

	slog.Info("Team member deleted from DB", "member_id", memberID)
	return nil
}

func (r *Repository) SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE team_members
		SET active = $1, updated_at = NOW()
		WHERE member_id = $2
	`, active, memberID)
	if err != nil {
		return fmt.Errorf("failed to update member active status: %w", err)
	}
	if err := expectAffected(result, domain.ErrMemberNotFound); err != nil {
		return err
	}

	slog.Info("Member active status updated", "member_id", memberID, "active", active)
	return nil
}

// ========================================
// SprintRepository Methods
// ========================================

const sprintColumns = `
	sprint_id, sprint, sprint_number,
	to_char(start_date, 'YYYY-MM-DD') AS start_date,
	to_char(end_date, 'YYYY-MM-DD') AS end_date,
	planned, completed, team_capacity, actual_points, velocity
`

func (r *Repository) ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error) {
	sprints := []domain.SprintHistoryEntry{}
	err := r.db.SelectContext(ctx, &sprints, `
		SELECT `+sprintColumns+`
		FROM sprints
		ORDER BY start_date, sprint_number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	return sprints, nil
}

func (r *Repository) GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.SprintHistoryEntry, error) {
	var sprint domain.SprintHistoryEntry
	err := r.db.GetContext(ctx, &sprint, `
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE sprint_id = $1
	`, sprintID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSprintNotFound
		}
		return nil, fmt.Errorf("failed to get sprint: %w", err)
	}
	return &sprint, nil
}

func (r *Repository) CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sprints (sprint_id, sprint, sprint_number, start_date, end_date,
			planned, completed, team_capacity, actual_points, velocity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sprint.ID, sprint.Sprint, sprint.SprintNumber, sprint.StartDate, sprint.EndDate,
		sprint.Planned, sprint.Completed, sprint.TeamCapacity, sprint.ActualPoints, sprint.Velocity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSprintExists
		}
		return fmt.Errorf("failed to insert sprint: %w", err)
	}

	slog.Info("Sprint created in DB", "sprint_id", sprint.ID, "sprint", sprint.Sprint)
	return nil
}

func (r *Repository) UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sprints
		SET sprint = $1, sprint_number = $2, start_date = $3, end_date = $4,
			planned = $5, completed = $6, team_capacity = $7,
			actual_points = $8, velocity = $9, updated_at = NOW()
		WHERE sprint_id = $10
	`, sprint.Sprint, sprint.SprintNumber, sprint.StartDate, sprint.EndDate,
		sprint.Planned, sprint.Completed, sprint.TeamCapacity,
		sprint.ActualPoints, sprint.Velocity, sprint.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSprintExists
		}
		return fmt.Errorf("failed to update sprint: %w", err)
	}
	return expectAffected(result, domain.ErrSprintNotFound)
}

func (r *Repository) DeleteSprint(ctx context.Context, sprintID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sprints WHERE sprint_id = $1`, sprintID)
	if err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}
	if err := expectAffected(result, domain.ErrSprintNotFound); err != nil {
		return err
	}

	slog.Info("Sprint deleted from DB", "sprint_id", sprintID)
	return nil
}

// ========================================
// SettingsRepository Methods
// ========================================

func (r *Repository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.db.GetContext(ctx, &settings, `
		SELECT velocity_periods, working_days_per_sprint, round_to_fibonacci, selected_country
		FROM settings
		WHERE id = 1
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := domain.DefaultSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, velocity_periods, working_days_per_sprint, round_to_fibonacci, selected_country)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			velocity_periods = EXCLUDED.velocity_periods,
			working_days_per_sprint = EXCLUDED.working_days_per_sprint,
			round_to_fibonacci = EXCLUDED.round_to_fibonacci,
			selected_country = EXCLUDED.selected_country,
			updated_at = NOW()
	`, settings.VelocityPeriods, settings.WorkingDaysPerSprint, settings.RoundToFibonacci, settings.SelectedCountry)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Info("Settings saved in DB", "velocity_periods", settings.VelocityPeriods)
	return nil
}

// ========================================
// Helpers
// ========================================

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// ========================================
// Compile-time interface check
// ========================================

var _ RepositoryInterface = (*Repository)(nil)
