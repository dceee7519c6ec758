package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/T1mof/sprint-planner/internal/domain"
)

type TeamRepository interface {
	ListMembers(ctx context.Context) ([]domain.TeamMember, error)
	GetMember(ctx context.Context, memberID uuid.UUID) (*domain.TeamMember, error)
	CreateMember(ctx context.Context, member *domain.TeamMember) error
	UpdateMember(ctx context.Context, member *domain.TeamMember) error
	DeleteMember(ctx context.Context, memberID uuid.UUID) error
	SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) error
}

// SprintRepository хранит историю спринтов. ListSprints возвращает её
// в хронологическом порядке (start_date, затем номер спринта).
type SprintRepository interface {
	ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error)
	GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.SprintHistoryEntry, error)
	CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error
	UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error
	DeleteSprint(ctx context.Context, sprintID uuid.UUID) error
}

// SettingsRepository возвращает настройки по умолчанию, если они ещё не сохранены.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}

// RepositoryInterface объединяет все интерфейсы.
type RepositoryInterface interface {
	TeamRepository
	SprintRepository
	SettingsRepository
}
