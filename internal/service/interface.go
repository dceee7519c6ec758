package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// ServiceInterface определяет методы бизнес-логики.
type ServiceInterface interface {
	ListMembers(ctx context.Context) ([]domain.TeamMember, error)
	CreateMember(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error)
	UpdateMember(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error)
	DeleteMember(ctx context.Context, memberID uuid.UUID) error
	SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) (*domain.TeamMember, error)

	ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error)
	CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) (*domain.SprintHistoryEntry, error)
	UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) (*domain.SprintHistoryEntry, error)
	DeleteSprint(ctx context.Context, sprintID uuid.UUID) error
	RecordActualPoints(ctx context.Context, sprintID uuid.UUID, actualPoints int) (*domain.SprintHistoryEntry, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, settings *domain.Settings) (*domain.Settings, error)

	ListHolidays(ctx context.Context, country string) ([]domain.PublicHoliday, error)
	CountHolidays(ctx context.Context, country, startDate, endDate string) (int, error)

	PlanNextSprint(ctx context.Context, startDate, endDate string) (*domain.SprintPlan, error)
	CalculateCapacity(members []domain.TeamMember, workingDays, publicHolidays int) (*domain.CapacityResult, error)
	CalculateRecommendation(history []domain.SprintHistoryEntry, teamCapacity float64, opts domain.CalculationOptions) (int, error)
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
}

// Compile-time проверка.
var _ ServiceInterface = (*PlannerService)(nil)
