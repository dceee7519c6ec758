package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/T1mof/sprint-planner/internal/calculator"
	"github.com/T1mof/sprint-planner/internal/domain"
	"github.com/T1mof/sprint-planner/internal/holiday"
	"github.com/T1mof/sprint-planner/internal/metrics"
	"github.com/T1mof/sprint-planner/internal/repository"
)

// sprintLengthDays длина окна спринта по умолчанию: две недели включительно.
const sprintLengthDays = 13

type PlannerService struct {
	repo      repository.RepositoryInterface
	calendar  *holiday.Calendar
	validator *domain.Validator
	now       func() time.Time
}

func NewPlannerService(repo repository.RepositoryInterface, calendar *holiday.Calendar) *PlannerService {
	return &PlannerService{
		repo:      repo,
		calendar:  calendar,
		validator: domain.NewValidator(),
		now:       time.Now,
	}
}

// ========================================
// Team Methods
// ========================================

func (s *PlannerService) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		recordStorageError("list_members", err)
		slog.Error("Failed to list team members", "error", err)
		return nil, err
	}
	return members, nil
}

func (s *PlannerService) CreateMember(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	member.Name = strings.TrimSpace(member.Name)
	if member.Country == "" {
		member.Country = domain.DefaultCountry
	}

	if err := s.validator.ValidateTeamMember(member); err != nil {
		slog.Warn("Team member validation failed", "name", member.Name, "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.CreateMember(ctx, member); err != nil {
		recordStorageError("create_member", err)
		slog.Error("Failed to create team member", "member_id", member.ID, "error", err)
		return nil, err
	}

	slog.Info("Team member created", "member_id", member.ID, "name", member.Name, "active", member.Active)
	return member, nil
}

func (s *PlannerService) UpdateMember(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	if member.ID == uuid.Nil {
		return nil, validationError(errors.New("member id cannot be nil UUID"))
	}
	member.Name = strings.TrimSpace(member.Name)

	if err := s.validator.ValidateTeamMember(member); err != nil {
		slog.Warn("Team member validation failed", "member_id", member.ID, "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.UpdateMember(ctx, member); err != nil {
		recordStorageError("update_member", err)
		slog.Error("Failed to update team member", "member_id", member.ID, "error", err)
		return nil, err
	}

	slog.Info("Team member updated", "member_id", member.ID)
	return member, nil
}

func (s *PlannerService) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	if err := s.repo.DeleteMember(ctx, memberID); err != nil {
		recordStorageError("delete_member", err)
		slog.Error("Failed to delete team member", "member_id", memberID, "error", err)
		return err
	}

	slog.Info("Team member deleted", "member_id", memberID)
	return nil
}

func (s *PlannerService) SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) (*domain.TeamMember, error) {
	if err := s.repo.SetMemberActive(ctx, memberID, active); err != nil {
		recordStorageError("set_member_active", err)
		slog.Error("Failed to set member active", "member_id", memberID, "active", active, "error", err)
		return nil, err
	}

	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		recordStorageError("get_member", err)
		slog.Error("Failed to get team member", "member_id", memberID, "error", err)
		return nil, err
	}

	slog.Info("Member active status updated", "member_id", memberID, "active", active)
	return member, nil
}

// ========================================
// Sprint Methods
// ========================================

func (s *PlannerService) ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error) {
	sprints, err := s.repo.ListSprints(ctx)
	if err != nil {
		recordStorageError("list_sprints", err)
		slog.Error("Failed to list sprints", "error", err)
		return nil, err
	}
	return sprints, nil
}

// CreateSprint добавляет спринт в историю. Без номера и подписи спринт получает
// следующий номер после максимального известного.
func (s *PlannerService) CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) (*domain.SprintHistoryEntry, error) {
	if sprint.ID == uuid.Nil {
		sprint.ID = uuid.New()
	}
	sprint.Sprint = strings.TrimSpace(sprint.Sprint)

	if sprint.SprintNumber == 0 {
		sprint.SprintNumber = domain.ParseSprintNumber(sprint.Sprint)
	}
	if sprint.SprintNumber == 0 {
		history, err := s.repo.ListSprints(ctx)
		if err != nil {
			recordStorageError("list_sprints", err)
			slog.Error("Failed to list sprints", "error", err)
			return nil, err
		}
		sprint.SprintNumber = nextSprintNumber(history)
	}
	if sprint.Sprint == "" {
		sprint.Sprint = domain.NewSprintID(sprint.SprintNumber).Label
	}

	if err := s.validator.ValidateSprint(sprint); err != nil {
		slog.Warn("Sprint validation failed", "sprint", sprint.Sprint, "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.CreateSprint(ctx, sprint); err != nil {
		recordStorageError("create_sprint", err)
		slog.Error("Failed to create sprint", "sprint_id", sprint.ID, "sprint_number", sprint.SprintNumber, "error", err)
		return nil, err
	}

	slog.Info("Sprint created", "sprint_id", sprint.ID, "sprint", sprint.Sprint, "sprint_number", sprint.SprintNumber)
	return sprint, nil
}

func (s *PlannerService) UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) (*domain.SprintHistoryEntry, error) {
	if sprint.ID == uuid.Nil {
		return nil, validationError(errors.New("sprint id cannot be nil UUID"))
	}
	sprint.Sprint = strings.TrimSpace(sprint.Sprint)
	if sprint.SprintNumber == 0 {
		sprint.SprintNumber = domain.ParseSprintNumber(sprint.Sprint)
	}

	if err := s.validator.ValidateSprint(sprint); err != nil {
		slog.Warn("Sprint validation failed", "sprint_id", sprint.ID, "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.UpdateSprint(ctx, sprint); err != nil {
		recordStorageError("update_sprint", err)
		slog.Error("Failed to update sprint", "sprint_id", sprint.ID, "error", err)
		return nil, err
	}

	slog.Info("Sprint updated", "sprint_id", sprint.ID)
	return sprint, nil
}

func (s *PlannerService) DeleteSprint(ctx context.Context, sprintID uuid.UUID) error {
	if err := s.repo.DeleteSprint(ctx, sprintID); err != nil {
		recordStorageError("delete_sprint", err)
		slog.Error("Failed to delete sprint", "sprint_id", sprintID, "error", err)
		return err
	}

	slog.Info("Sprint deleted", "sprint_id", sprintID)
	return nil
}

// RecordActualPoints сохраняет фактически выполненные очки спринта и скорость
// (очки на человеко-день) с учетом праздников выбранной страны в окне спринта.
func (s *PlannerService) RecordActualPoints(ctx context.Context, sprintID uuid.UUID, actualPoints int) (*domain.SprintHistoryEntry, error) {
	if actualPoints < 0 {
		return nil, validationError(errors.New("actual_points cannot be negative"))
	}

	sprint, err := s.repo.GetSprint(ctx, sprintID)
	if err != nil {
		recordStorageError("get_sprint", err)
		slog.Error("Failed to get sprint", "sprint_id", sprintID, "error", err)
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		recordStorageError("get_settings", err)
		slog.Error("Failed to get settings", "error", err)
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		recordStorageError("list_members", err)
		slog.Error("Failed to list team members", "error", err)
		return nil, err
	}

	start, end, err := s.parseWindow(sprint.StartDate, sprint.EndDate)
	if err != nil {
		slog.Warn("Stored sprint has invalid dates", "sprint_id", sprintID, "error", err)
		return nil, err
	}

	holidays := s.calendar.CountInRange(settings.SelectedCountry, start, end)
	manDays := calculator.TotalSprintManDays(members, settings.WorkingDaysPerSprint, holidays)
	velocity := calculator.SprintVelocity(float64(actualPoints), manDays)

	sprint.ActualPoints = &actualPoints
	sprint.Velocity = &velocity

	if err := s.repo.UpdateSprint(ctx, sprint); err != nil {
		recordStorageError("update_sprint", err)
		slog.Error("Failed to save actual points", "sprint_id", sprintID, "error", err)
		return nil, err
	}

	slog.Info("Actual points recorded",
		"sprint_id", sprintID,
		"actual_points", actualPoints,
		"man_days", manDays,
		"public_holidays", holidays,
		"velocity", velocity,
	)
	return sprint, nil
}

// ========================================
// Settings Methods
// ========================================

func (s *PlannerService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		recordStorageError("get_settings", err)
		slog.Error("Failed to get settings", "error", err)
		return nil, err
	}
	return settings, nil
}

func (s *PlannerService) UpdateSettings(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	settings.SelectedCountry = strings.TrimSpace(settings.SelectedCountry)
	if settings.SelectedCountry == "" {
		settings.SelectedCountry = domain.DefaultCountry
	}

	if err := s.validator.ValidateSettings(settings); err != nil {
		slog.Warn("Settings validation failed", "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		recordStorageError("save_settings", err)
		slog.Error("Failed to save settings", "error", err)
		return nil, err
	}

	slog.Info("Settings updated",
		"velocity_periods", settings.VelocityPeriods,
		"working_days_per_sprint", settings.WorkingDaysPerSprint,
		"round_to_fibonacci", settings.RoundToFibonacci,
		"selected_country", settings.SelectedCountry,
	)
	return settings, nil
}

// ========================================
// Holiday Methods
// ========================================

func (s *PlannerService) ListHolidays(_ context.Context, country string) ([]domain.PublicHoliday, error) {
	if strings.TrimSpace(country) == "" {
		return nil, validationError(errors.New("country is required"))
	}
	return s.calendar.ForCountry(country), nil
}

func (s *PlannerService) CountHolidays(_ context.Context, country, startDate, endDate string) (int, error) {
	if strings.TrimSpace(country) == "" {
		return 0, validationError(errors.New("country is required"))
	}

	start, end, err := s.parseWindow(startDate, endDate)
	if err != nil {
		return 0, err
	}
	return s.calendar.CountInRange(country, start, end), nil
}

// ========================================
// Planning Methods
// ========================================

// PlanNextSprint собирает предложение для следующего спринта. Пустые даты заменяются
// окном от сегодняшнего дня длиной две недели.
func (s *PlannerService) PlanNextSprint(ctx context.Context, startDate, endDate string) (*domain.SprintPlan, error) {
	start, end, err := s.planWindow(startDate, endDate)
	if err != nil {
		slog.Warn("Invalid plan window", "start_date", startDate, "end_date", endDate, "error", err)
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		recordStorageError("get_settings", err)
		slog.Error("Failed to get settings", "error", err)
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		recordStorageError("list_members", err)
		slog.Error("Failed to list team members", "error", err)
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	history, err := s.repo.ListSprints(ctx)
	if err != nil {
		recordStorageError("list_sprints", err)
		slog.Error("Failed to list sprints", "error", err)
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}

	holidays := s.calendar.CountInRange(settings.SelectedCountry, start, end)
	capacity := math.Round(calculator.TeamCapacity(members, settings.WorkingDaysPerSprint, holidays))
	manDays := calculator.TotalSprintManDays(members, settings.WorkingDaysPerSprint, holidays)
	opts := settings.CalculationOptions()

	plan := &domain.SprintPlan{
		Sprint:              domain.NewSprintID(nextSprintNumber(history)),
		StartDate:           start.Format(domain.DateLayout),
		EndDate:             end.Format(domain.DateLayout),
		Country:             settings.SelectedCountry,
		WorkingDays:         settings.WorkingDaysPerSprint,
		CalendarWorkingDays: holiday.WorkingDays(start, end),
		PublicHolidays:      holidays,
		ActiveMembers:       countActive(members),
		TeamCapacity:        int(capacity),
		TotalManDays:        manDays,
		AverageVelocity:     calculator.AverageVelocity(history, opts.VelocityPeriods),
		RecommendedPoints:   calculator.RecommendedPoints(history, capacity, opts),
	}

	if velocity, ok := calculator.LastRecordedVelocity(history); ok {
		expected := calculator.ExpectedPoints(velocity, manDays)
		plan.LastVelocity = &velocity
		plan.ExpectedPoints = &expected
	}

	metrics.PlansGenerated.Inc()
	metrics.RecommendedPoints.Observe(float64(plan.RecommendedPoints))

	slog.Info("Sprint plan generated",
		"sprint", plan.Sprint.Label,
		"team_capacity", plan.TeamCapacity,
		"public_holidays", holidays,
		"recommended_points", plan.RecommendedPoints,
	)
	return plan, nil
}

// CalculateCapacity считает емкость для переданного состава без обращения к хранилищу.
func (s *PlannerService) CalculateCapacity(members []domain.TeamMember, workingDays, publicHolidays int) (*domain.CapacityResult, error) {
	if workingDays < 1 {
		return nil, validationError(errors.New("working days per sprint must be at least 1"))
	}
	if publicHolidays < 0 {
		return nil, validationError(errors.New("public holidays cannot be negative"))
	}
	for i := range members {
		if err := s.validator.ValidateTeamMember(&members[i]); err != nil {
			return nil, validationError(fmt.Errorf("member %d: %w", i, err))
		}
	}

	return &domain.CapacityResult{
		WorkingDays:    workingDays,
		PublicHolidays: publicHolidays,
		ActiveMembers:  countActive(members),
		TeamCapacity:   calculator.TeamCapacity(members, workingDays, publicHolidays),
		TotalManDays:   calculator.TotalSprintManDays(members, workingDays, publicHolidays),
	}, nil
}

func (s *PlannerService) CalculateRecommendation(history []domain.SprintHistoryEntry, teamCapacity float64, opts domain.CalculationOptions) (int, error) {
	if opts.VelocityPeriods < 1 {
		return 0, validationError(errors.New("velocity periods must be at least 1"))
	}
	if teamCapacity < 0 || math.IsNaN(teamCapacity) || math.IsInf(teamCapacity, 0) {
		return 0, validationError(errors.New("team capacity must be a non-negative number"))
	}
	for _, h := range history {
		if h.Completed < 0 {
			return 0, validationError(errors.New("completed points cannot be negative"))
		}
	}

	points := calculator.RecommendedPoints(history, teamCapacity, opts)
	metrics.RecommendedPoints.Observe(float64(points))
	return points, nil
}

// GetStatistics возвращает статистику для дашборда.
func (s *PlannerService) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		recordStorageError("list_members", err)
		slog.Error("Failed to list team members", "error", err)
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	history, err := s.repo.ListSprints(ctx)
	if err != nil {
		recordStorageError("list_sprints", err)
		slog.Error("Failed to list sprints", "error", err)
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		recordStorageError("get_settings", err)
		slog.Error("Failed to get settings", "error", err)
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	stats := &domain.Statistics{
		Team: domain.TeamStats{
			TotalMembers:  len(members),
			ActiveMembers: countActive(members),
		},
		TotalSprints:    len(history),
		AverageVelocity: calculator.AverageVelocity(history, settings.VelocityPeriods),
		Completion:      make([]domain.SprintCompletion, 0, len(history)),
	}

	for _, m := range members {
		if m.Active {
			stats.Team.ActiveCapacity += m.Capacity
		}
	}

	for _, h := range history {
		if h.Completed > stats.MaxCompletedPoints {
			stats.MaxCompletedPoints = h.Completed
		}
		stats.Completion = append(stats.Completion, domain.SprintCompletion{
			SprintID:          h.ID,
			Sprint:            h.Sprint,
			Planned:           h.Planned,
			Completed:         h.Completed,
			CompletionPercent: completionPercent(h.Planned, h.Completed),
		})
	}

	slog.Info("Statistics retrieved",
		"total_members", stats.Team.TotalMembers,
		"total_sprints", stats.TotalSprints,
	)
	return stats, nil
}

// ========================================
// Helper Methods
// ========================================

func (s *PlannerService) parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := s.validator.ValidateDate(startDate, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, validationError(err)
	}
	end, err := s.validator.ValidateDate(endDate, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, validationError(err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, validationError(errors.New("end_date cannot be before start_date"))
	}
	return start, end, nil
}

func (s *PlannerService) planWindow(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" {
		now := s.now()
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)
	}
	if endDate == "" {
		start, err := s.validator.ValidateDate(startDate, "start_date")
		if err != nil {
			return time.Time{}, time.Time{}, validationError(err)
		}
		endDate = start.AddDate(0, 0, sprintLengthDays).Format(domain.DateLayout)
	}
	return s.parseWindow(startDate, endDate)
}

// recordStorageError учитывает сбой хранилища в метриках. Ошибки домена не считаются.
func recordStorageError(operation string, err error) {
	switch {
	case errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrSprintNotFound),
		errors.Is(err, domain.ErrMemberExists),
		errors.Is(err, domain.ErrSprintExists):
		return
	}
	metrics.StorageErrors.WithLabelValues(operation).Inc()
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

func nextSprintNumber(history []domain.SprintHistoryEntry) int {
	maxNumber := 0
	for _, h := range history {
		if n := h.Identifier().Number; n > maxNumber {
			maxNumber = n
		}
	}
	return maxNumber + 1
}

func countActive(members []domain.TeamMember) int {
	count := 0
	for _, m := range members {
		if m.Active {
			count++
		}
	}
	return count
}

// completionPercent процент выполнения плана, 0 если план не задан.
func completionPercent(planned, completed int) int {
	if planned <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(planned) * 100))
}
