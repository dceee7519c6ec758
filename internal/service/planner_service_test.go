package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/T1mof/sprint-planner/internal/domain"
	"github.com/T1mof/sprint-planner/internal/holiday"
	"github.com/T1mof/sprint-planner/internal/metrics"
)

// ========================================
// Mock Repository
// ========================================

type MockRepository struct {
	mock.Mock
}

// TeamRepository methods.
func (m *MockRepository) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TeamMember), args.Error(1)
}

func (m *MockRepository) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.TeamMember, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamMember), args.Error(1)
}

func (m *MockRepository) CreateMember(ctx context.Context, member *domain.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRepository) UpdateMember(ctx context.Context, member *domain.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRepository) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockRepository) SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) error {
	args := m.Called(ctx, memberID, active)
	return args.Error(0)
}

// SprintRepository methods.
func (m *MockRepository) ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SprintHistoryEntry), args.Error(1)
}

func (m *MockRepository) GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.SprintHistoryEntry, error) {
	args := m.Called(ctx, sprintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SprintHistoryEntry), args.Error(1)
}

func (m *MockRepository) CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	args := m.Called(ctx, sprint)
	return args.Error(0)
}

func (m *MockRepository) UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	args := m.Called(ctx, sprint)
	return args.Error(0)
}

func (m *MockRepository) DeleteSprint(ctx context.Context, sprintID uuid.UUID) error {
	args := m.Called(ctx, sprintID)
	return args.Error(0)
}

// SettingsRepository methods.
func (m *MockRepository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settings), args.Error(1)
}

func (m *MockRepository) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// ========================================
// Fixtures
// ========================================

func newTestService(repo *MockRepository) *PlannerService {
	return NewPlannerService(repo, holiday.Default())
}

func defaultSettings() *domain.Settings {
	s := domain.DefaultSettings()
	return &s
}

func testRoster() []domain.TeamMember {
	return []domain.TeamMember{
		{ID: uuid.New(), Name: "Luis ALVINS", Capacity: 1, Active: true, Country: "France"},
		{ID: uuid.New(), Name: "Aishwarya RAMESH", Capacity: 0.5, DaysOff: 3, Active: true, Country: "France"},
		{ID: uuid.New(), Name: "Marcel OLARU", Capacity: 1, Active: false, Country: "France"},
	}
}

func testHistory() []domain.SprintHistoryEntry {
	completed := []int{24, 32, 28, 30, 28}
	history := make([]domain.SprintHistoryEntry, len(completed))
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range completed {
		history[i] = domain.SprintHistoryEntry{
			ID:           uuid.New(),
			Sprint:       domain.NewSprintID(i + 1).Label,
			SprintNumber: i + 1,
			StartDate:    start.AddDate(0, 0, 14*i).Format(domain.DateLayout),
			EndDate:      start.AddDate(0, 0, 14*i+13).Format(domain.DateLayout),
			Planned:      32,
			Completed:    c,
			TeamCapacity: 100,
		}
	}
	return history
}

// ========================================
// Team Tests
// ========================================

func TestCreateMember_Success(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	member := &domain.TeamMember{Name: "  Sai Teja Kumar REPALLE ", Role: "SDET", Capacity: 1, Active: true}
	mockRepo.On("CreateMember", mock.Anything, member).Return(nil)

	created, err := service.CreateMember(context.Background(), member)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Sai Teja Kumar REPALLE", created.Name)
	assert.Equal(t, domain.DefaultCountry, created.Country)
	mockRepo.AssertExpectations(t)
}

func TestCreateMember_ValidationError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.CreateMember(context.Background(), &domain.TeamMember{Name: "", Capacity: 1})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
	mockRepo.AssertNotCalled(t, "CreateMember", mock.Anything, mock.Anything)
}

func TestCreateMember_CapacityOutOfRange(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.CreateMember(context.Background(), &domain.TeamMember{Name: "Bob", Capacity: 1.5})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateMember_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	member := &domain.TeamMember{ID: uuid.New(), Name: "Bob", Capacity: 1}
	mockRepo.On("UpdateMember", mock.Anything, member).Return(domain.ErrMemberNotFound)

	_, err := service.UpdateMember(context.Background(), member)

	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	mockRepo.AssertExpectations(t)
}

func TestUpdateMember_NilID(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.UpdateMember(context.Background(), &domain.TeamMember{Name: "Bob", Capacity: 1})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetMemberActive_Success(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	memberID := uuid.New()
	expected := &domain.TeamMember{ID: memberID, Name: "Alice", Capacity: 1, Active: false}
	mockRepo.On("SetMemberActive", mock.Anything, memberID, false).Return(nil)
	mockRepo.On("GetMember", mock.Anything, memberID).Return(expected, nil)

	member, err := service.SetMemberActive(context.Background(), memberID, false)

	require.NoError(t, err)
	assert.False(t, member.Active)
	mockRepo.AssertExpectations(t)
}

func TestDeleteMember_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	memberID := uuid.New()
	mockRepo.On("DeleteMember", mock.Anything, memberID).Return(errors.New("db down"))

	err := service.DeleteMember(context.Background(), memberID)

	assert.EqualError(t, err, "db down")
}

func TestRepositoryFailures_CountedAsStorageErrors(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	sprintID := uuid.New()
	mockRepo.On("GetSprint", mock.Anything, sprintID).Return(nil, errors.New("db down"))
	mockRepo.On("ListMembers", mock.Anything).Return(nil, errors.New("db down"))

	getSprint := metrics.StorageErrors.WithLabelValues("get_sprint")
	listMembers := metrics.StorageErrors.WithLabelValues("list_members")
	beforeGet := testutil.ToFloat64(getSprint)
	beforeList := testutil.ToFloat64(listMembers)

	_, err := service.RecordActualPoints(context.Background(), sprintID, 10)
	require.Error(t, err)
	_, err = service.GetStatistics(context.Background())
	require.Error(t, err)

	assert.Equal(t, beforeGet+1, testutil.ToFloat64(getSprint))
	assert.Equal(t, beforeList+1, testutil.ToFloat64(listMembers))
}

func TestDomainErrors_NotCountedAsStorageErrors(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	memberID := uuid.New()
	mockRepo.On("DeleteMember", mock.Anything, memberID).Return(domain.ErrMemberNotFound)

	deleteMember := metrics.StorageErrors.WithLabelValues("delete_member")
	before := testutil.ToFloat64(deleteMember)

	err := service.DeleteMember(context.Background(), memberID)

	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	assert.Equal(t, before, testutil.ToFloat64(deleteMember))
}

// ========================================
// Sprint Tests
// ========================================

func TestCreateSprint_DefaultsToNextNumber(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("ListSprints", mock.Anything).Return(testHistory(), nil)
	mockRepo.On("CreateSprint", mock.Anything, mock.AnythingOfType("*domain.SprintHistoryEntry")).Return(nil)

	sprint, err := service.CreateSprint(context.Background(), &domain.SprintHistoryEntry{
		StartDate: "2023-03-13",
		EndDate:   "2023-03-26",
		Planned:   30,
	})

	require.NoError(t, err)
	assert.Equal(t, 6, sprint.SprintNumber)
	assert.Equal(t, "Sprint 6", sprint.Sprint)
	assert.NotEqual(t, uuid.Nil, sprint.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateSprint_FirstSprint(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("ListSprints", mock.Anything).Return([]domain.SprintHistoryEntry{}, nil)
	mockRepo.On("CreateSprint", mock.Anything, mock.Anything).Return(nil)

	sprint, err := service.CreateSprint(context.Background(), &domain.SprintHistoryEntry{
		StartDate: "2023-01-02",
		EndDate:   "2023-01-15",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.NewSprintID(1), sprint.Identifier())
}

func TestCreateSprint_NumberFromLabel(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("CreateSprint", mock.Anything, mock.Anything).Return(nil)

	sprint, err := service.CreateSprint(context.Background(), &domain.SprintHistoryEntry{
		Sprint:    "Sprint 42",
		StartDate: "2023-02-27",
		EndDate:   "2023-03-12",
	})

	require.NoError(t, err)
	assert.Equal(t, 42, sprint.SprintNumber)
	mockRepo.AssertNotCalled(t, "ListSprints", mock.Anything)
}

func TestCreateSprint_EndBeforeStart(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.CreateSprint(context.Background(), &domain.SprintHistoryEntry{
		Sprint:    "Sprint 3",
		StartDate: "2023-02-27",
		EndDate:   "2023-02-20",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "end_date cannot be before start_date")
}

func TestCreateSprint_Duplicate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("CreateSprint", mock.Anything, mock.Anything).Return(domain.ErrSprintExists)

	_, err := service.CreateSprint(context.Background(), &domain.SprintHistoryEntry{
		Sprint:    "Sprint 5",
		StartDate: "2023-02-27",
		EndDate:   "2023-03-12",
	})

	assert.ErrorIs(t, err, domain.ErrSprintExists)
}

func TestRecordActualPoints_ComputesVelocity(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	sprintID := uuid.New()
	sprint := &domain.SprintHistoryEntry{
		ID: sprintID, Sprint: "Sprint 7", SprintNumber: 7,
		StartDate: "2023-04-03", EndDate: "2023-04-16",
		Planned: 30, Completed: 24, TeamCapacity: 89,
	}

	mockRepo.On("GetSprint", mock.Anything, sprintID).Return(sprint, nil)
	mockRepo.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)
	mockRepo.On("ListMembers", mock.Anything).Return(testRoster(), nil)
	mockRepo.On("UpdateSprint", mock.Anything, mock.MatchedBy(func(s *domain.SprintHistoryEntry) bool {
		return s.ID == sprintID && s.ActualPoints != nil && *s.ActualPoints == 24
	})).Return(nil)

	updated, err := service.RecordActualPoints(context.Background(), sprintID, 24)

	require.NoError(t, err)
	// Easter Monday is the only French holiday in the window: 9 days, 9 + (9-3)*0.5 = 12 man-days.
	require.NotNil(t, updated.Velocity)
	assert.InDelta(t, 2.0, *updated.Velocity, 1e-9)
	assert.Equal(t, 24, updated.Completed, "completed points are not overwritten")
	mockRepo.AssertExpectations(t)
}

func TestRecordActualPoints_Negative(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.RecordActualPoints(context.Background(), uuid.New(), -1)

	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "GetSprint", mock.Anything, mock.Anything)
}

func TestRecordActualPoints_SprintNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	sprintID := uuid.New()
	mockRepo.On("GetSprint", mock.Anything, sprintID).Return(nil, domain.ErrSprintNotFound)

	_, err := service.RecordActualPoints(context.Background(), sprintID, 10)

	assert.ErrorIs(t, err, domain.ErrSprintNotFound)
}

// ========================================
// Settings Tests
// ========================================

func TestUpdateSettings_Validation(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.Settings
		message  string
	}{
		{"zero periods", domain.Settings{VelocityPeriods: 0, WorkingDaysPerSprint: 10}, "velocity periods must be at least 1"},
		{"zero working days", domain.Settings{VelocityPeriods: 3, WorkingDaysPerSprint: 0}, "working days per sprint must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)

			_, err := service.UpdateSettings(context.Background(), &tt.settings)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
			mockRepo.AssertNotCalled(t, "SaveSettings", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateSettings_DefaultsCountry(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("SaveSettings", mock.Anything, mock.Anything).Return(nil)

	saved, err := service.UpdateSettings(context.Background(), &domain.Settings{VelocityPeriods: 4, WorkingDaysPerSprint: 8})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCountry, saved.SelectedCountry)
	mockRepo.AssertExpectations(t)
}

// ========================================
// Holiday Tests
// ========================================

func TestListHolidays(t *testing.T) {
	service := newTestService(new(MockRepository))

	holidays, err := service.ListHolidays(context.Background(), "Germany")
	require.NoError(t, err)
	assert.NotEmpty(t, holidays)
	for _, h := range holidays {
		assert.Equal(t, "Germany", h.Country)
	}

	_, err = service.ListHolidays(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCountHolidays(t *testing.T) {
	service := newTestService(new(MockRepository))

	count, err := service.CountHolidays(context.Background(), "France", "2023-05-01", "2023-05-31")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = service.CountHolidays(context.Background(), "France", "2023-05-31", "2023-05-01")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.CountHolidays(context.Background(), "France", "May 1st", "2023-05-31")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ========================================
// Planning Tests
// ========================================

func TestPlanNextSprint(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	history := testHistory()
	velocity := 2.0
	history[len(history)-1].Velocity = &velocity

	mockRepo.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)
	mockRepo.On("ListMembers", mock.Anything).Return(testRoster(), nil)
	mockRepo.On("ListSprints", mock.Anything).Return(history, nil)

	plan, err := service.PlanNextSprint(context.Background(), "2023-04-03", "2023-04-16")

	require.NoError(t, err)
	assert.Equal(t, domain.NewSprintID(6), plan.Sprint)
	assert.Equal(t, "France", plan.Country)
	assert.Equal(t, 1, plan.PublicHolidays)
	assert.Equal(t, 10, plan.CalendarWorkingDays)
	assert.Equal(t, 2, plan.ActiveMembers)
	assert.Equal(t, 89, plan.TeamCapacity)
	assert.InDelta(t, 12.0, plan.TotalManDays, 1e-9)
	assert.InDelta(t, 28.6667, plan.AverageVelocity, 1e-4)
	// 28.67 * 89% = 25.5, nearest Fibonacci value is 21.
	assert.Equal(t, 21, plan.RecommendedPoints)
	require.NotNil(t, plan.ExpectedPoints)
	assert.Equal(t, 24, *plan.ExpectedPoints)
	mockRepo.AssertExpectations(t)
}

func TestPlanNextSprint_DefaultWindow(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	service.now = func() time.Time { return time.Date(2023, 5, 15, 9, 30, 0, 0, time.UTC) }

	mockRepo.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)
	mockRepo.On("ListMembers", mock.Anything).Return([]domain.TeamMember{}, nil)
	mockRepo.On("ListSprints", mock.Anything).Return([]domain.SprintHistoryEntry{}, nil)

	plan, err := service.PlanNextSprint(context.Background(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "2023-05-15", plan.StartDate)
	assert.Equal(t, "2023-05-28", plan.EndDate)
	assert.Equal(t, 1, plan.PublicHolidays)
	assert.Equal(t, domain.NewSprintID(1), plan.Sprint)
	assert.Equal(t, 0, plan.TeamCapacity)
	assert.Equal(t, 8, plan.RecommendedPoints)
	assert.Nil(t, plan.ExpectedPoints)
}

func TestPlanNextSprint_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("GetSettings", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := service.PlanNextSprint(context.Background(), "2023-04-03", "2023-04-16")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get settings")
}

func TestCalculateCapacity(t *testing.T) {
	service := newTestService(new(MockRepository))

	result, err := service.CalculateCapacity([]domain.TeamMember{
		{Name: "Solo", Capacity: 1, DaysOff: 2, Active: true},
	}, 10, 0)

	require.NoError(t, err)
	assert.InDelta(t, 80.0, result.TeamCapacity, 1e-9)
	assert.InDelta(t, 8.0, result.TotalManDays, 1e-9)
	assert.Equal(t, 1, result.ActiveMembers)

	_, err = service.CalculateCapacity(nil, 0, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.CalculateCapacity(nil, 10, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCalculateRecommendation(t *testing.T) {
	service := newTestService(new(MockRepository))
	opts := domain.CalculationOptions{VelocityPeriods: 3, WorkingDaysPerSprint: 10, RoundToFibonacci: true}

	points, err := service.CalculateRecommendation(testHistory(), 80, opts)
	require.NoError(t, err)
	assert.Equal(t, 21, points)

	points, err = service.CalculateRecommendation(nil, 80, opts)
	require.NoError(t, err)
	assert.Equal(t, 8, points)

	_, err = service.CalculateRecommendation(nil, 80, domain.CalculationOptions{VelocityPeriods: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.CalculateRecommendation(nil, -5, opts)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetStatistics(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	history := []domain.SprintHistoryEntry{
		{ID: uuid.New(), Sprint: "Sprint 1", SprintNumber: 1, StartDate: "2023-01-02", EndDate: "2023-01-15", Planned: 32, Completed: 30},
		{ID: uuid.New(), Sprint: "Sprint 2", SprintNumber: 2, StartDate: "2023-01-16", EndDate: "2023-01-29", Planned: 0, Completed: 5},
	}

	mockRepo.On("ListMembers", mock.Anything).Return(testRoster(), nil)
	mockRepo.On("ListSprints", mock.Anything).Return(history, nil)
	mockRepo.On("GetSettings", mock.Anything).Return(defaultSettings(), nil)

	stats, err := service.GetStatistics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Team.TotalMembers)
	assert.Equal(t, 2, stats.Team.ActiveMembers)
	assert.InDelta(t, 1.5, stats.Team.ActiveCapacity, 1e-9)
	assert.Equal(t, 2, stats.TotalSprints)
	assert.InDelta(t, 17.5, stats.AverageVelocity, 1e-9)
	assert.Equal(t, 30, stats.MaxCompletedPoints)
	require.Len(t, stats.Completion, 2)
	assert.Equal(t, 94, stats.Completion[0].CompletionPercent)
	assert.Equal(t, 0, stats.Completion[1].CompletionPercent)
	mockRepo.AssertExpectations(t)
}

func TestNextSprintNumber_UsesLabelFallback(t *testing.T) {
	history := []domain.SprintHistoryEntry{
		{Sprint: "Sprint 41"},
		{Sprint: "Retro sprint"},
		{Sprint: "Sprint 3", SprintNumber: 3},
	}

	assert.Equal(t, 42, nextSprintNumber(history))
	assert.Equal(t, 1, nextSprintNumber(nil))
}
