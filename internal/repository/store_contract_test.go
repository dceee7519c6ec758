package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// runStoreContract проверяет поведение, общее для файловых и Redis хранилищ.
func runStoreContract(t *testing.T, newStore func(t *testing.T) RepositoryInterface) {
	t.Run("members round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		members, err := store.ListMembers(ctx)
		require.NoError(t, err)
		assert.Empty(t, members)

		member := domain.TeamMember{ID: uuid.New(), Name: "Sai Teja Kumar REPALLE", Role: "SDET", Capacity: 1, Active: true, Country: "France"}
		require.NoError(t, store.CreateMember(ctx, &member))
		assert.ErrorIs(t, store.CreateMember(ctx, &member), domain.ErrMemberExists)

		member.DaysOff = 2
		member.Capacity = 0.5
		require.NoError(t, store.UpdateMember(ctx, &member))

		got, err := store.GetMember(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, member, *got)

		require.NoError(t, store.SetMemberActive(ctx, member.ID, false))
		got, err = store.GetMember(ctx, member.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		require.NoError(t, store.DeleteMember(ctx, member.ID))
		_, err = store.GetMember(ctx, member.ID)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})

	t.Run("missing member", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		ghost := domain.TeamMember{ID: uuid.New(), Name: "ghost", Capacity: 1}

		assert.ErrorIs(t, store.UpdateMember(ctx, &ghost), domain.ErrMemberNotFound)
		assert.ErrorIs(t, store.DeleteMember(ctx, ghost.ID), domain.ErrMemberNotFound)
		assert.ErrorIs(t, store.SetMemberActive(ctx, ghost.ID, true), domain.ErrMemberNotFound)
	})

	t.Run("sprints stay chronological", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		later := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 42", SprintNumber: 42, StartDate: "2023-02-27", EndDate: "2023-03-12", Planned: 32, Completed: 28, TeamCapacity: 80}
		earlier := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 41", SprintNumber: 41, StartDate: "2023-02-13", EndDate: "2023-02-26", Planned: 32, Completed: 30, TeamCapacity: 90}
		require.NoError(t, store.CreateSprint(ctx, &later))
		require.NoError(t, store.CreateSprint(ctx, &earlier))

		sprints, err := store.ListSprints(ctx)
		require.NoError(t, err)
		require.Len(t, sprints, 2)
		assert.Equal(t, "Sprint 41", sprints[0].Sprint)
		assert.Equal(t, "Sprint 42", sprints[1].Sprint)
	})

	t.Run("sprint number is unique", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 7", SprintNumber: 7, StartDate: "2023-01-02", EndDate: "2023-01-15", TeamCapacity: 100}
		dup := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 7 again", SprintNumber: 7, StartDate: "2023-01-16", EndDate: "2023-01-29", TeamCapacity: 100}
		require.NoError(t, store.CreateSprint(ctx, &first))
		assert.ErrorIs(t, store.CreateSprint(ctx, &dup), domain.ErrSprintExists)

		second := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 8", SprintNumber: 8, StartDate: "2023-01-16", EndDate: "2023-01-29", TeamCapacity: 100}
		require.NoError(t, store.CreateSprint(ctx, &second))
		second.SprintNumber = 7
		assert.ErrorIs(t, store.UpdateSprint(ctx, &second), domain.ErrSprintExists)
	})

	t.Run("sprint actual points persist", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		sprint := domain.SprintHistoryEntry{ID: uuid.New(), Sprint: "Sprint 1", SprintNumber: 1, StartDate: "2023-01-02", EndDate: "2023-01-15", Planned: 20, Completed: 18, TeamCapacity: 100}
		require.NoError(t, store.CreateSprint(ctx, &sprint))

		actual := 18
		velocity := 0.36
		sprint.ActualPoints = &actual
		sprint.Velocity = &velocity
		require.NoError(t, store.UpdateSprint(ctx, &sprint))

		got, err := store.GetSprint(ctx, sprint.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ActualPoints)
		require.NotNil(t, got.Velocity)
		assert.Equal(t, 18, *got.ActualPoints)
		assert.InDelta(t, 0.36, *got.Velocity, 1e-9)

		require.NoError(t, store.DeleteSprint(ctx, sprint.ID))
		assert.ErrorIs(t, store.DeleteSprint(ctx, sprint.ID), domain.ErrSprintNotFound)
	})

	t.Run("settings default then saved", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		settings, err := store.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSettings(), *settings)

		updated := domain.Settings{VelocityPeriods: 5, WorkingDaysPerSprint: 9, RoundToFibonacci: false, SelectedCountry: "Spain"}
		require.NoError(t, store.SaveSettings(ctx, &updated))

		settings, err = store.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, updated, *settings)
	})
}
