package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/T1mof/sprint-planner/internal/domain"
)

const (
	teamMembersKey   = "teamMembers"
	sprintHistoryKey = "sprintHistory"
	settingsKey      = "settings"

	maxTxRetries = 5
)

// RedisStore хранит каждую коллекцию JSON-документом под отдельным ключом.
// Изменения идут через WATCH/MULTI, конфликт повторяется до maxTxRetries раз.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// ========================================
// TeamRepository Methods
// ========================================

func (s *RedisStore) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	members := []domain.TeamMember{}
	if err := s.load(ctx, s.client, teamMembersKey, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *RedisStore) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.TeamMember, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return findMember(members, memberID)
}

func (s *RedisStore) CreateMember(ctx context.Context, member *domain.TeamMember) error {
	return updateCollection(ctx, s, teamMembersKey, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return insertMember(members, *member)
	})
}

func (s *RedisStore) UpdateMember(ctx context.Context, member *domain.TeamMember) error {
	return updateCollection(ctx, s, teamMembersKey, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return replaceMember(members, *member)
	})
}

func (s *RedisStore) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	return updateCollection(ctx, s, teamMembersKey, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return removeMember(members, memberID)
	})
}

func (s *RedisStore) SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) error {
	return updateCollection(ctx, s, teamMembersKey, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		m, err := findMember(members, memberID)
		if err != nil {
			return nil, err
		}
		m.Active = active
		return replaceMember(members, *m)
	})
}

// ========================================
// SprintRepository Methods
// ========================================

func (s *RedisStore) ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error) {
	sprints := []domain.SprintHistoryEntry{}
	if err := s.load(ctx, s.client, sprintHistoryKey, &sprints); err != nil {
		return nil, err
	}
	return chronological(sprints), nil
}

func (s *RedisStore) GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.SprintHistoryEntry, error) {
	sprints, err := s.ListSprints(ctx)
	if err != nil {
		return nil, err
	}
	return findSprint(sprints, sprintID)
}

func (s *RedisStore) CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	return updateCollection(ctx, s, sprintHistoryKey, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return insertSprint(sprints, *sprint)
	})
}

func (s *RedisStore) UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	return updateCollection(ctx, s, sprintHistoryKey, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return replaceSprint(sprints, *sprint)
	})
}

func (s *RedisStore) DeleteSprint(ctx context.Context, sprintID uuid.UUID) error {
	return updateCollection(ctx, s, sprintHistoryKey, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return removeSprint(sprints, sprintID)
	})
}

// ========================================
// SettingsRepository Methods
// ========================================

func (s *RedisStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings := domain.DefaultSettings()
	if err := s.load(ctx, s.client, settingsKey, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.client.Set(ctx, s.key(settingsKey), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ========================================
// Helpers
// ========================================

// getter общий для *redis.Client и *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load декодирует JSON под ключом в dst. Отсутствующий ключ оставляет dst без изменений.
func (s *RedisStore) load(ctx context.Context, c getter, name string, dst any) error {
	data, err := c.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func updateCollection[T any](ctx context.Context, s *RedisStore, name string, fn func([]T) ([]T, error)) error {
	key := s.key(name)

	txf := func(tx *redis.Tx) error {
		items := []T{}
		if err := s.load(ctx, tx, name, &items); err != nil {
			return err
		}

		items, err := fn(items)
		if err != nil {
			return err
		}

		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		slog.Warn("Redis transaction conflict, retrying", "key", key, "attempt", attempt)
	}

	return fmt.Errorf("failed to update %s: %w", name, domain.ErrConflict)
}

var _ RepositoryInterface = (*RedisStore)(nil)
