package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/T1mof/sprint-planner/internal/domain"
)

const (
	teamMembersFile   = "team-members.csv"
	sprintHistoryFile = "sprint-history.csv"
	settingsFile      = "settings.csv"
)

var (
	memberHeader = []string{"id", "name", "role", "capacity", "daysOff", "active", "country"}
	sprintHeader = []string{
		"id", "sprint", "sprintNumber", "startDate", "endDate",
		"planned", "completed", "teamCapacity", "actualPoints", "velocity",
	}
	settingsHeader = []string{"key", "value"}
)

// namespace для детерминированных ID строк, записанных без колонки id.
var legacyRowNamespace = uuid.MustParse("6f1c2f0e-6b1a-4c55-9a8e-3d1f5c7b2a90")

// CSVStore хранит данные в CSV файлах в каталоге dir (по файлу на сущность).
type CSVStore struct {
	dir string
	mu  sync.RWMutex
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

// ========================================
// TeamRepository Methods
// ========================================

func (s *CSVStore) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadMembers()
}

func (s *CSVStore) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.TeamMember, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return findMember(members, memberID)
}

func (s *CSVStore) CreateMember(ctx context.Context, member *domain.TeamMember) error {
	return s.updateMembers(ctx, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return insertMember(members, *member)
	})
}

func (s *CSVStore) UpdateMember(ctx context.Context, member *domain.TeamMember) error {
	return s.updateMembers(ctx, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return replaceMember(members, *member)
	})
}

func (s *CSVStore) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	return s.updateMembers(ctx, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		return removeMember(members, memberID)
	})
}

func (s *CSVStore) SetMemberActive(ctx context.Context, memberID uuid.UUID, active bool) error {
	return s.updateMembers(ctx, func(members []domain.TeamMember) ([]domain.TeamMember, error) {
		m, err := findMember(members, memberID)
		if err != nil {
			return nil, err
		}
		m.Active = active
		return replaceMember(members, *m)
	})
}

func (s *CSVStore) updateMembers(ctx context.Context, fn func([]domain.TeamMember) ([]domain.TeamMember, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.loadMembers()
	if err != nil {
		return err
	}
	members, err = fn(members)
	if err != nil {
		return err
	}
	return s.saveMembers(members)
}

func (s *CSVStore) loadMembers() ([]domain.TeamMember, error) {
	rows, err := s.readRows(teamMembersFile)
	if err != nil {
		return nil, err
	}

	members := make([]domain.TeamMember, 0, len(rows))
	for i, row := range rows {
		m, err := decodeMember(i, row)
		if err != nil {
			return nil, fmt.Errorf("invalid row %d in %s: %w", i+1, teamMembersFile, err)
		}
		members = append(members, m)
	}
	return members, nil
}

func (s *CSVStore) saveMembers(members []domain.TeamMember) error {
	records := make([][]string, len(members))
	for i, m := range members {
		records[i] = []string{
			m.ID.String(),
			m.Name,
			m.Role,
			strconv.FormatFloat(m.Capacity, 'f', -1, 64),
			strconv.Itoa(m.DaysOff),
			strconv.FormatBool(m.Active),
			m.Country,
		}
	}
	return s.writeRows(teamMembersFile, memberHeader, records)
}

// ========================================
// SprintRepository Methods
// ========================================

func (s *CSVStore) ListSprints(ctx context.Context) ([]domain.SprintHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sprints, err := s.loadSprints()
	if err != nil {
		return nil, err
	}
	return chronological(sprints), nil
}

func (s *CSVStore) GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.SprintHistoryEntry, error) {
	sprints, err := s.ListSprints(ctx)
	if err != nil {
		return nil, err
	}
	return findSprint(sprints, sprintID)
}

func (s *CSVStore) CreateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	return s.updateSprints(ctx, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return insertSprint(sprints, *sprint)
	})
}

func (s *CSVStore) UpdateSprint(ctx context.Context, sprint *domain.SprintHistoryEntry) error {
	return s.updateSprints(ctx, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return replaceSprint(sprints, *sprint)
	})
}

func (s *CSVStore) DeleteSprint(ctx context.Context, sprintID uuid.UUID) error {
	return s.updateSprints(ctx, func(sprints []domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
		return removeSprint(sprints, sprintID)
	})
}

func (s *CSVStore) updateSprints(ctx context.Context, fn func([]domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sprints, err := s.loadSprints()
	if err != nil {
		return err
	}
	sprints, err = fn(sprints)
	if err != nil {
		return err
	}
	return s.saveSprints(sprints)
}

func (s *CSVStore) loadSprints() ([]domain.SprintHistoryEntry, error) {
	rows, err := s.readRows(sprintHistoryFile)
	if err != nil {
		return nil, err
	}

	sprints := make([]domain.SprintHistoryEntry, 0, len(rows))
	for i, row := range rows {
		sp, err := decodeSprint(i, row)
		if err != nil {
			return nil, fmt.Errorf("invalid row %d in %s: %w", i+1, sprintHistoryFile, err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, nil
}

func (s *CSVStore) saveSprints(sprints []domain.SprintHistoryEntry) error {
	records := make([][]string, len(sprints))
	for i, sp := range sprints {
		actual := ""
		if sp.ActualPoints != nil {
			actual = strconv.Itoa(*sp.ActualPoints)
		}
		velocity := ""
		if sp.Velocity != nil {
			velocity = strconv.FormatFloat(*sp.Velocity, 'f', -1, 64)
		}
		records[i] = []string{
			sp.ID.String(),
			sp.Sprint,
			strconv.Itoa(sp.SprintNumber),
			sp.StartDate,
			sp.EndDate,
			strconv.Itoa(sp.Planned),
			strconv.Itoa(sp.Completed),
			strconv.FormatFloat(sp.TeamCapacity, 'f', -1, 64),
			actual,
			velocity,
		}
	}
	return s.writeRows(sprintHistoryFile, sprintHeader, records)
}

// ========================================
// SettingsRepository Methods
// ========================================

// GetSettings читает settings.csv в формате key,value.
func (s *CSVStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readRows(settingsFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row["key"]] = row["value"]
	}

	settings, err := decodeSettings(values)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", settingsFile, err)
	}
	return settings, nil
}

func (s *CSVStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := [][]string{
		{"velocityPeriods", strconv.Itoa(settings.VelocityPeriods)},
		{"workingDaysPerSprint", strconv.Itoa(settings.WorkingDaysPerSprint)},
		{"roundToFibonacci", strconv.FormatBool(settings.RoundToFibonacci)},
		{"selectedCountry", settings.SelectedCountry},
	}
	return s.writeRows(settingsFile, settingsHeader, records)
}

// ========================================
// File helpers
// ========================================

func (s *CSVStore) readRows(name string) ([]map[string]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[strings.TrimSpace(h)] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRows пишет во временный файл и переименовывает его, чтобы читатели не видели частичную запись.
func (s *CSVStore) writeRows(name string, header []string, records [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to remove temp file", "file", tmp.Name(), "error", err)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ========================================
// Decoding
// ========================================

func decodeMember(index int, row map[string]string) (domain.TeamMember, error) {
	m := domain.TeamMember{
		Name:    row["name"],
		Role:    row["role"],
		Country: row["country"],
	}

	var err error
	if m.ID, err = rowID(row, "member", index, m.Name); err != nil {
		return m, err
	}
	if m.Capacity, err = floatField(row, "capacity", 1.0); err != nil {
		return m, err
	}
	if m.DaysOff, err = intField(row, "daysOff", 0); err != nil {
		return m, err
	}
	if m.Active, err = boolField(row, "active", true); err != nil {
		return m, err
	}
	return m, nil
}

func decodeSprint(index int, row map[string]string) (domain.SprintHistoryEntry, error) {
	sp := domain.SprintHistoryEntry{
		Sprint:    row["sprint"],
		StartDate: row["startDate"],
		EndDate:   row["endDate"],
	}

	var err error
	if sp.ID, err = rowID(row, "sprint", index, sp.Sprint); err != nil {
		return sp, err
	}
	if sp.SprintNumber, err = intField(row, "sprintNumber", 0); err != nil {
		return sp, err
	}
	if sp.SprintNumber == 0 {
		sp.SprintNumber = domain.ParseSprintNumber(sp.Sprint)
	}
	if sp.Planned, err = intField(row, "planned", 0); err != nil {
		return sp, err
	}
	if sp.Completed, err = intField(row, "completed", 0); err != nil {
		return sp, err
	}
	if sp.TeamCapacity, err = floatField(row, "teamCapacity", 100); err != nil {
		return sp, err
	}

	if v := row["actualPoints"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return sp, fmt.Errorf("actualPoints: %w", err)
		}
		sp.ActualPoints = &n
	}
	if v := row["velocity"]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sp, fmt.Errorf("velocity: %w", err)
		}
		sp.Velocity = &f
	}
	return sp, nil
}

func decodeSettings(values map[string]string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	var err error
	if settings.VelocityPeriods, err = intField(values, "velocityPeriods", settings.VelocityPeriods); err != nil {
		return nil, err
	}
	if settings.WorkingDaysPerSprint, err = intField(values, "workingDaysPerSprint", settings.WorkingDaysPerSprint); err != nil {
		return nil, err
	}
	if settings.RoundToFibonacci, err = boolField(values, "roundToFibonacci", settings.RoundToFibonacci); err != nil {
		return nil, err
	}
	if v := values["selectedCountry"]; v != "" {
		settings.SelectedCountry = v
	}
	return &settings, nil
}

func rowID(row map[string]string, kind string, index int, name string) (uuid.UUID, error) {
	v := row["id"]
	if v == "" {
		return uuid.NewSHA1(legacyRowNamespace, []byte(fmt.Sprintf("%s:%d:%s", kind, index, name))), nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("id: %w", err)
	}
	return id, nil
}

func intField(row map[string]string, key string, def int) (int, error) {
	v := row[key]
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatField(row map[string]string, key string, def float64) (float64, error) {
	v := row[key]
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func boolField(row map[string]string, key string, def bool) (bool, error) {
	v := row[key]
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

var _ RepositoryInterface = (*CSVStore)(nil)
