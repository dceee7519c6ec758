package repository

import (
	"sort"

	"github.com/google/uuid"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// Операции над полными снимками коллекций для CSV и Redis хранилищ.
// Каждая функция возвращает новый срез и не трогает исходный.

func findMember(members []domain.TeamMember, id uuid.UUID) (*domain.TeamMember, error) {
	for i := range members {
		if members[i].ID == id {
			m := members[i]
			return &m, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func insertMember(members []domain.TeamMember, member domain.TeamMember) ([]domain.TeamMember, error) {
	if _, err := findMember(members, member.ID); err == nil {
		return nil, domain.ErrMemberExists
	}
	out := make([]domain.TeamMember, 0, len(members)+1)
	out = append(out, members...)
	return append(out, member), nil
}

func replaceMember(members []domain.TeamMember, member domain.TeamMember) ([]domain.TeamMember, error) {
	out := make([]domain.TeamMember, len(members))
	copy(out, members)
	for i := range out {
		if out[i].ID == member.ID {
			out[i] = member
			return out, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func removeMember(members []domain.TeamMember, id uuid.UUID) ([]domain.TeamMember, error) {
	out := make([]domain.TeamMember, 0, len(members))
	found := false
	for _, m := range members {
		if m.ID == id {
			found = true
			continue
		}
		out = append(out, m)
	}
	if !found {
		return nil, domain.ErrMemberNotFound
	}
	return out, nil
}

func findSprint(sprints []domain.SprintHistoryEntry, id uuid.UUID) (*domain.SprintHistoryEntry, error) {
	for i := range sprints {
		if sprints[i].ID == id {
			s := sprints[i]
			return &s, nil
		}
	}
	return nil, domain.ErrSprintNotFound
}

func insertSprint(sprints []domain.SprintHistoryEntry, sprint domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
	if _, err := findSprint(sprints, sprint.ID); err == nil {
		return nil, domain.ErrSprintExists
	}
	if numberTaken(sprints, sprint) {
		return nil, domain.ErrSprintExists
	}
	out := make([]domain.SprintHistoryEntry, 0, len(sprints)+1)
	out = append(out, sprints...)
	return append(out, sprint), nil
}

func replaceSprint(sprints []domain.SprintHistoryEntry, sprint domain.SprintHistoryEntry) ([]domain.SprintHistoryEntry, error) {
	if _, err := findSprint(sprints, sprint.ID); err != nil {
		return nil, err
	}
	if numberTaken(sprints, sprint) {
		return nil, domain.ErrSprintExists
	}
	out := make([]domain.SprintHistoryEntry, len(sprints))
	copy(out, sprints)
	for i := range out {
		if out[i].ID == sprint.ID {
			out[i] = sprint
		}
	}
	return out, nil
}

func removeSprint(sprints []domain.SprintHistoryEntry, id uuid.UUID) ([]domain.SprintHistoryEntry, error) {
	out := make([]domain.SprintHistoryEntry, 0, len(sprints))
	found := false
	for _, s := range sprints {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		return nil, domain.ErrSprintNotFound
	}
	return out, nil
}

func numberTaken(sprints []domain.SprintHistoryEntry, sprint domain.SprintHistoryEntry) bool {
	if sprint.SprintNumber <= 0 {
		return false
	}
	for _, s := range sprints {
		if s.ID != sprint.ID && s.Identifier().Number == sprint.SprintNumber {
			return true
		}
	}
	return false
}

// chronological сортирует копию истории по дате начала, затем по номеру.
// Даты в формате YYYY-MM-DD сравниваются как строки.
func chronological(sprints []domain.SprintHistoryEntry) []domain.SprintHistoryEntry {
	out := make([]domain.SprintHistoryEntry, len(sprints))
	copy(out, sprints)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].Identifier().Number < out[j].Identifier().Number
	})
	return out
}
