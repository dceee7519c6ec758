package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Валидация UUID.
func (v *Validator) ValidateUUID(id string, fieldName string) (uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return uuid.Nil, fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedUUID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid UUID: %w", fieldName, err)
	}

	if parsedUUID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s cannot be nil UUID", fieldName)
	}

	return parsedUUID, nil
}

// Валидация даты в формате YYYY-MM-DD.
func (v *Validator) ValidateDate(value string, fieldName string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s cannot be empty", fieldName)
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", fieldName)
	}
	return t, nil
}

// Валидация TeamMember.
func (v *Validator) ValidateTeamMember(member *TeamMember) error {
	if strings.TrimSpace(member.Name) == "" {
		return errors.New("name is required")
	}
	if len(member.Name) > 255 {
		return errors.New("name too long (max 255 characters)")
	}
	if len(member.Role) > 255 {
		return errors.New("role too long (max 255 characters)")
	}
	if member.Capacity <= 0 || member.Capacity > 1 {
		return errors.New("capacity must be in range (0, 1]")
	}
	if member.DaysOff < 0 {
		return errors.New("days_off cannot be negative")
	}
	return nil
}

// Валидация SprintHistoryEntry.
func (v *Validator) ValidateSprint(sprint *SprintHistoryEntry) error {
	if strings.TrimSpace(sprint.Sprint) == "" {
		return errors.New("sprint name is required")
	}

	start, err := v.ValidateDate(sprint.StartDate, "start_date")
	if err != nil {
		return err
	}
	end, err := v.ValidateDate(sprint.EndDate, "end_date")
	if err != nil {
		return err
	}
	if end.Before(start) {
		return errors.New("end_date cannot be before start_date")
	}

	if sprint.SprintNumber < 0 {
		return errors.New("sprint_number cannot be negative")
	}
	if sprint.Planned < 0 || sprint.Completed < 0 {
		return errors.New("planned and completed points cannot be negative")
	}
	if sprint.ActualPoints != nil && *sprint.ActualPoints < 0 {
		return errors.New("actual_points cannot be negative")
	}
	return nil
}

// Валидация Settings.
func (v *Validator) ValidateSettings(settings *Settings) error {
	if settings.VelocityPeriods < 1 {
		return errors.New("velocity periods must be at least 1")
	}
	if settings.WorkingDaysPerSprint < 1 {
		return errors.New("working days per sprint must be at least 1")
	}
	return nil
}
