package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DateLayout формат дат спринтов и праздников (ISO 8601, только дата).
const DateLayout = "2006-01-02"

type TeamMember struct {
	ID       uuid.UUID `db:"member_id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Role     string    `db:"role" json:"role"`
	Capacity float64   `db:"capacity" json:"capacity"`
	DaysOff  int       `db:"days_off" json:"days_off"`
	Active   bool      `db:"active" json:"active"`
	Country  string    `db:"country" json:"country"`
}

type SprintHistoryEntry struct {
	ID           uuid.UUID `db:"sprint_id" json:"id"`
	Sprint       string    `db:"sprint" json:"sprint"`
	SprintNumber int       `db:"sprint_number" json:"sprint_number"`
	StartDate    string    `db:"start_date" json:"start_date"`
	EndDate      string    `db:"end_date" json:"end_date"`
	Planned      int       `db:"planned" json:"planned"`
	Completed    int       `db:"completed" json:"completed"`
	TeamCapacity float64   `db:"team_capacity" json:"team_capacity"`
	ActualPoints *int      `db:"actual_points" json:"actual_points,omitempty"`
	Velocity     *float64  `db:"velocity" json:"velocity,omitempty"`
}

// SprintID структурированный идентификатор спринта вместо разбора строки "Sprint 42".
type SprintID struct {
	Label  string `json:"label"`
	Number int    `json:"number"`
}

func NewSprintID(number int) SprintID {
	return SprintID{
		Label:  fmt.Sprintf("Sprint %d", number),
		Number: number,
	}
}

// Identifier возвращает идентификатор спринта. Номер из подписи берётся только для
// записей, импортированных без sprint_number.
func (s SprintHistoryEntry) Identifier() SprintID {
	if s.SprintNumber > 0 {
		return SprintID{Label: s.Sprint, Number: s.SprintNumber}
	}
	return SprintID{Label: s.Sprint, Number: ParseSprintNumber(s.Sprint)}
}

// ParseSprintNumber достаёт номер из подписи вида "Sprint 42". Возвращает 0, если номера нет.
func ParseSprintNumber(label string) int {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Settings struct {
	VelocityPeriods      int    `db:"velocity_periods" json:"velocity_periods"`
	WorkingDaysPerSprint int    `db:"working_days_per_sprint" json:"working_days_per_sprint"`
	RoundToFibonacci     bool   `db:"round_to_fibonacci" json:"round_to_fibonacci"`
	SelectedCountry      string `db:"selected_country" json:"selected_country"`
}

const (
	DefaultVelocityPeriods      = 3
	DefaultWorkingDaysPerSprint = 10
	DefaultCountry              = "France"
)

func DefaultSettings() Settings {
	return Settings{
		VelocityPeriods:      DefaultVelocityPeriods,
		WorkingDaysPerSprint: DefaultWorkingDaysPerSprint,
		RoundToFibonacci:     true,
		SelectedCountry:      DefaultCountry,
	}
}

// CalculationOptions часть настроек, которую использует калькулятор.
type CalculationOptions struct {
	VelocityPeriods      int  `json:"velocity_periods"`
	WorkingDaysPerSprint int  `json:"working_days_per_sprint"`
	RoundToFibonacci     bool `json:"round_to_fibonacci"`
}

func (s Settings) CalculationOptions() CalculationOptions {
	return CalculationOptions{
		VelocityPeriods:      s.VelocityPeriods,
		WorkingDaysPerSprint: s.WorkingDaysPerSprint,
		RoundToFibonacci:     s.RoundToFibonacci,
	}
}

type PublicHoliday struct {
	Date    string `json:"date"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// CapacityResult результат расчета емкости для произвольного состава.
type CapacityResult struct {
	WorkingDays    int     `json:"working_days"`
	PublicHolidays int     `json:"public_holidays"`
	ActiveMembers  int     `json:"active_members"`
	TeamCapacity   float64 `json:"team_capacity"`
	TotalManDays   float64 `json:"total_man_days"`
}

// SprintPlan предложение для следующего спринта.
type SprintPlan struct {
	Sprint              SprintID `json:"sprint"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date"`
	Country             string   `json:"country"`
	WorkingDays         int      `json:"working_days"`
	CalendarWorkingDays int      `json:"calendar_working_days"`
	PublicHolidays      int      `json:"public_holidays"`
	ActiveMembers       int      `json:"active_members"`
	TeamCapacity        int      `json:"team_capacity"`
	TotalManDays        float64  `json:"total_man_days"`
	AverageVelocity     float64  `json:"average_velocity"`
	LastVelocity        *float64 `json:"last_velocity,omitempty"`
	ExpectedPoints      *int     `json:"expected_points,omitempty"`
	RecommendedPoints   int      `json:"recommended_points"`
}
