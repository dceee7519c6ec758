// Package calculator считает ёмкость команды, скорость и рекомендуемый объём спринта.
// Все функции чистые: входные срезы не изменяются, результат зависит только от аргументов.
package calculator

import (
	"math"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// TeamCapacity возвращает доступную ёмкость активных участников в процентах (0-100).
// Для пустого или полностью неактивного состава возвращает 0.
func TeamCapacity(members []domain.TeamMember, workingDaysPerSprint, publicHolidays int) float64 {
	days := float64(workingDaysPerSprint - publicHolidays)

	var totalPossible, available float64
	active := 0
	for _, m := range members {
		if !m.Active {
			continue
		}
		active++
		totalPossible += days * m.Capacity
		available += memberManDays(m, days)
	}

	if active == 0 || totalPossible <= 0 {
		return 0
	}
	return available / totalPossible * 100
}

// TotalSprintManDays возвращает сумму доступных человеко-дней активных участников.
func TotalSprintManDays(members []domain.TeamMember, workingDaysPerSprint, publicHolidays int) float64 {
	days := float64(workingDaysPerSprint - publicHolidays)

	var total float64
	for _, m := range members {
		if m.Active {
			total += memberManDays(m, days)
		}
	}
	return total
}

// LegacyTeamCapacity ранняя версия расчёта: не учитывает active и праздники,
// для пустого состава возвращает 100. Сервис её не использует.
func LegacyTeamCapacity(members []domain.TeamMember, workingDaysPerSprint int) float64 {
	if len(members) == 0 {
		return 100
	}

	days := float64(workingDaysPerSprint)
	var totalPossible, available float64
	for _, m := range members {
		totalPossible += days * m.Capacity
		available += memberManDays(m, days)
	}

	if totalPossible <= 0 {
		return 0
	}
	return available / totalPossible * 100
}

func memberManDays(m domain.TeamMember, days float64) float64 {
	return math.Max(0, (days-float64(m.DaysOff))*m.Capacity)
}
