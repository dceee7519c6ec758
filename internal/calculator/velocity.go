package calculator

import (
	"math"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// AverageVelocity среднее completed по последним periods спринтам.
// history упорядочена хронологически, старые спринты первыми.
func AverageVelocity(history []domain.SprintHistoryEntry, periods int) float64 {
	if len(history) == 0 {
		return 0
	}

	window := len(history)
	if periods > 0 && periods < window {
		window = periods
	}

	recent := history[len(history)-window:]
	total := 0
	for _, s := range recent {
		total += s.Completed
	}
	return float64(total) / float64(len(recent))
}

// SprintVelocity очки на человеко-день.
func SprintVelocity(actualPoints, totalManDays float64) float64 {
	if actualPoints == 0 || totalManDays == 0 {
		return 0
	}
	return actualPoints / totalManDays
}

// ExpectedPoints прогноз очков для спринта с заданным числом человеко-дней.
func ExpectedPoints(velocity, totalManDays float64) int {
	return int(math.Round(velocity * totalManDays))
}

// LastRecordedVelocity скорость последнего спринта, для которого она была сохранена.
func LastRecordedVelocity(history []domain.SprintHistoryEntry) (float64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if v := history[i].Velocity; v != nil && *v > 0 {
			return *v, true
		}
	}
	return 0, false
}
