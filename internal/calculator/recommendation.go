package calculator

import (
	"math"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// DefaultRecommendedPoints рекомендация при отсутствии истории.
const DefaultRecommendedPoints = 8

var fibonacciSequence = [...]int{1, 2, 3, 5, 8, 13, 21, 34, 55}

// FibonacciSequence возвращает копию опорной последовательности.
func FibonacciSequence() []int {
	out := make([]int, len(fibonacciSequence))
	copy(out, fibonacciSequence[:])
	return out
}

// RoundToFibonacci ближайшее число из последовательности. При равном расстоянии
// остаётся меньшее: следующий элемент побеждает только со строго меньшей разницей.
func RoundToFibonacci(points float64) int {
	closest := fibonacciSequence[0]
	minDiff := math.Abs(points - float64(closest))

	for _, fib := range fibonacciSequence {
		diff := math.Abs(points - float64(fib))
		if diff < minDiff {
			minDiff = diff
			closest = fib
		}
	}
	return closest
}

// RecommendedPoints рекомендуемое количество очков на следующий спринт.
func RecommendedPoints(history []domain.SprintHistoryEntry, teamCapacity float64, opts domain.CalculationOptions) int {
	averageVelocity := AverageVelocity(history, opts.VelocityPeriods)
	if averageVelocity == 0 {
		return DefaultRecommendedPoints
	}

	adjusted := averageVelocity * (teamCapacity / 100)

	if opts.RoundToFibonacci {
		return RoundToFibonacci(adjusted)
	}
	return int(math.Round(adjusted))
}
