package domain

import "github.com/google/uuid"

// SprintCompletion процент выполнения плана по спринту.
type SprintCompletion struct {
	SprintID          uuid.UUID `json:"sprint_id"`
	Sprint            string    `json:"sprint"`
	Planned           int       `json:"planned"`
	Completed         int       `json:"completed"`
	CompletionPercent int       `json:"completion_percent"`
}

// TeamStats статистика по составу команды.
type TeamStats struct {
	TotalMembers   int     `json:"total_members"`
	ActiveMembers  int     `json:"active_members"`
	ActiveCapacity float64 `json:"active_capacity"`
}

// Statistics общая статистика для дашборда.
type Statistics struct {
	Team               TeamStats          `json:"team"`
	TotalSprints       int                `json:"total_sprints"`
	AverageVelocity    float64            `json:"average_velocity"`
	MaxCompletedPoints int                `json:"max_completed_points"`
	Completion         []SprintCompletion `json:"completion"`
}
