package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/T1mof/sprint-planner/internal/domain"
	"github.com/T1mof/sprint-planner/internal/middleware"
	"github.com/T1mof/sprint-planner/internal/service"
)

type Handler struct {
	service        service.ServiceInterface
	validator      *domain.Validator
	adminToken     string
	requestTimeout time.Duration
}

func NewHandler(svc service.ServiceInterface, adminToken string, requestTimeout time.Duration) *Handler {
	return &Handler{
		service:        svc,
		validator:      domain.NewValidator(),
		adminToken:     adminToken,
		requestTimeout: requestTimeout,
	}
}

// ErrorResponse структура ответа с ошибкой.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// sendError отправляет структурированную ошибку клиенту и логирует её.
func (h *Handler) sendError(c *gin.Context, statusCode int, code, message string) {
	slog.Error("Request error",
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"status", statusCode,
		"error_code", code,
		"message", message,
	)

	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(statusCode, resp)
}

// sendServiceError переводит ошибки сервиса в HTTP статусы.
func (h *Handler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrMemberNotFound):
		h.sendError(c, http.StatusNotFound, "NOT_FOUND", "team member not found")
	case errors.Is(err, domain.ErrSprintNotFound):
		h.sendError(c, http.StatusNotFound, "NOT_FOUND", "sprint not found")
	case errors.Is(err, domain.ErrMemberExists):
		h.sendError(c, http.StatusConflict, "MEMBER_EXISTS", "team member already exists")
	case errors.Is(err, domain.ErrSprintExists):
		h.sendError(c, http.StatusConflict, "SPRINT_EXISTS", "sprint number already exists")
	case errors.Is(err, domain.ErrConflict):
		h.sendError(c, http.StatusConflict, "CONFLICT", "concurrent update, retry the request")
	case errors.Is(err, context.DeadlineExceeded):
		h.sendError(c, http.StatusGatewayTimeout, "TIMEOUT", "request timed out")
	default:
		h.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func (h *Handler) pathID(c *gin.Context, field string) (uuid.UUID, bool) {
	id, err := h.validator.ValidateUUID(c.Param("id"), field)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// ========================================
// Team
// ========================================

type memberRequest struct {
	Name     string   `json:"name" binding:"required"`
	Role     string   `json:"role"`
	Capacity *float64 `json:"capacity"`
	DaysOff  int      `json:"days_off"`
	Active   *bool    `json:"active"`
	Country  string   `json:"country"`
}

func (r memberRequest) toMember(id uuid.UUID) *domain.TeamMember {
	member := &domain.TeamMember{
		ID:       id,
		Name:     r.Name,
		Role:     r.Role,
		Capacity: 1.0,
		DaysOff:  r.DaysOff,
		Active:   true,
		Country:  r.Country,
	}
	if r.Capacity != nil {
		member.Capacity = *r.Capacity
	}
	if r.Active != nil {
		member.Active = *r.Active
	}
	return member
}

// ListMembers обрабатывает GET /team.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(c.Request.Context())
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// CreateMember обрабатывает POST /team.
func (h *Handler) CreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	member, err := h.service.CreateMember(c.Request.Context(), req.toMember(uuid.Nil))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// UpdateMember обрабатывает PUT /team/:id.
func (h *Handler) UpdateMember(c *gin.Context) {
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	member, err := h.service.UpdateMember(c.Request.Context(), req.toMember(memberID))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// DeleteMember обрабатывает DELETE /team/:id.
func (h *Handler) DeleteMember(c *gin.Context) {
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}

	if err := h.service.DeleteMember(c.Request.Context(), memberID); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": memberID})
}

// SetMemberActive обрабатывает POST /team/:id/active.
func (h *Handler) SetMemberActive(c *gin.Context) {
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	member, err := h.service.SetMemberActive(c.Request.Context(), memberID, *req.Active)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// ========================================
// Sprints
// ========================================

type sprintRequest struct {
	Sprint       string   `json:"sprint"`
	SprintNumber int      `json:"sprint_number"`
	StartDate    string   `json:"start_date" binding:"required"`
	EndDate      string   `json:"end_date" binding:"required"`
	Planned      int      `json:"planned"`
	Completed    int      `json:"completed"`
	TeamCapacity *float64 `json:"team_capacity"`
	ActualPoints *int     `json:"actual_points"`
	Velocity     *float64 `json:"velocity"`
}

func (r sprintRequest) toSprint(id uuid.UUID) *domain.SprintHistoryEntry {
	sprint := &domain.SprintHistoryEntry{
		ID:           id,
		Sprint:       r.Sprint,
		SprintNumber: r.SprintNumber,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Planned:      r.Planned,
		Completed:    r.Completed,
		TeamCapacity: 100,
		ActualPoints: r.ActualPoints,
		Velocity:     r.Velocity,
	}
	if r.TeamCapacity != nil {
		sprint.TeamCapacity = *r.TeamCapacity
	}
	return sprint
}

// ListSprints обрабатывает GET /sprints.
func (h *Handler) ListSprints(c *gin.Context) {
	sprints, err := h.service.ListSprints(c.Request.Context())
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sprints": sprints})
}

// CreateSprint обрабатывает POST /sprints.
func (h *Handler) CreateSprint(c *gin.Context) {
	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sprint, err := h.service.CreateSprint(c.Request.Context(), req.toSprint(uuid.Nil))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sprint": sprint})
}

// UpdateSprint обрабатывает PUT /sprints/:id.
func (h *Handler) UpdateSprint(c *gin.Context) {
	sprintID, ok := h.pathID(c, "sprint_id")
	if !ok {
		return
	}

	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sprint, err := h.service.UpdateSprint(c.Request.Context(), req.toSprint(sprintID))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sprint": sprint})
}

// DeleteSprint обрабатывает DELETE /sprints/:id.
func (h *Handler) DeleteSprint(c *gin.Context) {
	sprintID, ok := h.pathID(c, "sprint_id")
	if !ok {
		return
	}

	if err := h.service.DeleteSprint(c.Request.Context(), sprintID); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": sprintID})
}

// RecordActualPoints обрабатывает POST /sprints/:id/actual.
func (h *Handler) RecordActualPoints(c *gin.Context) {
	sprintID, ok := h.pathID(c, "sprint_id")
	if !ok {
		return
	}

	var req struct {
		ActualPoints *int `json:"actual_points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sprint, err := h.service.RecordActualPoints(c.Request.Context(), sprintID, *req.ActualPoints)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sprint": sprint})
}

// ========================================
// Settings
// ========================================

// GetSettings обрабатывает GET /settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings обрабатывает PUT /settings.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req domain.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// ========================================
// Holidays & Planning
// ========================================

// ListHolidays обрабатывает GET /holidays?country=...[&startDate=...&endDate=...].
// С обеими датами возвращает только число праздников в окне.
func (h *Handler) ListHolidays(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "country is required")
		return
	}

	startDate, endDate := c.Query("startDate"), c.Query("endDate")
	if startDate != "" && endDate != "" {
		count, err := h.service.CountHolidays(c.Request.Context(), country, startDate, endDate)
		if err != nil {
			h.sendServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"country": country, "count": count})
		return
	}

	holidays, err := h.service.ListHolidays(c.Request.Context(), country)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"country": country, "holidays": holidays})
}

// PlanNextSprint обрабатывает GET /plan?startDate=...&endDate=...
func (h *Handler) PlanNextSprint(c *gin.Context) {
	plan, err := h.service.PlanNextSprint(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	slog.Info("Sprint plan served", "sprint", plan.Sprint.Label, "recommended_points", plan.RecommendedPoints)
	c.JSON(http.StatusOK, plan)
}

// CalculateCapacity обрабатывает POST /calculate/capacity.
func (h *Handler) CalculateCapacity(c *gin.Context) {
	var req struct {
		Members        []memberRequest `json:"members"`
		WorkingDays    *int            `json:"working_days_per_sprint"`
		PublicHolidays int             `json:"public_holidays"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	workingDays := domain.DefaultWorkingDaysPerSprint
	if req.WorkingDays != nil {
		workingDays = *req.WorkingDays
	}

	members := make([]domain.TeamMember, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, *m.toMember(uuid.Nil))
	}

	result, err := h.service.CalculateCapacity(members, workingDays, req.PublicHolidays)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CalculateRecommendation обрабатывает POST /calculate/recommendation.
func (h *Handler) CalculateRecommendation(c *gin.Context) {
	var req struct {
		History      []domain.SprintHistoryEntry `json:"history"`
		TeamCapacity *float64                    `json:"team_capacity" binding:"required"`
		Options      json.RawMessage             `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Незаданные поля options берутся из настроек по умолчанию.
	opts := domain.DefaultSettings().CalculationOptions()
	if len(req.Options) > 0 && string(req.Options) != "null" {
		if err := json.Unmarshal(req.Options, &opts); err != nil {
			h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid options: "+err.Error())
			return
		}
	}

	points, err := h.service.CalculateRecommendation(req.History, *req.TeamCapacity, opts)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommended_points": points})
}

// GetStatistics обрабатывает GET /stats.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SetupRouter настраивает маршруты для Gin роутера.
func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(middleware.Metrics())
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	admin := middleware.AdminAuth(h.adminToken)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Stats
	r.GET("/stats", h.GetStatistics)

	// Team
	r.GET("/team", h.ListMembers)
	r.POST("/team", h.CreateMember)
	r.PUT("/team/:id", h.UpdateMember)
	r.DELETE("/team/:id", admin, h.DeleteMember)
	r.POST("/team/:id/active", h.SetMemberActive)

	// Sprints
	r.GET("/sprints", h.ListSprints)
	r.POST("/sprints", h.CreateSprint)
	r.PUT("/sprints/:id", h.UpdateSprint)
	r.DELETE("/sprints/:id", admin, h.DeleteSprint)
	r.POST("/sprints/:id/actual", h.RecordActualPoints)

	// Settings
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", admin, h.UpdateSettings)

	// Planning
	r.GET("/holidays", h.ListHolidays)
	r.GET("/plan", h.PlanNextSprint)
	r.POST("/calculate/capacity", h.CalculateCapacity)
	r.POST("/calculate/recommendation", h.CalculateRecommendation)

	return r
}
