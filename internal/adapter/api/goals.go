package api

import (
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

func (s *Server) MountGoals() {
	g := s.handler.Group("/goals", LoginRequired(s.authService.Authorizer))

	g.POST("", s.CreateGoal)
	g.GET("", s.ListGoals)
	g.GET("/:goal_id", s.GetGoal)
	g.PATCH("/:goal_id", s.UpdateGoal)
	g.DELETE("/:goal_id", s.DeleteGoal)
}

type goalResp struct {
	GoalID       string    `json:"goal_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	TargetValue  float64   `json:"target_value"`
	CurrentValue float64   `json:"current_value"`
	Unit         string    `json:"unit"`
	TargetDate   time.Time `json:"target_date"`
	ActivityType *string   `json:"activity_type"`
	Status       string    `json:"status"`
	ProgressPct  float64   `json:"progress_pct"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toGoalResp(g *goal.Goal) goalResp {
	resp := goalResp{
		GoalID:       g.GoalID,
		UserID:       g.UserID,
		Title:        g.Title,
		Description:  g.Description,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Unit:         g.Unit,
		TargetDate:   g.TargetDate,
		Status:       string(g.Status),
		ProgressPct:  g.ProgressPct(),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.ActivityType != "" {
		resp.ActivityType = lo.ToPtr(string(g.ActivityType))
	}
	return resp
}

type createGoalReq struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	TargetValue  float64   `json:"target_value" validate:"gt=0"`
	Unit         string    `json:"unit" validate:"required,max=50"`
	TargetDate   time.Time `json:"target_date" validate:"required"`
	ActivityType string    `json:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
}

func (s *Server) CreateGoal(c echo.Context) error {
	var req createGoalReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	g, err := s.goalService.Create(c.Request().Context(), s.getGoalUoW(), caller(c), goal.Details{
		Title:        req.Title,
		Description:  req.Description,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		TargetDate:   req.TargetDate,
		ActivityType: activity.Type(req.ActivityType),
	})
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toGoalResp(g))
}

type listGoalsReq struct {
	UserID       string `query:"user_id"`
	Status       string `query:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
	ActivityType string `query:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
}

func (s *Server) ListGoals(c echo.Context) error {
	var req listGoalsReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	goals, err := s.goalService.List(c.Request().Context(), s.getGoalUoW(), goal.Filter{
		UserID:       access.ResolveScope(caller(c), req.UserID),
		Status:       goal.Status(req.Status),
		ActivityType: activity.Type(req.ActivityType),
	})
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, lo.Map(goals, func(g *goal.Goal, _ int) goalResp {
		return toGoalResp(g)
	}))
}

type goalPath struct {
	GoalID string `param:"goal_id" validate:"required"`
}

func (s *Server) GetGoal(c echo.Context) error {
	var req goalPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	g, err := s.goalService.Get(c.Request().Context(), s.getGoalUoW(), caller(c), req.GoalID)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGoalResp(g))
}

type updateGoalReq struct {
	GoalID       string     `param:"goal_id" validate:"required"`
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	TargetValue  *float64   `json:"target_value" validate:"omitempty,gt=0"`
	CurrentValue *float64   `json:"current_value"`
	Unit         *string    `json:"unit" validate:"omitempty,max=50"`
	TargetDate   *time.Time `json:"target_date"`
	ActivityType *string    `json:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	Status       *string    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
}

func (s *Server) UpdateGoal(c echo.Context) error {
	var req updateGoalReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	patch := goal.Patch{
		Title:        req.Title,
		Description:  req.Description,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		Unit:         req.Unit,
		TargetDate:   req.TargetDate,
	}
	if req.ActivityType != nil {
		patch.ActivityType = lo.ToPtr(activity.Type(*req.ActivityType))
	}
	if req.Status != nil {
		patch.Status = lo.ToPtr(goal.Status(*req.Status))
	}

	g, err := s.goalService.Update(c.Request().Context(), s.getGoalUoW(), caller(c), req.GoalID, patch)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toGoalResp(g))
}

func (s *Server) DeleteGoal(c echo.Context) error {
	var req goalPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	if err := s.goalService.Delete(c.Request().Context(), s.getGoalUoW(), caller(c), req.GoalID); err != nil {
		return s.ServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
