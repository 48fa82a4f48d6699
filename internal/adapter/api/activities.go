package api

import (
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/telemetry"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

const defaultActivitiesLimit = 50

func (s *Server) MountActivities() {
	g := s.handler.Group("/activities", LoginRequired(s.authService.Authorizer))

	g.POST("", s.CreateActivity)
	g.GET("", s.ListActivities)
	g.GET("/:activity_id", s.GetActivity)
	g.PATCH("/:activity_id", s.UpdateActivity)
	g.DELETE("/:activity_id", s.DeleteActivity)
}

type activityResp struct {
	ActivityID       string     `json:"activity_id"`
	UserID           string     `json:"user_id"`
	SessionID        *string    `json:"session_id"`
	ActivityType     string     `json:"activity_type"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Duration         *int       `json:"duration"`
	Distance         *float64   `json:"distance"`
	AverageSpeed     *float64   `json:"average_speed"`
	MaxSpeed         *float64   `json:"max_speed"`
	AverageHeartRate *int       `json:"average_heart_rate"`
	MaxHeartRate     *int       `json:"max_heart_rate"`
	Calories         *float64   `json:"calories"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toActivityResp(a *activity.Activity) activityResp {
	return activityResp{
		ActivityID:       a.ActivityID,
		UserID:           a.UserID,
		SessionID:        a.SessionID,
		ActivityType:     string(a.Type),
		Name:             a.Name,
		Description:      a.Description,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Duration:         a.Duration,
		Distance:         a.Distance,
		AverageSpeed:     a.AverageSpeed,
		MaxSpeed:         a.MaxSpeed,
		AverageHeartRate: a.AverageHeartRate,
		MaxHeartRate:     a.MaxHeartRate,
		Calories:         a.Calories,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type createActivityReq struct {
	SessionID        *string            `json:"session_id" validate:"omitempty,uuid"`
	ActivityType     string             `json:"activity_type" validate:"required,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	Name             string             `json:"name" validate:"max=200"`
	Description      string             `json:"description" validate:"max=2000"`
	StartTime        time.Time          `json:"start_time" validate:"required"`
	EndTime          *time.Time         `json:"end_time"`
	Duration         *telemetry.Seconds `json:"duration" validate:"omitempty,min=0"`
	Distance         *float64           `json:"distance" validate:"omitempty,min=0"`
	AverageSpeed     *float64           `json:"average_speed" validate:"omitempty,min=0"`
	MaxSpeed         *float64           `json:"max_speed" validate:"omitempty,min=0"`
	AverageHeartRate *int               `json:"average_heart_rate" validate:"omitempty,min=0,max=250"`
	MaxHeartRate     *int               `json:"max_heart_rate" validate:"omitempty,min=0,max=250"`
	Calories         *float64           `json:"calories" validate:"omitempty,min=0"`
}

func (s *Server) CreateActivity(c echo.Context) error {
	var req createActivityReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	a, err := s.activityService.Create(c.Request().Context(), s.getActivityUoW(), caller(c), activity.Details{
		SessionID:        req.SessionID,
		Type:             activity.Type(req.ActivityType),
		Name:             req.Name,
		Description:      req.Description,
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime,
		Duration:         req.Duration.Ptr(),
		Distance:         req.Distance,
		AverageSpeed:     req.AverageSpeed,
		MaxSpeed:         req.MaxSpeed,
		AverageHeartRate: req.AverageHeartRate,
		MaxHeartRate:     req.MaxHeartRate,
		Calories:         req.Calories,
	})
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toActivityResp(a))
}

type listActivitiesReq struct {
	pageQuery
	UserID       string `query:"user_id"`
	ActivityType string `query:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	StartDate    Date   `query:"start_date"`
	EndDate      Date   `query:"end_date"`
}

func (s *Server) ListActivities(c echo.Context) error {
	var req listActivitiesReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	f := activity.Filter{
		UserID: access.ResolveScope(caller(c), req.UserID),
		Type:   activity.Type(req.ActivityType),
		From:   req.StartDate.Ptr(),
		To:     req.EndDate.Ptr(),
	}
	res, err := s.activityService.List(c.Request().Context(), s.getActivityUoW(), f, req.page(defaultActivitiesLimit))
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaginated(res, toActivityResp))
}

type activityPath struct {
	ActivityID string `param:"activity_id" validate:"required"`
}

func (s *Server) GetActivity(c echo.Context) error {
	var req activityPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	a, err := s.activityService.Get(c.Request().Context(), s.getActivityUoW(), caller(c), req.ActivityID)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toActivityResp(a))
}

type updateActivityReq struct {
	ActivityID       string             `param:"activity_id" validate:"required"`
	ActivityType     *string            `json:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	Name             *string            `json:"name" validate:"omitempty,max=200"`
	Description      *string            `json:"description" validate:"omitempty,max=2000"`
	EndTime          *time.Time         `json:"end_time"`
	Duration         *telemetry.Seconds `json:"duration" validate:"omitempty,min=0"`
	Distance         *float64           `json:"distance" validate:"omitempty,min=0"`
	AverageSpeed     *float64           `json:"average_speed" validate:"omitempty,min=0"`
	MaxSpeed         *float64           `json:"max_speed" validate:"omitempty,min=0"`
	AverageHeartRate *int               `json:"average_heart_rate" validate:"omitempty,min=0,max=250"`
	MaxHeartRate     *int               `json:"max_heart_rate" validate:"omitempty,min=0,max=250"`
	Calories         *float64           `json:"calories" validate:"omitempty,min=0"`
}

func (s *Server) UpdateActivity(c echo.Context) error {
	var req updateActivityReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	patch := activity.Patch{
		Name:             req.Name,
		Description:      req.Description,
		EndTime:          req.EndTime,
		Duration:         req.Duration.Ptr(),
		Distance:         req.Distance,
		AverageSpeed:     req.AverageSpeed,
		MaxSpeed:         req.MaxSpeed,
		AverageHeartRate: req.AverageHeartRate,
		MaxHeartRate:     req.MaxHeartRate,
		Calories:         req.Calories,
	}
	if req.ActivityType != nil {
		patch.Type = lo.ToPtr(activity.Type(*req.ActivityType))
	}

	a, err := s.activityService.Update(c.Request().Context(), s.getActivityUoW(), caller(c), req.ActivityID, patch)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toActivityResp(a))
}

func (s *Server) DeleteActivity(c echo.Context) error {
	var req activityPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	if err := s.activityService.Delete(c.Request().Context(), s.getActivityUoW(), caller(c), req.ActivityID); err != nil {
		return s.ServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
