package api

import (
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/telemetry"
	sessionservice "github.com/burenotti/wearable_backend/internal/app/session"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

const defaultSessionsLimit = 50

func (s *Server) MountSessions() {
	g := s.handler.Group("/sessions", LoginRequired(s.authService.Authorizer))

	g.POST("", s.CreateSession)
	g.GET("", s.ListSessions)
	g.GET("/:session_id", s.GetSession)
	g.PATCH("/:session_id", s.UpdateSession)
	g.DELETE("/:session_id", s.DeleteSession)
}

type sessionResp struct {
	SessionID       string             `json:"session_id"`
	UserID          string             `json:"user_id"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time"`
	Duration        *int               `json:"duration"`
	ActivityType    string             `json:"activity_type"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	SamplesCount    int                `json:"samples_count"`
	ActivitiesCount int                `json:"activities_count"`
	Samples         []telemetry.Sample `json:"samples,omitempty"`
	Activities      []activityResp     `json:"activities,omitempty"`
}

func toSessionResp(ses *session.Session) sessionResp {
	return sessionResp{
		SessionID:       ses.SessionID,
		UserID:          ses.UserID,
		StartTime:       ses.StartTime,
		EndTime:         ses.EndTime,
		Duration:        ses.Duration,
		ActivityType:    string(ses.ActivityType),
		Notes:           ses.Notes,
		CreatedAt:       ses.CreatedAt,
		UpdatedAt:       ses.UpdatedAt,
		SamplesCount:    ses.Counts.Samples,
		ActivitiesCount: ses.Counts.Activities,
	}
}

func toSessionDetailResp(d sessionservice.Detail) sessionResp {
	resp := toSessionResp(d.Session)
	resp.Samples = lo.Map(d.Session.Samples, func(sample *sensor.Sample, _ int) telemetry.Sample {
		return telemetry.FromDomain(sample)
	})
	resp.Activities = lo.Map(d.Activities, func(a *activity.Activity, _ int) activityResp {
		return toActivityResp(a)
	})
	return resp
}

type createSessionReq struct {
	ActivityType string `json:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	Notes        string `json:"notes" validate:"max=2000"`
}

func (s *Server) CreateSession(c echo.Context) error {
	var req createSessionReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	ses, err := s.sessionService.Start(c.Request().Context(), s.getSessionUoW(), caller(c), activity.Type(req.ActivityType), req.Notes)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResp(ses))
}

type listSessionsReq struct {
	pageQuery
	UserID       string `query:"user_id"`
	StartDate    Date   `query:"start_date"`
	EndDate      Date   `query:"end_date"`
	ActivityType string `query:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
}

func (s *Server) ListSessions(c echo.Context) error {
	var req listSessionsReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	f := session.Filter{
		UserID:       access.ResolveScope(caller(c), req.UserID),
		ActivityType: activity.Type(req.ActivityType),
		From:         req.StartDate.Ptr(),
		To:           req.EndDate.Ptr(),
	}
	res, err := s.sessionService.List(c.Request().Context(), s.getSessionUoW(), f, req.page(defaultSessionsLimit))
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaginated(res, toSessionResp))
}

type sessionPath struct {
	SessionID string `param:"session_id" validate:"required"`
}

func (s *Server) GetSession(c echo.Context) error {
	var req sessionPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	detail, err := s.sessionService.Get(c.Request().Context(), s.getSessionUoW(), caller(c), req.SessionID)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionDetailResp(detail))
}

type updateSessionReq struct {
	SessionID    string             `param:"session_id" validate:"required"`
	EndTime      *time.Time         `json:"end_time"`
	Duration     *telemetry.Seconds `json:"duration" validate:"omitempty,min=0"`
	ActivityType *string            `json:"activity_type" validate:"omitempty,oneof=RUNNING CYCLING WALKING SWIMMING GYM OTHER"`
	Notes        *string            `json:"notes" validate:"omitempty,max=2000"`
}

func (s *Server) UpdateSession(c echo.Context) error {
	var req updateSessionReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	patch := session.Patch{
		EndTime:  req.EndTime,
		Duration: req.Duration.Ptr(),
		Notes:    req.Notes,
	}
	if req.ActivityType != nil {
		patch.ActivityType = lo.ToPtr(activity.Type(*req.ActivityType))
	}

	ses, err := s.sessionService.Update(c.Request().Context(), s.getSessionUoW(), caller(c), req.SessionID, patch)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResp(ses))
}

func (s *Server) DeleteSession(c echo.Context) error {
	var req sessionPath
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	if err := s.sessionService.Delete(c.Request().Context(), s.getSessionUoW(), caller(c), req.SessionID); err != nil {
		return s.ServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
