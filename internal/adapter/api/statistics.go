package api

import (
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/stats"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

func (s *Server) MountStatistics() {
	g := s.handler.Group("/statistics", LoginRequired(s.authService.Authorizer))

	g.GET("", s.GetStatistics)
	g.GET("/chart", s.GetChart)
}

type statisticsReq struct {
	UserID    string `query:"user_id"`
	Period    string `query:"period" validate:"omitempty,max=32"`
	StartDate Date   `query:"start_date"`
	EndDate   Date   `query:"end_date"`
}

type statisticsResp struct {
	UserID           string    `json:"user_id"`
	Period           string    `json:"period"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TotalDistance    float64   `json:"total_distance"`
	TotalDuration    int       `json:"total_duration"`
	TotalCalories    float64   `json:"total_calories"`
	ActivitiesCount  int       `json:"activities_count"`
	SessionsCount    int       `json:"sessions_count"`
	AverageHeartRate *float64  `json:"average_heart_rate"`
	MaxHeartRate     *float64  `json:"max_heart_rate"`
	TotalSteps       int       `json:"total_steps"`
}

func (s *Server) GetStatistics(c echo.Context) error {
	var req statisticsReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	subjectID := access.ResolveScope(caller(c), req.UserID)
	st, err := s.statsService.ComputeStatistics(
		c.Request().Context(),
		s.getStatsUoW(),
		subjectID,
		req.Period,
		req.StartDate.Ptr(),
		req.EndDate.Ptr(),
	)
	if err != nil {
		return s.ServiceError(c, err)
	}

	return c.JSON(http.StatusOK, statisticsResp{
		UserID:           subjectID,
		Period:           st.Period,
		StartDate:        st.StartDate,
		EndDate:          st.EndDate,
		TotalDistance:    st.TotalDistance,
		TotalDuration:    st.TotalDuration,
		TotalCalories:    st.TotalCalories,
		ActivitiesCount:  st.ActivitiesCount,
		SessionsCount:    st.SessionsCount,
		AverageHeartRate: st.AverageHeartRate,
		MaxHeartRate:     st.MaxHeartRate,
		TotalSteps:       st.TotalSteps,
	})
}

type chartReq struct {
	UserID string `query:"user_id"`
	Days   int    `query:"days"`
}

type bucketResp struct {
	Date            string  `json:"date"`
	Distance        float64 `json:"distance"`
	Calories        float64 `json:"calories"`
	Duration        int     `json:"duration"`
	ActivitiesCount int     `json:"activities_count"`
}

type chartResp struct {
	UserID string       `json:"user_id"`
	Days   int          `json:"days"`
	Data   []bucketResp `json:"data"`
}

func (s *Server) GetChart(c echo.Context) error {
	var req chartReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	days := req.Days
	if c.QueryParam("days") == "" {
		days = s.defaultWindowDays
	}

	subjectID := access.ResolveScope(caller(c), req.UserID)
	series, err := s.statsService.ComputeDailySeries(c.Request().Context(), s.getStatsUoW(), subjectID, days)
	if err != nil {
		return s.ServiceError(c, err)
	}

	return c.JSON(http.StatusOK, chartResp{
		UserID: subjectID,
		Days:   days,
		Data: lo.Map(series, func(b stats.DailyBucket, _ int) bucketResp {
			return bucketResp{
				Date:            b.Date,
				Distance:        b.Distance,
				Calories:        b.Calories,
				Duration:        b.Duration,
				ActivitiesCount: b.ActivitiesCount,
			}
		}),
	})
}
