package api

import (
	"fmt"
	"net/http"

	"github.com/burenotti/wearable_backend/internal/adapter/export"
	"github.com/burenotti/wearable_backend/internal/adapter/fitimport"
	"github.com/burenotti/wearable_backend/internal/adapter/telemetry"
	sensorservice "github.com/burenotti/wearable_backend/internal/app/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/stats"
	"github.com/labstack/echo/v4"
)

const (
	defaultSamplesLimit = 1000
	maxImportSize       = 32 << 20
)

func (s *Server) MountSensorData() {
	g := s.handler.Group("/sensor-data", LoginRequired(s.authService.Authorizer))

	g.POST("/:session_id", s.InsertSample)
	g.POST("/:session_id/batch", s.InsertSamples)
	g.POST("/:session_id/import", s.ImportFIT)
	g.GET("/:session_id", s.ListSamples)
	g.GET("/:session_id/latest", s.LatestSample)
	g.GET("/:session_id/stats", s.SampleStats)
	g.GET("/:session_id/export", s.ExportSamples)
}

type countResp struct {
	Count int `json:"count"`
}

func (s *Server) InsertSample(c echo.Context) error {
	var req telemetry.Reading
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	sample, err := s.sensorService.Insert(c.Request().Context(), s.getSensorUoW(), caller(c), c.Param("session_id"), req.ToDomain())
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, telemetry.FromDomain(sample))
}

func (s *Server) InsertSamples(c echo.Context) error {
	var req telemetry.Batch
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	n, err := s.sensorService.InsertBatch(
		c.Request().Context(),
		s.getSensorUoW(),
		caller(c),
		c.Param("session_id"),
		req.ToDomain(),
		sensorservice.SourceBatch,
	)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, countResp{Count: n})
}

// ImportFIT accepts a multipart upload with the FIT file in the "file" field.
func (s *Server) ImportFIT(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return JsonError(c, http.StatusBadRequest, "file is required")
	}
	if header.Size > maxImportSize {
		return JsonError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", maxImportSize))
	}
	f, err := header.Open()
	if err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	defer f.Close()

	readings, err := fitimport.Decode(f)
	if err != nil {
		return s.ServiceError(c, err)
	}

	n, err := s.sensorService.InsertBatch(
		c.Request().Context(),
		s.getSensorUoW(),
		caller(c),
		c.Param("session_id"),
		readings,
		sensorservice.SourceFIT,
	)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, countResp{Count: n})
}

type listSamplesReq struct {
	pageQuery
	SessionID string `param:"session_id" validate:"required"`
	StartTime Date   `query:"start_time"`
	EndTime   Date   `query:"end_time"`
}

func (s *Server) ListSamples(c echo.Context) error {
	var req listSamplesReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	res, err := s.sensorService.List(
		c.Request().Context(),
		s.getSensorUoW(),
		caller(c),
		req.SessionID,
		req.StartTime.Ptr(),
		req.EndTime.Ptr(),
		req.page(defaultSamplesLimit),
	)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaginated(res, telemetry.FromDomain))
}

func (s *Server) LatestSample(c echo.Context) error {
	sample, err := s.sensorService.Latest(c.Request().Context(), s.getSensorUoW(), caller(c), c.Param("session_id"))
	if err != nil {
		return s.ServiceError(c, err)
	}
	if sample == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, telemetry.FromDomain(sample))
}

type summaryResp struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	Avg *float64 `json:"avg"`
}

func toSummaryResp(s stats.Summary) summaryResp {
	return summaryResp{Min: s.Min, Max: s.Max, Avg: s.Avg}
}

type sensorStatsResp struct {
	SessionID     string      `json:"session_id"`
	HeartRate     summaryResp `json:"heart_rate"`
	Temperature   summaryResp `json:"temperature"`
	Battery       summaryResp `json:"battery"`
	TotalSteps    int         `json:"total_steps"`
	TotalCalories float64     `json:"total_calories"`
}

func (s *Server) SampleStats(c echo.Context) error {
	sessionID := c.Param("session_id")
	st, err := s.sensorService.Stats(c.Request().Context(), s.getSensorUoW(), caller(c), sessionID)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, sensorStatsResp{
		SessionID:     sessionID,
		HeartRate:     toSummaryResp(st.HeartRate),
		Temperature:   toSummaryResp(st.Temperature),
		Battery:       toSummaryResp(st.Battery),
		TotalSteps:    st.TotalSteps,
		TotalCalories: st.TotalCalories,
	})
}

func (s *Server) ExportSamples(c echo.Context) error {
	sessionID := c.Param("session_id")
	samples, err := s.sensorService.All(c.Request().Context(), s.getSensorUoW(), caller(c), sessionID)
	if err != nil {
		return s.ServiceError(c, err)
	}

	data, err := export.Samples(samples)
	if err != nil {
		return s.ServiceError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.parquet"`, sessionID))
	return c.Blob(http.StatusOK, export.ContentType, data)
}
