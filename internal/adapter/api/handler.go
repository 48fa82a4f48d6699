package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/app/auth"
	activityservice "github.com/burenotti/wearable_backend/internal/app/activity"
	goalservice "github.com/burenotti/wearable_backend/internal/app/goal"
	sensorservice "github.com/burenotti/wearable_backend/internal/app/sensor"
	sessionservice "github.com/burenotti/wearable_backend/internal/app/session"
	statsservice "github.com/burenotti/wearable_backend/internal/app/statistics"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
)

const defaultWindowDays = 30

type Server struct {
	handler           *echo.Echo
	logger            *slog.Logger
	addr              string
	db                unitofwork.Beginner
	authService       *auth.Service
	sessionService    *sessionservice.Service
	sensorService     *sensorservice.Service
	activityService   *activityservice.Service
	goalService       *goalservice.Service
	statsService      *statsservice.Service
	msgBus            unitofwork.MessageBus
	validator         *validator.Validate
	defaultWindowDays int
}

func NewServer(opt ...Option) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.MaxHeaderBytes = 4096

	v := validator.New(validator.WithRequiredStructEnabled())

	s := &Server{
		handler:           e,
		validator:         v,
		logger:            slog.Default(),
		defaultWindowDays: defaultWindowDays,
	}

	for _, opt := range opt {
		opt(s)
	}

	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelInfo,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	s.Mount()
	return s
}

func (s *Server) Mount() {
	s.handler.GET("/health", s.Health)
	s.handler.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.MountAuth()
	s.MountSessions()
	s.MountSensorData()
	s.MountActivities()
	s.MountGoals()
	s.MountStatistics()
}

func (s *Server) Start() error {
	return s.handler.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.handler.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return fmt.Errorf("bad request: %v", httpErr.Message)
		}
		return fmt.Errorf("bad request")
	}
	if err := s.validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("bad request")
		}
		return fmt.Errorf("%s: %s", errs[0].Field(), errs[0].Error())

	}
	return nil
}

func (s *Server) getAuthUoW() *unitofwork.UnitOfWork[*auth.AtomicContext] {
	return unitofwork.New[*auth.AtomicContext](s.db, auth.NewAtomicContext, s.msgBus, s.logger)
}

func (s *Server) getSessionUoW() *unitofwork.UnitOfWork[*sessionservice.AtomicContext] {
	return unitofwork.New[*sessionservice.AtomicContext](s.db, sessionservice.NewAtomicContext, s.msgBus, s.logger)
}

func (s *Server) getSensorUoW() *unitofwork.UnitOfWork[*sensorservice.AtomicContext] {
	return unitofwork.New[*sensorservice.AtomicContext](s.db, sensorservice.NewAtomicContext, s.msgBus, s.logger)
}

func (s *Server) getActivityUoW() *unitofwork.UnitOfWork[*activityservice.AtomicContext] {
	return unitofwork.New[*activityservice.AtomicContext](s.db, activityservice.NewAtomicContext, s.msgBus, s.logger)
}

func (s *Server) getGoalUoW() *unitofwork.UnitOfWork[*goalservice.AtomicContext] {
	return unitofwork.New[*goalservice.AtomicContext](s.db, goalservice.NewAtomicContext, s.msgBus, s.logger)
}

func (s *Server) getStatsUoW() *unitofwork.UnitOfWork[*statsservice.AtomicContext] {
	return unitofwork.New[*statsservice.AtomicContext](s.db, statsservice.NewAtomicContext, s.msgBus, s.logger)
}
