package api

import (
	"log/slog"
	"net"
	"strconv"

	activityservice "github.com/burenotti/wearable_backend/internal/app/activity"
	"github.com/burenotti/wearable_backend/internal/app/auth"
	goalservice "github.com/burenotti/wearable_backend/internal/app/goal"
	sensorservice "github.com/burenotti/wearable_backend/internal/app/sensor"
	sessionservice "github.com/burenotti/wearable_backend/internal/app/session"
	statsservice "github.com/burenotti/wearable_backend/internal/app/statistics"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func DBContext(db unitofwork.Beginner) Option {
	return func(s *Server) {
		s.db = db
	}
}

func AuthService(service *auth.Service) Option {
	return func(s *Server) {
		s.authService = service
	}
}

func SessionService(service *sessionservice.Service) Option {
	return func(s *Server) {
		s.sessionService = service
	}
}

func SensorService(service *sensorservice.Service) Option {
	return func(s *Server) {
		s.sensorService = service
	}
}

func ActivityService(service *activityservice.Service) Option {
	return func(s *Server) {
		s.activityService = service
	}
}

func GoalService(service *goalservice.Service) Option {
	return func(s *Server) {
		s.goalService = service
	}
}

func StatsService(service *statsservice.Service) Option {
	return func(s *Server) {
		s.statsService = service
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}

// DefaultWindowDays sets the chart window used when the request names none.
func DefaultWindowDays(days int) Option {
	return func(s *Server) {
		if days > 0 {
			s.defaultWindowDays = days
		}
	}
}
