package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burenotti/wearable_backend/internal/adapter/api"
	"github.com/burenotti/wearable_backend/internal/adapter/broker"
	"github.com/burenotti/wearable_backend/internal/adapter/mqttingest"
	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	activityservice "github.com/burenotti/wearable_backend/internal/app/activity"
	"github.com/burenotti/wearable_backend/internal/app/auth"
	goalservice "github.com/burenotti/wearable_backend/internal/app/goal"
	"github.com/burenotti/wearable_backend/internal/app/messagebus"
	sensorservice "github.com/burenotti/wearable_backend/internal/app/sensor"
	sessionservice "github.com/burenotti/wearable_backend/internal/app/session"
	statsservice "github.com/burenotti/wearable_backend/internal/app/statistics"
	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/config"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
	"github.com/burenotti/wearable_backend/internal/domain/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leporo/sqlf"
	"golang.org/x/crypto/bcrypt"
)

var forwardedEvents = []string{
	user.EventCreated,
	session.EventStarted,
	session.EventEnded,
	sensor.EventSamplesIngested,
	activity.EventCreated,
	activity.EventUpdated,
	goal.EventCreated,
	goal.EventCompleted,
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	sqlf.SetDialect(sqlf.PostgreSQL)

	db, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	defer db.Close()
	dbCtx := &storage.DB{DB: db}

	now := func() time.Time { return time.Now().UTC() }

	authorizer := &auth.Authorizer{
		Cost:             bcrypt.DefaultCost,
		Secret:           cfg.JWT.Secret,
		AccessTokenTTL:   cfg.JWT.AccessTokenTTL,
		AuthorizationTTL: cfg.JWT.RefreshTokenTTL,
	}
	authService := auth.NewService(authorizer, logger)
	sessionService := sessionservice.New(logger, now)
	sensorService := sensorservice.New(logger, now)
	activityService := activityservice.New(logger)
	goalService := goalservice.New(logger, now)
	statsService := statsservice.New(logger, now)

	bus := messagebus.New(logger)
	bus.Register(user.EventCreated, func(event domain.Event) error {
		logger.Info("processed user created event")
		return nil
	})
	bus.Register(goal.EventCompleted, goalService.OnCompleted)

	var publisher *broker.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		bus.RegisterMany(forwardedEvents, publisher.Handler(5*time.Second))
		logger.Info("forwarding events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	server := api.NewServer(
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.DBContext(dbCtx),
		api.MessageBus(bus),
		api.AuthService(authService),
		api.SessionService(sessionService),
		api.SensorService(sensorService),
		api.ActivityService(activityService),
		api.GoalService(goalService),
		api.StatsService(statsService),
		api.DefaultWindowDays(cfg.Stats.DefaultWindowDays),
	)

	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var subscriber *mqttingest.Subscriber
	if cfg.MQTT.URL != "" {
		sensorUoW := unitofwork.New[*sensorservice.AtomicContext](dbCtx, sensorservice.NewAtomicContext, bus, logger)
		ingest := func(ctx context.Context, sessionID string, readings []sensor.Reading) (int, error) {
			return sensorService.IngestDevice(ctx, sensorUoW, sessionID, readings, sensorservice.SourceMQTT)
		}
		subscriber, err = mqttingest.New(mqttingest.Config{
			URL:      cfg.MQTT.URL,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      cfg.MQTT.QoS,
			Timeout:  cfg.MQTT.Timeout,
		}, ingest, logger)
		if err != nil {
			panic("invalid mqtt config: " + err.Error())
		}
		if err := subscriber.Start(ctx); err != nil {
			panic("failed to start mqtt subscriber: " + err.Error())
		}
	}

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}

	if subscriber != nil {
		if err := subscriber.Stop(); err != nil {
			logger.Error("mqtt subscriber was not stopped gracefully", "error", err)
		}
	}
	bus.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher was not closed gracefully", "error", err)
		}
	}
	logger.Info("server shutdown")
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
