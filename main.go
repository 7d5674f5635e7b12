package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/GamaDigital-7l/Gama-todoist-sub000/cmd/api"
	authUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/usecase"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/channel"
	notificationDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/delivery"
	notificationdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	notificationRepo "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/repository"
	notificationUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/usecase"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	taskDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/delivery"
	taskdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
	taskRepo "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/repository"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/scheduler"
	taskUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/usecase"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/config"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/database"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/fcm"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/logger"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/webpush"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg, logger.Component(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&taskdomain.Task{}, &notificationdomain.UserNotificationSettings{}, &notificationdomain.PushSubscription{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Initialize repositories (dependency injection)
	tasks := taskRepo.NewGormTaskRepository(db)
	settings := notificationRepo.NewSettingsRepository(db)
	subscriptions := notificationRepo.NewSubscriptionRepository(db)

	clock, err := reminder.NewUserClock(reminder.SystemClock{}, settings, cfg.DefaultTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DEFAULT_TIMEZONE")
	}

	// Push transports are optional; web push is disabled when none is configured
	transports := make(map[notificationdomain.SubscriptionKind]channel.PushTransport)
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		sender, err := webpush.NewSender(webpush.Config{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		})
		if err != nil {
			log.Warn().Err(err).Msg("VAPID web push disabled")
		} else {
			transports[notificationdomain.SubscriptionVAPID] = channel.VAPIDTransport{Sender: sender}
		}
	} else {
		log.Warn().Msg("VAPID keys not configured, browser push disabled")
	}
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger.Component(log, "fcm"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize FCM client, FCM push disabled")
		} else {
			transports[notificationdomain.SubscriptionFCM] = channel.FCMTransport{Client: fcmClient}
		}
	}

	dispatcher := channel.NewDispatcher(channel.DispatcherConfig{
		TelegramAPIURL: cfg.TelegramAPIURL,
		WhatsApp: channel.WhatsAppConfig{
			BaseURL:  cfg.EvolutionAPIURL,
			APIKey:   cfg.EvolutionAPIKey,
			Instance: cfg.EvolutionInstance,
		},
		Timeout:    cfg.DispatchTimeout,
		RatePerSec: float64(cfg.TelegramRatePerSec),
	}, subscriptions, transports, logger.Component(log, "dispatcher"))

	engine, err := notificationUsecase.NewEngine(notificationUsecase.EngineConfig{
		Tasks:       tasks,
		Settings:    settings,
		Dispatcher:  dispatcher,
		Clock:       clock,
		Concurrency: cfg.DispatchConcurrency,
		BriefGrace:  cfg.BriefGrace,
		Logger:      logger.Component(log, "engine"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build notification engine")
	}

	// Start cron-driven reminder and brief passes
	reminderScheduler := scheduler.NewTaskReminderScheduler(engine, scheduler.Config{
		ReminderSchedule: cfg.ReminderSchedule,
		BriefSchedule:    cfg.BriefSchedule,
	}, logger.Component(log, "scheduler"))
	if err := reminderScheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	// Pub/Sub run listener, only if project ID is configured
	if cfg.GoogleProjectID != "" {
		notifService, err := notification.NewService(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials, engine, 5*time.Minute, logger.Component(log, "pubsub"))
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize notification service")
		} else {
			defer notifService.Close()
			go notifService.Start(ctx)
		}
	} else {
		log.Info().Msg("GOOGLE_PROJECT_ID not configured, pubsub listener disabled")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(cfg)
	taskUsecaseInstance := taskUsecase.NewTaskUsecase(tasks, clock, logger.Component(log, "tasks"))

	// Initialize HTTP handler
	handler := api.NewHandler(
		authUsecaseInstance,
		notificationDelivery.NewNotificationHandler(engine, settings, subscriptions),
		taskDelivery.NewTaskHandler(taskUsecaseInstance),
		logger.Component(log, "http"),
	)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := handler.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		reminderScheduler.Stop(shutdownCtx)
	}()

	// Start server
	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	<-stopped
	log.Info().Msg("shutdown complete")
}
