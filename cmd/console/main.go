package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/config"
	"github.com/dbids-ops/dbids-console/internal/http/handler"
	"github.com/dbids-ops/dbids-console/internal/logger"
	"github.com/dbids-ops/dbids-console/internal/queue/rabbitmq"
	"github.com/dbids-ops/dbids-console/internal/repository/dbids"
	sqliterepo "github.com/dbids-ops/dbids-console/internal/repository/sqlite"
	"github.com/dbids-ops/dbids-console/internal/session"
	"github.com/dbids-ops/dbids-console/internal/usecase"
	"github.com/dbids-ops/dbids-console/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(sqlitedriver.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&entity.AdminProfile{}); err != nil {
		return err
	}

	profileRepo := sqliterepo.NewProfileRepository(db)
	sess := session.New(profileRepo, log)
	if err := sess.Init(ctx); err != nil {
		return err
	}

	client := dbids.NewClient(cfg.BackendBaseURL, cfg.HTTPTimeout, log)
	client.SetRequestDecorator(sess.Decorate)
	client.SetUnauthorizedHook(func() {
		sess.ForceLogout(session.ReasonUnauthorized)
	})

	validate := validation.New()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	logsPager := usecase.NewPager(client.FetchLogs,
		func(r entity.QueryLogRow) string { return r.ID },
		usecase.PagerConfig{
			Logger:          log,
			Scheduler:       sched,
			Size:            20,
			SortField:       "executedAt",
			SortDir:         entity.SortDesc,
			DebounceWait:    cfg.DebounceWait,
			RefreshInterval: cfg.RefreshInterval,
			FetchTimeout:    cfg.HTTPTimeout,
			AutoRefresh:     true,
		})
	eventsPager := usecase.NewPager(client.FetchEvents,
		func(e entity.DetectionEvent) string { return e.ID },
		usecase.PagerConfig{
			Logger:          log,
			Scheduler:       sched,
			Size:            50,
			DebounceWait:    cfg.DebounceWait,
			RefreshInterval: cfg.RefreshInterval,
			FetchTimeout:    cfg.HTTPTimeout,
			AutoRefresh:     true,
		})

	authUsecase := usecase.NewAuthUsecase(client, sess, validate, log)
	statsUsecase := usecase.NewStatsUsecase(client, log)
	settingsUsecase := usecase.NewSettingsUsecase(client, validate, log)

	var publisher usecase.EventPublisher
	var broker *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		broker, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Warn("broker unavailable, continuing without fan-out", zap.Error(err))
		} else {
			publisher = broker
		}
	}
	watcher := usecase.NewWatcher(streamOpener{client: client}, publisher, log)

	sched.Start()
	go watcher.Run(ctx)

	// Initial page loads; the auto-refresh jobs take over from here.
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		defer cancel()
		logsPager.FetchPage(loadCtx, 0)
	}()
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		defer cancel()
		eventsPager.FetchPage(loadCtx, 0)
	}()

	app := fiber.New(fiber.Config{
		AppName:               "dbids-console",
		DisableStartupMessage: true,
	})
	handler.NewAuthHandler(authUsecase, sess).Register(app)
	handler.NewLogsHandler(logsPager, client).Register(app)
	handler.NewEventsHandler(eventsPager, watcher).Register(app)
	handler.NewStatsHandler(statsUsecase).Register(app)
	handler.NewSettingsHandler(settingsUsecase).Register(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()
	log.Info("console listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("backend", cfg.BackendBaseURL))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	logsPager.Close()
	eventsPager.Close()
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown failed", zap.Error(err))
	}
	if broker != nil {
		_ = broker.Close()
	}
	return app.ShutdownWithTimeout(5 * time.Second)
}

// streamOpener adapts the concrete client to the watcher's interface.
type streamOpener struct {
	client *dbids.Client
}

func (s streamOpener) OpenEventStream(ctx context.Context) (usecase.EventStream, error) {
	stream, err := s.client.OpenEventStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
