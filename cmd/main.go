package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/config"
	"github.com/periodcalm/period-calm-website-sub000/controllers"
	"github.com/periodcalm/period-calm-website-sub000/routes"
	"github.com/periodcalm/period-calm-website-sub000/services"
	"github.com/periodcalm/period-calm-website-sub000/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}

	store, closeStore, err := config.NewCycleStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("cycle store", zap.Error(err))
	}
	defer func() { _ = closeStore() }()
	tracker := services.NewCycleTracker(store, cfg.SaveDebounce, logger)

	awsCfg, awsOK, err := config.LoadAWS(ctx, cfg)
	if err != nil {
		logger.Fatal("aws", zap.Error(err))
	}

	var (
		mailer   services.Mailer
		pusher   services.Pusher
		uploader services.Uploader
		push     *services.PushService
	)
	if awsOK && cfg.SESEmail != "" {
		mailer = utils.NewSESMailer(awsCfg, cfg.SESEmail)
	}
	if awsOK && cfg.SNSFCMArn != "" {
		push = services.NewPushService(db, awsCfg, cfg.SNSFCMArn, logger)
		pusher = push
	}
	if awsOK && cfg.S3Bucket != "" {
		uploader = utils.NewS3Uploader(awsCfg, cfg.S3Bucket, cfg.ExportBaseURL)
	}
	logger.Info("optional channels",
		zap.Bool("email", mailer != nil),
		zap.Bool("push", pusher != nil),
		zap.Bool("s3_export", uploader != nil),
		zap.String("cycle_store", cfg.CycleStore),
	)

	hub := services.NewRealtimeHub()
	users := services.NewUserService(db)
	bus := services.NewAlertBus(db, hub, pusher, mailer, logger)
	reminders := services.NewReminderService(users, tracker, bus, logger)
	sched, err := reminders.Start(cfg.ReminderCron)
	if err != nil {
		logger.Fatal("reminder schedule", zap.String("spec", cfg.ReminderCron), zap.Error(err))
	}

	accounts := services.NewAuthService(db, cfg.JWTSecret, mailer)
	r := routes.SetupRouter(routes.Deps{
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger,
		Accounts:    accounts,
		Auth:        controllers.NewAuthController(accounts),
		User:        controllers.NewUserController(users),
		Device:      controllers.NewDeviceController(push),
		Realtime:    controllers.NewRealtimeController(hub, cfg.CORSOrigins),
		Cycle:       controllers.NewCycleController(tracker, services.NewExportService(tracker, uploader)),
		Admin:       controllers.NewAdminController(services.NewAdminService(db)),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	<-sched.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := tracker.Flush(shutdownCtx); err != nil {
		logger.Error("flush cycle records", zap.Error(err))
	}
}
