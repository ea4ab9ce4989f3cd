package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"referly/config"
	"referly/internal/database"
	"referly/internal/router"
	"referly/internal/scheduler"
	"referly/pkg/llm"
	"referly/pkg/logger"
	"referly/pkg/mailer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Environment: cfg.Server.Env,
		LogLevel:    cfg.Log.Level,
		ServiceName: "referly",
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	app := router.Setup(cfg, db, router.Deps{
		Mailer:    mailer.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, "Referly"),
		Generator: llm.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout, log),
		Log:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.Limiter.Run(ctx, time.Minute)

	sched := scheduler.New(app.Campaigns, log)
	if err := sched.Start(cfg.Scheduler.CloseExpiredSpec); err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	sched.Stop()
	app.Notifier.Wait()
	log.Info("server stopped")
}
