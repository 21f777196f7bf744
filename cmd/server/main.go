package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/supportdesk-io/supportdesk-ce/internal/api"
	"github.com/supportdesk-io/supportdesk-ce/internal/config"
	"github.com/supportdesk-io/supportdesk-ce/internal/database"
	"github.com/supportdesk-io/supportdesk-ce/internal/realtime"
	"github.com/supportdesk-io/supportdesk-ce/internal/repository"
	"github.com/supportdesk-io/supportdesk-ce/internal/runner"
	"github.com/supportdesk-io/supportdesk-ce/internal/runner/tasks"
	"github.com/supportdesk-io/supportdesk-ce/internal/ticketnumber"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config"
	}
	if err := config.Load(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	defer rdb.Close()

	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	router, err := api.NewRouter(db, rdb, cfg, hub)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}
	router.SetupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobRunner *runner.Runner
	if cfg.Jobs.Enabled {
		numberGen, err := ticketnumber.Resolve(cfg.Ticket.NumberGenerator, ticketnumber.Config{
			Prefix: cfg.Ticket.NumberPrefix,
		}, nil)
		if err != nil {
			log.Fatalf("Invalid ticket number generator: %v", err)
		}
		ticketRepo := repository.NewTicketRepository(db, numberGen, ticketnumber.NewDBStore(db, cfg.Ticket.NumberPrefix))

		registry := runner.NewTaskRegistry()
		registry.Register(tasks.NewPresenceSweepTask(router.PresenceService(), cfg.Jobs.PresenceSchedule))
		registry.Register(tasks.NewAutoCloseTask(ticketRepo, cfg.Jobs.AutoCloseAfter, cfg.Jobs.AutoCloseSchedule))

		jobRunner = runner.NewRunner(registry)
		if err := jobRunner.Start(ctx); err != nil {
			log.Fatalf("Failed to start job runner: %v", err)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.App.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if jobRunner != nil {
		jobRunner.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
