package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datastory/internal/config"
	"datastory/internal/container"
	"datastory/internal/metrics"
	"datastory/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}

func run(ctx context.Context, appConfig *config.Config) error {
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		return err
	}
	defer appContainer.Shutdown(context.Background())

	if appConfig.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := ui.Deps{
		Config:  appConfig,
		Stories: appContainer.Stories,
		Samples: appContainer.Samples,
		Loader:  appContainer.Loader,
		Ready:   appContainer.Ready,
	}
	if appContainer.Usage != nil {
		deps.Usage = appContainer.Usage
	}
	server, err := ui.NewServer(deps)
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if appConfig.Server.OpsPort != "" {
		servers = append(servers, &http.Server{
			Addr:              ":" + appConfig.Server.OpsPort,
			Handler:           metrics.NewOpsRouter(appContainer.Ready),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Printf("🚀 Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: shutdown of %s failed: %v", srv.Addr, err)
			}
		}
		return nil
	})

	return g.Wait()
}
