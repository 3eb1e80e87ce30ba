// posture-server — HTTP API анализа осанки и генерации планов пилатеса.
//
// Запуск:
//
//	go run ./cmd/posture-server -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ilkoid/pilates-vision/internal/api"
	"github.com/ilkoid/pilates-vision/internal/app"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

var (
	configFlag   = flag.String("config", "", "Path to config.yaml")
	portFlag     = flag.String("port", "", "Override server.port")
	shutdownWait = flag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "posture-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}

	if err := utils.InitLogger(utils.LoggerOptions{Dir: cfg.App.LogsDir, Debug: cfg.App.Debug}); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	utils.Info("posture-server starting", "config", cfgPath)

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	components, err := app.Initialize(initCtx, cfg, app.Options{})
	initCancel()
	if err != nil {
		utils.Error("Initialization failed", "error", err)
		return err
	}
	defer components.Close()

	handler := api.NewHandler(components.Store, components.Analysis, components.Plans)

	port := cfg.Server.Port
	if *portFlag != "" {
		port = *portFlag
	}

	// Анализ и план ждут LLM, поэтому WriteTimeout больше таймаута модели.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			utils.Error("Server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	utils.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("Server forced to shutdown", "error", err)
		return err
	}

	utils.Info("Server stopped")
	return nil
}
