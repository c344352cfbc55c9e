package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alvmarrod/degrees/internal/server"
	"github.com/alvmarrod/degrees/internal/version"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the shortest path HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logrus.Infof("Degrees v%s starting...", version.Version)

			a, err := buildApp(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if logrus.GetLevel() < logrus.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			router := server.NewRouter(server.RouterConfig{
				Queries:        a.service,
				Stats:          a.tracker,
				Recent:         a.searchLog,
				AllowedOrigins: cfg.AllowedOrigins,
			})
			srv := server.New(cfg.ListenAddr, router)
			serveErr := srv.Start()

			// Start progress logger
			stopProgress := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						logrus.Info(a.tracker.LogProgress())
					case <-stopProgress:
						return
					}
				}
			}()

			// Wait for a signal or a listener failure
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			terminationReason := "signal"
			var runErr error
			select {
			case sig := <-sigChan:
				logrus.Infof("Received signal: %v", sig)
			case err := <-serveErr:
				terminationReason = "server_error"
				runErr = err
				logrus.Errorf("Server stopped unexpectedly: %v", err)
			}

			close(stopProgress)

			logrus.Info("Initiating graceful shutdown...")
			logrus.Info("Step 1/3: Draining in-flight requests...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logrus.Warnf("HTTP shutdown incomplete: %v", err)
			}
			wg.Wait()

			logrus.Info("Step 2/3: Writing final metrics...")
			logrus.Info("Final stats: " + a.tracker.LogProgress())
			if err := a.tracker.WriteToFile(cfg.MetricsPath, terminationReason); err != nil {
				logrus.Errorf("Failed to write metrics: %v", err)
			} else {
				logrus.Infof("Metrics written to %s", cfg.MetricsPath)
			}

			// Databases are closed via defer a.Close()
			logrus.Info("Step 3/3: Closing connections...")

			return runErr
		},
	}
}
