package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alvmarrod/degrees/internal/config"
	"github.com/alvmarrod/degrees/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "degrees",
		Short:         "Shortest paths between Wikipedia pages",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to a JSON or YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newQueryCmd(&configPath))
	root.AddCommand(newImportCmd(&configPath))
	root.AddCommand(newRecentCmd(&configPath))
	return root
}

// loadConfig reads the config file (if present) and configures logging
func loadConfig(path string) (*config.Config, error) {
	// Configure logging
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logrus.Debugf("Config file %s not found, using defaults and environment", path)
		path = ""
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)
	return cfg, nil
}
