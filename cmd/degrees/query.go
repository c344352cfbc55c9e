package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/spf13/cobra"
)

func newQueryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query <source> <target>",
		Short: "Find the shortest paths between two page titles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.HandleQuery(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func newRecentCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > storage.MaxRecentLimit {
				return fmt.Errorf("--limit must be between 1 and %d, got %d", storage.MaxRecentLimit, limit)
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			searchLog, err := storage.NewSearchLog(cfg.SearchesDBPath)
			if err != nil {
				return err
			}
			defer searchLog.Close()

			records, err := searchLog.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of searches to list")
	return cmd
}
