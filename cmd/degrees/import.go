package main

import (
	"fmt"

	"github.com/alvmarrod/degrees/internal/importer"
	"github.com/alvmarrod/degrees/internal/memory"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newImportCmd(configPath *string) *cobra.Command {
	var files importer.Files

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load tab-separated page, link and redirect dumps into the graph database",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			graph := memory.NewGraph()
			if _, err := importer.LoadFiles(graph, files); err != nil {
				return err
			}
			pages, links, redirects := graph.GetStats()
			if pages == 0 {
				return fmt.Errorf("no pages loaded from %s", files.Pages)
			}
			logrus.Infof("Graph ready: %d pages, %d links, %d redirects", pages, links, redirects)

			store, err := storage.NewStorage(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			logrus.Infof("Flushing graph to %s...", cfg.DBPath)
			if err := graph.Flush(store); err != nil {
				return err
			}
			logrus.Info("Import finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&files.Pages, "pages", "", "Pages dump (id, title, is_redirect)")
	cmd.Flags().StringVar(&files.Links, "links", "", "Links dump (from_id, to_id)")
	cmd.Flags().StringVar(&files.Redirects, "redirects", "", "Redirects dump (source_id, target_id)")
	_ = cmd.MarkFlagRequired("pages")
	_ = cmd.MarkFlagRequired("links")
	return cmd
}
