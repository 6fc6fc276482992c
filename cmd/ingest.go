package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathshala-ai/pathshala/config"
	"github.com/pathshala-ai/pathshala/internal/cache"
	"github.com/pathshala-ai/pathshala/internal/embed"
	"github.com/pathshala-ai/pathshala/internal/ingest"
	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/provider"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var dir string
	var pageURL string
	var collection string
	var module string

	var cmd = &cobra.Command{
		Use:   "ingest",
		Short: "Ingest documents into a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if dir == "" && pageURL == "" {
				return fmt.Errorf("either --dir or --url is required")
			}
			switch collection {
			case store.CollectionReference, store.CollectionCourseNotes:
			default:
				return fmt.Errorf("collection must be %s or %s", store.CollectionReference, store.CollectionCourseNotes)
			}
			if cfg.Storage.Backend != "postgres" {
				return fmt.Errorf("ingest needs the postgres storage backend; the memory index is rebuilt by serve at startup")
			}

			ctx := context.Background()
			st, err := store.NewPostgres(ctx, cfg.Storage.Postgres.DSN())
			if err != nil {
				return err
			}

			p, err := provider.NewProvider(provider.Client(cfg.LLM.Backend), provider.Options{
				BaseURL:     cfg.LLM.BaseURL,
				APIKey:      cfg.LLM.APIKey,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
				Timeout:     cfg.LLM.Timeout,
			})
			if err != nil {
				return err
			}
			factories := map[lang.Language]embed.Factory{
				lang.Primary: embed.ProviderFactory(p, cfg.Embedding.PrimaryModel),
			}
			if cfg.Embedding.TargetModel != "" {
				factories[lang.Target] = embed.ProviderFactory(p, cfg.Embedding.TargetModel)
			}

			var qc cache.Cache
			if cfg.Cache.Backend == "redis" {
				client, err := cache.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
				if err != nil {
					return err
				}
				qc = cache.NewRedisCache(client)
			}

			ing := ingest.New(st, embed.NewRouter(factories), lang.NewClassifier(nil), qc)
			var n int
			if dir != "" {
				n, err = ing.IngestDir(ctx, dir, collection)
			} else {
				n, err = ing.IngestURL(ctx, pageURL, collection, module)
			}
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d chunks into %s\n", n, collection)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of .md/.txt/.html files")
	cmd.Flags().StringVar(&pageURL, "url", "", "course page URL to render and ingest")
	cmd.Flags().StringVar(&collection, "collection", store.CollectionCourseNotes, "target collection")
	cmd.Flags().StringVar(&module, "module", "", "module tag for --url ingestion")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
