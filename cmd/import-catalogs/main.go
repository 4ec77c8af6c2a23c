// Package main provides a CLI tool that stores YAML action catalogues in
// PostgreSQL, lists stored catalogues and deletes them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/catalog"
	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/observability"
	"github.com/cory-johannsen/goap/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "directory of catalogue YAML files to import")
	list := flag.Bool("list", false, "list stored catalogues")
	deleteID := flag.String("delete", "", "ID of a stored catalogue to delete")
	flag.Parse()

	if *sourceDir == "" && !*list && *deleteID == "" {
		fmt.Fprintln(os.Stderr, "usage: import-catalogs [-config <file>] (-source <dir> | -list | -delete <id>)")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.String("host", cfg.Database.Host), zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Health(ctx, postgres.DefaultHealthTimeout); err != nil {
		logger.Fatal("database unhealthy", zap.String("host", cfg.Database.Host), zap.Error(err))
	}

	repo := postgres.NewCatalogRepository(pool.DB())

	if *deleteID != "" {
		if err := repo.Delete(ctx, *deleteID); err != nil {
			log.Fatalf("deleting catalogue %q: %v", *deleteID, err)
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", *deleteID)
	}

	if *sourceDir != "" {
		catalogs, err := catalog.LoadCatalogs(*sourceDir)
		if err != nil {
			log.Fatalf("loading catalogues: %v", err)
		}
		for _, c := range catalogs {
			rec, err := repo.Save(ctx, c)
			if err != nil {
				log.Fatalf("saving catalogue %q: %v", c.ID, err)
			}
			fmt.Fprintf(os.Stdout, "imported %s (version=%d actions=%d)\n", rec.ID, rec.Version, rec.Actions)
		}
	}

	if *list {
		recs, err := repo.List(ctx)
		if err != nil {
			log.Fatalf("listing catalogues: %v", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tVERSION\tACTIONS\tUPDATED\tDESCRIPTION")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.ID, r.Version, r.Actions, r.UpdatedAt.Format(time.RFC3339), r.Description)
		}
		if err := tw.Flush(); err != nil {
			log.Fatalf("writing listing: %v", err)
		}
	}

	fmt.Fprintf(os.Stdout, "done [%s]\n", time.Since(start).Round(time.Millisecond))
}
