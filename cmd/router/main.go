package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/newsdesk/ingest-router/internal/app"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	flushCache := flag.Bool("flush-dedup", false, "flush the deduplication cache and exit")
	flag.Parse()

	application, err := app.New(app.Options{
		ConfigPath: *configPath,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	if *flushCache {
		if err := application.FlushDedupCache(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush dedup cache: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
		os.Exit(1)
	}
}
