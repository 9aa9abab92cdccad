// Command ragpipe runs the document-ingestion pipeline once, or repeatedly
// under a polling --watch loop, against the config directory's merged YAML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
	"ragpipe/internal/logging"
	"ragpipe/internal/pipeline"
)

func main() {
	var (
		configDir     = flag.String("config-dir", "config", "directory of *.yaml config fragments to merge")
		envFile       = flag.String("env-file", "", "optional .env file loaded before config")
		logLevel      = flag.String("log-level", "", "DEBUG|INFO|WARNING|ERROR|CRITICAL (overrides config log_level)")
		status        = flag.Bool("status", false, "validate config and the stage pipeline, print a summary, and exit")
		watch         = flag.Bool("watch", false, "poll the configured watch root for new files instead of running once")
		watchInterval = flag.Int("watch-interval", 0, "seconds between polls under --watch (overrides pipeline.watch_interval_seconds)")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragpipe: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logging.Init(cfg.LogPath, level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	built, err := pipeline.Build(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("ragpipe: building pipeline")
		os.Exit(1)
	}
	if err := built.Engine.Validate(); err != nil {
		log.Error().Err(err).Msg("ragpipe: pipeline config invalid")
		os.Exit(1)
	}

	if *status {
		printStatus(cfg, built)
		return
	}

	interval := time.Duration(cfg.Pipeline.WatchInterval) * time.Second
	if *watchInterval > 0 {
		interval = time.Duration(*watchInterval) * time.Second
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	if !*watch {
		if err := runOnce(ctx, built, cfg); err != nil {
			reportRunError(err)
			os.Exit(1)
		}
		return
	}

	log.Info().Dur("interval", interval).Msg("ragpipe: watching for new files")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := runOnce(ctx, built, cfg); err != nil {
			reportRunError(err)
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("ragpipe: shutting down")
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, built *pipeline.Built, cfg *config.Config) error {
	files, err := discoverFiles(cfg.Lifecycle.WatchDirs, cfg.Lifecycle.WatchDir, cfg.Lifecycle.ProcessedDir, cfg.Lifecycle.ErrorsDir)
	if err != nil {
		return fmt.Errorf("discovering watch files: %w", err)
	}
	if len(files) == 0 {
		log.Info().Msg("ragpipe: no files to process")
		return nil
	}
	log.Info().Int("files", len(files)).Msg("ragpipe: starting run")

	bb := &pipeline.Blackboard{MonitoredFiles: files}
	statuses, err := built.Engine.Run(ctx, bb)
	for _, s := range statuses {
		log.Info().Str("stage", s.Name).Dur("elapsed", s.Duration).Bool("failed", s.Err != nil).Msg("ragpipe: stage status")
	}
	return err
}

func reportRunError(err error) {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		fmt.Fprintf(os.Stderr, "%s\n", stageErr.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "ragpipe: run failed: %v\n", err)
}

// discoverFiles walks every configured watch root and returns the regular
// files found under it, skipping dotfiles. This stands in for a real
// filesystem watcher: --watch re-polls the same roots on a timer rather
// than reacting to inotify/fsevents.
func discoverFiles(roots []string, single string, excludeDirs ...string) ([]string, error) {
	if len(roots) == 0 && single != "" {
		roots = []string{single}
	}
	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}

	var out []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if abs, aerr := filepath.Abs(path); aerr == nil && skip[abs] {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if len(name) > 0 && name[0] == '.' {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return out, nil
}

func printStatus(cfg *config.Config, built *pipeline.Built) {
	fmt.Println("ragpipe: configuration OK")
	fmt.Printf("vector store backend: %s (collection=%s)\n", cfg.VectorStore.Backend, cfg.VectorStore.Collection)
	fmt.Printf("extraction fallback chain: %v\n", cfg.Extraction.FallbackChain)
	fmt.Printf("chunking strategy: %s\n", cfg.Chunking.Strategy)
	fmt.Printf("watch roots: %v\n", watchRoots(cfg))
	if built.Extraction != nil {
		fmt.Println("extraction stage: enabled")
	}
}

func watchRoots(cfg *config.Config) []string {
	if len(cfg.Lifecycle.WatchDirs) > 0 {
		return cfg.Lifecycle.WatchDirs
	}
	if cfg.Lifecycle.WatchDir != "" {
		return []string{cfg.Lifecycle.WatchDir}
	}
	return nil
}
