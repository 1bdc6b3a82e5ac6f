package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	dialogue "github.com/studiobgc/dialogue-editor"
	httpAdapter "github.com/studiobgc/dialogue-editor/internal/adapters/http"
	"github.com/studiobgc/dialogue-editor/internal/config"
	"github.com/studiobgc/dialogue-editor/pkg/adapters/memory"
	redisAdapter "github.com/studiobgc/dialogue-editor/pkg/adapters/redis"
	"github.com/studiobgc/dialogue-editor/pkg/importer"
	"github.com/studiobgc/dialogue-editor/pkg/ports"
	"github.com/studiobgc/dialogue-editor/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve <export-file>",
	Short: "Start the session HTTP server",
	Long:  `Imports the export file and exposes dialogue sessions over a JSON API. Sessions live in memory by default, or in Redis when configured.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to a YAML configuration file")
	serveCmd.Flags().String("addr", "", "Listen address, overrides the config file")
}

func runServe(cmd *cobra.Command, path string) error {
	logger := newLogger(cmd)

	cfg := &config.Config{}
	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	playerCfg, err := cfg.PlayerConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	doc, err := importer.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	reg := prometheus.NewRegistry()
	engineOpts := []dialogue.Option{
		dialogue.WithLogger(logger),
		dialogue.WithMetrics(reg),
		dialogue.WithPauseMask(playerCfg.PauseMask),
		dialogue.WithExploreLimit(playerCfg.ExploreLimit),
		dialogue.WithShadowLevelLimit(playerCfg.ShadowLevelLimit),
	}
	if !playerCfg.IgnoreInvalidBranches {
		engineOpts = append(engineOpts, dialogue.WithInvalidBranches())
	}
	factory := func() (*dialogue.Engine, error) {
		res, err := importer.Build(doc)
		if err != nil {
			return nil, err
		}
		return dialogue.NewFromResult(res, engineOpts...)
	}

	var store ports.StateStore
	mgrOpts := []session.Option{session.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		storeOpts := []redisAdapter.StoreOption{redisAdapter.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		store = redisAdapter.NewFromClient(client, storeOpts...)
		mgrOpts = append(mgrOpts, session.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix)))
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore()
	}

	server := httpAdapter.NewServer(factory, session.NewManager(store, mgrOpts...),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithRegistry(reg),
	)

	addr := cfg.ServerAddr()
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting dialogue server on %s\n", srv.Addr)
		fmt.Printf("Serving content from: %s\n", path)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("Dialogue server stopped gracefully")
	}
	return nil
}
