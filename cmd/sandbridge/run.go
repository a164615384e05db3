package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hostbridge/sandbridge"
	"github.com/hostbridge/sandbridge/internal/ipcfeed"
)

var (
	preloadFlag string
	configFlag  string
	feedFlag    string
	codecFlag   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a preload script in a sandboxed context",
	Run:   runCommand,
}

func init() {
	runCmd.Flags().StringVar(&preloadFlag, "preload", "", "Path to the preload script")
	runCmd.Flags().StringVar(&configFlag, "config", "", "Path to a YAML config file")
	runCmd.Flags().StringVar(&feedFlag, "feed", "", "WebSocket URL of a notification feed")
	runCmd.Flags().StringVar(&codecFlag, "codec", "", "Feed codec (json or msgpack)")
}

func runCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load configuration")
	}

	// Flags override file and environment settings.
	if preloadFlag != "" {
		cfg.Preload.Path = preloadFlag
	}
	if feedFlag != "" {
		cfg.Feed.URL = feedFlag
	}
	if codecFlag != "" {
		cfg.Feed.Codec = codecFlag
	}
	if cfg.Preload.Path == "" {
		log.Fatal().Msg("No preload script configured; pass --preload or set preload.path")
	}

	bridge, err := sandbridge.New(sandbridge.Options{
		Config:   cfg.coreConfig(),
		Switches: sandbridge.Switches{sandbridge.PreloadSwitch: cfg.Preload.Path},
		Logger:   &log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't start the bridge")
	}
	defer bridge.Close()

	unit := sandbridge.StaticUnit{Main: true, Label: "main"}
	bridge.OnUnitCreated(unit)

	ec, err := bridge.CreateContext(unit)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't create the execution context")
	}
	if err := bridge.OnScriptContextCreated(ec); err != nil {
		log.Fatal().Err(err).Msg("Preload script failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Feed.URL != "" {
		codec, err := ipcfeed.CodecByName(cfg.Feed.Codec)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid feed codec")
		}
		feed, err := ipcfeed.Dial(ctx, cfg.Feed.URL, codec, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't connect to the feed")
		}
		log.Info().Str("url", cfg.Feed.URL).Str("codec", codec.Name()).
			Msg("Consuming notification feed")
		if err := feed.Run(ctx, bridge.MessageSink(ec)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Feed terminated")
		}
	} else {
		<-ctx.Done()
	}

	log.Info().Msg("Shutting down")
	if err := bridge.OnScriptContextReleasing(ec); err != nil {
		log.Error().Err(err).Msg("Exit handler failed")
	}
	bridge.DestroyContext(ec)
}
