package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/app"
	"github.com/ternarybob/stencil/internal/canvas"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/executor"
	"github.com/ternarybob/stencil/internal/server"
)

var (
	configFile   = flag.String("config", "", "Configuration file path (default: stencil.toml when present)")
	serverPort   = flag.Int("port", 0, "Relay port (overrides config)")
	serverHost   = flag.String("host", "", "Relay host (overrides config)")
	runExecutor  = flag.Bool("executor", false, "Run the embedded executor against an in-memory canvas document")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Stencil version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	path := *configFile
	if path == "" {
		if _, err := os.Stat("stencil.toml"); err == nil {
			path = "stencil.toml"
		}
	}

	var err error
	config, err = common.LoadFromFile(path)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Starting Stencil bridge relay")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	srv := server.New(config, application.Queue, application.EventService, logger)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("Server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Relay failed to start")
		}
	}()

	// Give the listener a moment to bind (and possibly walk to a free port)
	time.Sleep(100 * time.Millisecond)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, srv.CurrentPort())).
		Msg("Relay ready - Press Ctrl+C to stop")

	var embedded *executor.Executor
	if *runExecutor {
		doc := canvas.NewDocument()
		embedded = executor.New(executor.Config{
			BaseURL:      fmt.Sprintf("http://%s:%d", config.Server.Host, srv.CurrentPort()),
			PollInterval: config.Bridge.PollIntervalValue(),
			GraceDelay:   config.Bridge.GraceDelayValue(),
			Notify: func(n executor.Notice) {
				if n.Success {
					logger.Info().Str("command_id", n.CommandID).Str("type", string(n.Type)).Msg("Command completed")
				} else {
					logger.Warn().Str("command_id", n.CommandID).Str("type", string(n.Type)).Str("error", n.Message).Msg("Command failed")
				}
			},
		}, executor.DocumentHandlers(doc), logger)

		if err := embedded.Connect(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Embedded executor could not reach the relay")
		}
		logger.Info().Msg("Embedded executor polling the relay")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	if embedded != nil {
		embedded.Disconnect()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Relay shutdown failed")
	}

	logger.Info().Msg("Relay stopped")
}
