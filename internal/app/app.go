package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/bridge"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/events"
	"github.com/ternarybob/stencil/internal/figma"
	"github.com/ternarybob/stencil/internal/interfaces"
	storage "github.com/ternarybob/stencil/internal/storage/badger"
)

// App holds the bridge components and their lifecycle. The command queue is
// owned here and handed to the relay explicitly; nothing is process-global.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	EventService interfaces.EventService
	Queue        *bridge.Queue

	// Read-tool components, present only when built with NewWithTools
	DB          *storage.BadgerDB
	APICache    interfaces.APICache
	FigmaClient *figma.Client

	retention *cron.Cron
}

// New wires the bridge core: event service, command queue and the retention
// sweep. This is everything the standalone relay binary needs.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	a.EventService = events.NewService(logger)
	a.Queue = bridge.NewQueue(bridge.Options{
		LeaseDuration: config.Bridge.LeaseDurationValue(),
		MaxCommands:   config.Bridge.Retention.MaxCommands,
		MaxAge:        config.Bridge.Retention.MaxAgeValue(),
	}, a.EventService, logger)

	schedule := config.Bridge.Retention.SweepSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}
	a.retention = cron.New()
	if _, err := a.retention.AddFunc(schedule, func() {
		if evicted := a.Queue.Sweep(time.Now()); evicted > 0 {
			logger.Info().Int("evicted", evicted).Msg("Queue retention sweep")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid retention sweep schedule %q: %w", schedule, err)
	}
	a.retention.Start()

	return a, nil
}

// NewWithTools wires the bridge core plus the read-tool stack: the Badger
// response cache and the design-tool API client. Used by the MCP binary.
func NewWithTools(config *common.Config, logger arbor.ILogger) (*App, error) {
	a, err := New(config, logger)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.DB = db
	a.APICache = storage.NewAPICache(db, logger)
	a.FigmaClient = figma.NewClient(&config.Figma, a.APICache, logger)

	return a, nil
}

// Close stops the retention sweep and releases storage.
func (a *App) Close() {
	if a.retention != nil {
		a.retention.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
