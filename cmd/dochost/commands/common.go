// Package commands defines the dochost CLI surface.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/dochost/internal/builder"
	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/events"
	"git.home.luguber.info/inful/dochost/internal/git"
	"git.home.luguber.info/inful/dochost/internal/history"
	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/metrics"
	"git.home.luguber.info/inful/dochost/internal/orchestrator"
)

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.toml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve ServeCmd `cmd:"" default:"withargs" help:"Update, build and serve documentation for all configured projects"`
	Build BuildCmd `cmd:"" help:"Run the update and build pass once without serving (for CI and cron)"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// runtime bundles the collaborators both serve and build assemble from config.
type runtime struct {
	cfg       *config.Config
	orch      *orchestrator.Orchestrator
	hist      *history.Store
	publisher events.Publisher
	registry  *prom.Registry
	recorder  *metrics.PrometheusRecorder
}

// newRuntime wires updater, builder, metrics, history and events for one
// process. Callers must invoke close when done.
func newRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NATSURL != "" {
		p, perr := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if perr != nil {
			// Event delivery is best effort; a missing broker must not keep
			// documentation from being served.
			slog.Warn("NATS unavailable, build events disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(perr))
		} else {
			publisher = p
		}
	}

	orch := orchestrator.New(cfg,
		git.NewUpdater(cfg.UpdateTimeout.Std()),
		builder.New(builder.ExecRunner{}, cfg.BuildTimeout.Std()),
	).
		WithRecorder(recorder).
		WithHistory(hist).
		WithPublisher(publisher)

	return &runtime{
		cfg:       cfg,
		orch:      orch,
		hist:      hist,
		publisher: publisher,
		registry:  registry,
		recorder:  recorder,
	}, nil
}

func (rt *runtime) close() {
	rt.publisher.Close()
	if err := rt.hist.Close(); err != nil {
		slog.Warn("Failed to close history store", logfields.Error(err))
	}
}
