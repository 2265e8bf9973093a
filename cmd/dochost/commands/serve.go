package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/metrics"
	"git.home.luguber.info/inful/dochost/internal/scheduler"
	"git.home.luguber.info/inful/dochost/internal/server"
)

// ServeCmd runs the full pipeline and then serves the result.
type ServeCmd struct{}

func (s *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.close()

	// The listener binds only after the first full pass, so a fatal
	// configuration problem surfaces as a non-zero exit instead of a
	// half-working site.
	table, err := rt.orch.Run(ctx, rt.cfg.UpdateOnStart)
	if err != nil {
		return err
	}

	if interval := rt.cfg.RefreshInterval.Std(); interval > 0 {
		sched, err := scheduler.New()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRefresh(interval, func() { rt.orch.Refresh(ctx) }); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
		slog.Info("Periodic refresh enabled", slog.Duration("interval", interval))
	}

	srv := server.New(rt.cfg, table, rt.orch.Entries(), rt.orch.Board(), server.Options{
		History:           rt.hist,
		Recorder:          rt.recorder,
		PrometheusHandler: metrics.HTTPHandler(rt.registry),
	})
	return srv.Start(ctx)
}
