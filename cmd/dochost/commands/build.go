package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/dochost/internal/project"
)

// BuildCmd runs update+build once and exits, for CI pipelines and cron.
type BuildCmd struct {
	NoUpdate bool `help:"Build from the sources already on disk without fetching"`
}

func (b *BuildCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.orch.Run(ctx, !b.NoUpdate); err != nil {
		return err
	}

	var failed []string
	for _, e := range rt.orch.Entries() {
		if st := rt.orch.Board().Get(e.Route); st.Status != project.StatusOK {
			failed = append(failed, e.Route+" ("+string(st.Status)+")")
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d projects degraded: %s", len(failed), len(rt.orch.Entries()), strings.Join(failed, ", "))
	}
	return nil
}
