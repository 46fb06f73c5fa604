// Package work provides the command that runs the agent-retention daemon.
package work

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/commands"
	"github.com/taskcluster/agent-retention/config"
	"github.com/taskcluster/agent-retention/fleet"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/monitoring"
	"github.com/taskcluster/agent-retention/runtime/util"
)

func init() {
	commands.Register("work", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Start the agent-retention daemon."
}

func (cmd) Usage() string {
	return `
agent-retention work registers the agents in the config file, checks them on
the configured schedule and serves the agent API until interrupted.

usage: agent-retention work <config.yml>
`
}

// daemon is a running fleet with its scheduler and server
type daemon struct {
	monitor   runtime.Monitor
	fleet     *fleet.Fleet
	scheduler *fleet.Scheduler
	server    *fleet.Server
}

func (cmd) Execute(args map[string]interface{}) bool {
	monitor := monitoring.PreConfig()

	c, err := config.LoadFromFile(args["<config.yml>"].(string), monitor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := setup(ctx, c, prometheus.NewRegistry())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	done := make(chan error, 1)
	go func() {
		done <- d.run(ctx)
	}()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case s := <-sig:
		signal.Stop(sig)
		d.monitor.Infof("received %s, stopping", s)
		d.stop()
		cancel()
		err = <-done
	case err = <-done:
	}

	if err != nil {
		d.monitor.Error("daemon failed: ", err)
		return false
	}
	return true
}

// setup creates the fleet from config and registers all agents
func setup(ctx context.Context, c *config.Config, registry *prometheus.Registry) (*daemon, error) {
	monitor := monitoring.New(c.Monitor, registry)

	provider, err := cloud.New(cloud.ProviderOptions{
		Monitor: monitor,
		Config:  c.Cloud,
	})
	if err != nil {
		return nil, err
	}

	f := fleet.New(fleet.Options{
		Monitor:  monitor,
		Provider: provider,
		Registry: registry,
	})
	for _, agent := range c.Agents {
		if _, err := f.Register(ctx, agent); err != nil {
			return nil, err
		}
	}

	scheduler, err := fleet.NewScheduler(f, c.CheckSchedule, monitor)
	if err != nil {
		return nil, err
	}

	d := &daemon{
		monitor:   monitor,
		fleet:     f,
		scheduler: scheduler,
	}
	if c.Server.Address != "" {
		d.server = fleet.NewServer(c.Server.Address, fleet.NewHandler(f, scheduler, registry, monitor))
	}
	return d, nil
}

// run checks agents on schedule until ctx is cancelled, or the server fails
func (d *daemon) run(ctx context.Context) error {
	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}
	d.monitor.Infof("managing %d agents", len(d.fleet.Agents()))

	if d.server == nil {
		<-ctx.Done()
		return nil
	}
	if err := d.server.ListenAndServe(); err != nil {
		d.scheduler.Stop()
		return errors.Wrap(err, "agent API server failed")
	}
	return nil
}

func (d *daemon) stop() {
	util.Parallel(func() {
		if d.server != nil {
			d.server.Stop(5 * time.Second)
		}
	}, d.scheduler.Stop)
}
