// Command timesyncd runs the time-synchronization daemon: it loads config,
// opens the record store, and drives sync runs against configured servers
// until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/uuid"
	"github.com/urfave/cli/v2"

	"github.com/mobster570/ticketime/api"
	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/config"
	"github.com/mobster570/ticketime/drift"
	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/extract"
	"github.com/mobster570/ticketime/log"
	"github.com/mobster570/ticketime/signaler"
	"github.com/mobster570/ticketime/store"
)

var configPath string

func main() {
	app := cli.NewApp()
	app.Name = "timesyncd"
	app.Usage = "synchronize local time against HTTP servers' Date headers"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       "",
			Usage:       "path to a YAML config file",
			Destination: &configPath,
		},
	}
	app.Commands = []*cli.Command{
		addServerCommand,
		listServersCommand,
		syncCommand,
	}
	app.Action = runDaemon

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildService() (*api.Service, store.Store, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log.SetupGlobalLogger(&log.Config{Level: settings.LogLevel})

	st, err := store.OpenSQLite(settings.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	proberFactory := engine.DefaultProberFactory(time.Duration(settings.PerProbeDeadlineMS) * time.Millisecond)
	orch := engine.NewOrchestrator(clock.System{}, proberFactory)
	driftCache := drift.NewStoreCache(st, settings.HealthResyncThreshold())

	svc := api.NewService(orch, st, driftCache, settings.EngineParams())
	return svc, st, nil
}

var addServerCommand = &cli.Command{
	Name:      "add-server",
	Usage:     "register a server to synchronize against",
	ArgsUsage: "<url>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one argument: <url>", 1)
		}
		svc, st, err := buildService()
		if err != nil {
			return err
		}
		defer st.Close()

		target, err := svc.AddServer(c.Context, c.Args().First(), extract.DateHeader)
		if err != nil {
			return err
		}
		fmt.Printf("registered server %s -> %s\n", target.ID, target.URL)
		return nil
	},
}

var listServersCommand = &cli.Command{
	Name:  "list-servers",
	Usage: "list registered servers",
	Action: func(c *cli.Context) error {
		svc, st, err := buildService()
		if err != nil {
			return err
		}
		defer st.Close()

		targets, err := svc.ListServers(c.Context)
		if err != nil {
			return err
		}
		for _, t := range targets {
			fmt.Printf("%s\t%s\n", t.ID, t.URL)
		}
		return nil
	},
}

var syncCommand = &cli.Command{
	Name:      "sync",
	Usage:     "run a single synchronization against a registered server and print the result",
	ArgsUsage: "<server-id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one argument: <server-id>", 1)
		}
		id, err := uuid.FromString(c.Args().First())
		if err != nil {
			return fmt.Errorf("parsing server id: %w", err)
		}

		svc, st, err := buildService()
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := svc.StartSyncAndWait(c.Context, id, 2*time.Minute)
		if err != nil {
			return err
		}
		fmt.Printf("offset=%.3fms verified=%v phase=%s\n", result.TotalOffsetMS, result.Verified, result.PhaseReached)
		return nil
	},
}

// runDaemon is the default action: it starts continuous sync loops for
// every registered server and blocks until interrupted.
func runDaemon(c *cli.Context) error {
	svc, st, err := buildService()
	if err != nil {
		return err
	}
	defer st.Close()

	targets, err := svc.ListServers(c.Context)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Infoln(log.API, "no servers registered, exiting")
		return nil
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	interrupt := signaler.WaitForInterrupt()
	go func() {
		sig := <-interrupt
		log.Warnf(log.API, "received %v, shutting down", sig)
		cancel()
	}()

	for _, target := range targets {
		go runLoop(ctx, svc, target.ID)
	}

	<-ctx.Done()
	return nil
}

// runLoop repeats a sync once an hour for a single server until ctx is
// cancelled.
func runLoop(ctx context.Context, svc *api.Service, id uuid.UUID) {
	for {
		result, err := svc.StartSyncAndWait(ctx, id, 2*time.Minute)
		if err != nil {
			log.Errorf(log.API, "sync failed for %s: %v", id, err)
		} else {
			log.Infof(log.API, "sync complete for %s: offset=%.3fms verified=%v", id, result.TotalOffsetMS, result.Verified)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Hour):
		}
	}
}
