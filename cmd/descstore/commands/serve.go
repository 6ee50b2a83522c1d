package commands

import (
	"context"
	"os"

	"github.com/PowerDNS/simpleblob"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wojas/go-healthz"
	"golang.org/x/sync/errgroup"

	"github.com/PowerDNS/descstore/record"
	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/status"
	"github.com/PowerDNS/descstore/status/healthtracker"
	"github.com/PowerDNS/descstore/status/starttracker"
	"github.com/PowerDNS/descstore/utils/climit"
)

var initialLoad string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&initialLoad, "load", "",
		"Name of a file in the configured storage backend to load on startup")
}

func runServe() error {
	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	st, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)
	table := st.Table()

	health := healthtracker.New(conf.Health.Load, "descstore_load", "load")
	startup := starttracker.New(conf.Health.Startup, "descstore")
	svc := service.New(st, service.Options{
		Parser:    record.Parser{MaxSize: conf.Input.MaxSize},
		Health:    health,
		Startup:   startup,
		LoadLimit: climit.New(table, "load", conf.HTTP.LoadConcurrency, logrus.StandardLogger()),
	})

	startup.SetSchemaReady()
	n, err := svc.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		startup.SetDataPresent()
	}
	logrus.WithField("table", table).WithField("count", n).Info("Table opened")

	healthz.AddBuildInfo()
	if hostname, err := os.Hostname(); err == nil {
		healthz.SetMeta("hostname", hostname)
	}
	healthz.SetMeta("version", version)
	health.Register()
	startup.Register()

	eg, ctx := errgroup.WithContext(ctx)
	if initialLoad != "" {
		eg.Go(func() error {
			st, err := simpleblob.GetBackend(ctx, conf.Storage.Type, conf.Storage.Options)
			if err != nil {
				return err
			}
			// The server keeps serving the previous contents if this fails.
			// The failure is also counted by the load health checks.
			if _, err := svc.LoadFromBlob(ctx, st, initialLoad); err != nil {
				logrus.WithError(err).WithField("source", initialLoad).Warn(
					"Initial load failed, serving previous contents")
			}
			return nil
		})
	}
	eg.Go(func() error {
		return status.Serve(ctx, conf, svc)
	})
	return eg.Wait()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, status page and metrics",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			logrus.WithError(err).Fatal("Error")
		}
	},
}
