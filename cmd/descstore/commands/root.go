package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/descstore/config"
	"github.com/PowerDNS/descstore/config/logger"
	"github.com/PowerDNS/descstore/record"
	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/store"
)

const defaultConfigFile = "descstore.yaml"

var (
	configFile string
	dbPath     string
	debug      bool
	logConfig  bool
	timeout    time.Duration
	conf       config.Config
)

var (
	// These are set by Execute
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

const (
	TimeoutExitCode = 75 // picked EX_TEMPFAIL from sysexits.h
)

func applyTimeout() {
	if timeout <= 0 {
		return
	}
	logrus.WithField("timeout", timeout).Info("Setting command timeout")
	go func() {
		time.Sleep(timeout)
		logrus.Warn("Timeout reached")
		t := time.AfterFunc(10*time.Second, func() {
			logrus.Error("Shutdown took too long, forcing exit")
			os.Exit(TimeoutExitCode)
		})
		rootCancel()
		t.Stop()
		logrus.Error("Exiting due to timeout")
		os.Exit(TimeoutExitCode)
	}()
}

var rootHelp = `This tool loads description files into a SQLite table and serves
them by source id and in keyset pages.
`

var rootCmd = &cobra.Command{
	Use:   "descstore",
	Short: "Load and query descriptions in a SQLite table",
	Long:  rootHelp,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		conf = config.Default()
		conf.Version = version
		if err := loadConfigFile(cmd); err != nil {
			logrus.Fatalf("Load config file %q: %v", configFile, err)
		}
		if dbPath != "" {
			conf.Database.Path = dbPath
		}
		conf.Log = conf.Log.Merge(logger.FlagConfig)
		if debug {
			conf.Log.Level = "debug"
		}
		if err := conf.Check(); err != nil {
			logrus.Fatalf("Config error: %v", err)
		}
		logger.Configure(conf.Log)
		logrus.WithField("version", version).Debug("Running")
		if logConfig {
			logrus.Infof("Effective configuration:\n%s\n", conf.String())
		}
		applyTimeout()
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
	Version: version,
}

// loadConfigFile loads the config file. A missing default config file is
// not an error, so that the tool can run with flags only.
func loadConfigFile(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			logrus.WithField("config", configFile).Debug("No config file, using defaults")
			return nil
		}
	}
	return conf.LoadYAMLFile(configFile, true)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path, overrides database.path")
	rootCmd.PersistentFlags().BoolVar(&logConfig, "log-config", false, "Log the evaluated configuration on startup")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0,
		fmt.Sprintf("Timeout for command execution (exit code %d)", TimeoutExitCode))
	logger.RegisterFlagsWith(rootCmd.PersistentFlags().StringVar)
}

func Execute() {
	rootCtx, rootCancel = context.WithCancel(context.Background())
	defer rootCancel()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) && timeout > 0 {
			logrus.Error("Context cancelled, likely due to timeout")
			os.Exit(TimeoutExitCode)
		}
		logrus.WithError(err).Error("Error")
		os.Exit(1)
	}
}

// openStore opens the configured database and creates the schema if needed.
// The caller must close the returned db.
func openStore(ctx context.Context) (*store.Store, *sql.DB, error) {
	db, err := store.Open(ctx, conf.Database.Path, conf.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(db, conf.Database.Options)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logrus.WithField("db", conf.Database.Path).Debug("Database opened")
	return st, db, nil
}

// openService is openStore followed by service.New with the configured parser
func openService(ctx context.Context, opts service.Options) (*service.Service, *sql.DB, error) {
	st, db, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts.Parser = record.Parser{MaxSize: conf.Input.MaxSize}
	return service.New(st, opts), db, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logrus.WithError(err).Warn("Database close failed")
	}
}
