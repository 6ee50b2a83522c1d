// Package config implements the YAML config file parser
package config

import (
	"fmt"
	"net"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/PowerDNS/descstore/config/logger"
	"github.com/PowerDNS/descstore/status/healthtracker"
	"github.com/PowerDNS/descstore/status/starttracker"
	"github.com/PowerDNS/descstore/store"
)

const (
	// DefaultMaxInputSize limits the size of a single input file after
	// decompression.
	DefaultMaxInputSize = 256 * datasize.MB

	// DefaultMaxPageSize is the largest page size accepted over HTTP
	DefaultMaxPageSize = 1000
)

// Config is the config root object
type Config struct {
	Database Database      `yaml:"database"`
	Input    Input         `yaml:"input"`
	Storage  Storage       `yaml:"storage"`
	HTTP     HTTP          `yaml:"http"`
	Health   Health        `yaml:"health"`
	Log      logger.Config `yaml:"log"`

	// Set to current version by main
	Version string `yaml:"-"`
}

// Database configures the SQLite database holding the descriptions
type Database struct {
	Path          string `yaml:"path"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	store.Options `yaml:",inline"`
}

// Input configures the parsing of input files
type Input struct {
	MaxSize datasize.ByteSize `yaml:"max_size"` // after decompression, 0 for unlimited
}

// Storage configures an optional simpleblob backend to load input files from
type Storage struct {
	Type    string                 `yaml:"type"`
	Options map[string]interface{} `yaml:"options"`
}

// HTTP configures the HTTP server with the API, Prometheus metrics and
// status page
type HTTP struct {
	Address         string `yaml:"address"` // Address like ":8000"
	MaxPageSize     int    `yaml:"max_page_size"`
	LoadConcurrency int    `yaml:"load_concurrency"`
}

// Health configures the healthz checks of the server
type Health struct {
	Load    healthtracker.HealthConfig `yaml:"load"`
	Startup starttracker.StartConfig   `yaml:"startup"`
}

// Check validates a Config instance
func (c Config) Check() error {
	if err := c.Log.Check(); err != nil {
		return err
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path: no path configured")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns: must not be negative")
	}
	if err := c.Database.Options.Check(); err != nil {
		return fmt.Errorf("database: %v", err)
	}
	if c.HTTP.Address != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Address); err != nil {
			return fmt.Errorf("http.address: %v", err)
		}
	}
	if c.HTTP.MaxPageSize < 1 {
		return fmt.Errorf("http.max_page_size: must be at least 1")
	}
	if c.HTTP.LoadConcurrency < 1 {
		return fmt.Errorf("http.load_concurrency: must be at least 1")
	}
	if c.Health.Load.WarnSequence > c.Health.Load.ErrorSequence {
		return fmt.Errorf("health.load.warn_sequence: must not exceed error_sequence")
	}
	return nil
}

// String returns the config as a YAML string
func (c Config) String() string {
	y, err := yaml.Marshal(c)
	if err != nil {
		logrus.Panicf("YAML marshal of config failed: %v", err) // Should never happen
	}
	return string(y)
}

// LoadYAML loads config from YAML. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAML(yamlContents []byte, expandEnv bool) error {
	if expandEnv {
		yamlContents = []byte(os.ExpandEnv(string(yamlContents)))
	}
	return yaml.UnmarshalStrict(yamlContents, c)
}

// LoadYAMLFile loads config from a YAML file. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAMLFile(fpath string, expandEnv bool) error {
	contents, err := os.ReadFile(fpath)
	if err != nil {
		return errors.Wrap(err, "open yaml file")
	}
	return c.LoadYAML(contents, expandEnv)
}

// Default returns a Config with default settings
func Default() Config {
	return Config{
		Database: Database{
			Path:         "descstore.db",
			MaxOpenConns: 4,
			Options: store.Options{
				Table:        store.DefaultTable,
				HistoryTable: store.DefaultHistoryTable,
			},
		},
		Input: Input{
			MaxSize: DefaultMaxInputSize,
		},
		HTTP: HTTP{
			MaxPageSize:     DefaultMaxPageSize,
			LoadConcurrency: 1,
		},
		Health: Health{
			Load:    healthtracker.DefaultConfig,
			Startup: starttracker.DefaultConfig,
		},
		Log: logger.DefaultConfig,
	}
}
