// Package logger configures logrus from the config file and command line flags.
package logger

import (
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	LogLevels     = []string{"debug", "info", "warning", "error", "fatal"}
	LogFormats    = []string{"human", "logfmt", "json"}
	LogTimestamps = []string{"short", "disable", "full"}
)

// Config configures logging
type Config struct {
	Level     string `yaml:"level"`     // One of LogLevels
	Format    string `yaml:"format"`    // One of LogFormats
	Timestamp string `yaml:"timestamp"` // One of LogTimestamps
}

// DefaultConfig defines the default configuration
var DefaultConfig = Config{
	Level:     "info",
	Format:    "human",
	Timestamp: "short",
}

// FlagConfig captures flag values and defaults to zero values
var FlagConfig = Config{}

// RegisterFlags registers the log flags with the standard flag package
func RegisterFlags() {
	RegisterFlagsWith(flag.StringVar)
}

// StringVarFlagFunc has the signature of flag.StringVar
type StringVarFlagFunc func(*string, string, string, string)

// RegisterFlagsWith registers the log flags with stringVar, which allows
// using it with Cobra. The flags default to empty, so that Merge only
// overrides what was actually set on the command line.
func RegisterFlagsWith(stringVar StringVarFlagFunc) {
	stringVar(&FlagConfig.Level, "log-level", "", "Log level "+
		addDefaults(DefaultConfig.Level, LogLevels))
	stringVar(&FlagConfig.Format, "log-format", "", "Log format "+
		addDefaults(DefaultConfig.Format, LogFormats))
	stringVar(&FlagConfig.Timestamp, "log-timestamp", "", "Log timestamp "+
		addDefaults(DefaultConfig.Timestamp, LogTimestamps))
}

// Check validates a Config instance
func (c Config) Check() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: must be one of: %s", strings.Join(LogLevels, ", "))
	}
	if !slices.Contains(LogFormats, c.Format) {
		return fmt.Errorf("log.format: must be one of: %s", strings.Join(LogFormats, ", "))
	}
	if c.Timestamp != "" && !slices.Contains(LogTimestamps, c.Timestamp) {
		return fmt.Errorf("log.timestamp: must be one of: %s", strings.Join(LogTimestamps, ", "))
	}
	return nil
}

// Merge returns c with all non-empty values of o applied
func (c Config) Merge(o Config) Config {
	if o.Level != "" {
		c.Level = o.Level
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Timestamp != "" {
		c.Timestamp = o.Timestamp
	}
	return c
}

// Configure configures the standard logrus logger according to Config
func Configure(c Config) {
	ConfigureLogger(logrus.StandardLogger(), c)
}

// ConfigureLogger configures l according to Config
func ConfigureLogger(l *logrus.Logger, c Config) {
	l.SetFormatter(Formatter(c))

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		// Should have been validated before calling this
		l.Warnf("Ignoring invalid log level: %s", c.Level)
	} else {
		l.SetLevel(level)
	}
}

// Formatter returns the logrus.Formatter for Config
func Formatter(c Config) logrus.Formatter {
	noTimestamp := c.Timestamp == "disable"
	fullTimestamp := c.Timestamp == "full"

	switch c.Format {
	case "json":
		return &logrus.JSONFormatter{DisableTimestamp: noTimestamp}
	case "logfmt":
		return &logrus.TextFormatter{
			DisableColors:    true, // this sets logfmt
			DisableTimestamp: noTimestamp,
			FullTimestamp:    fullTimestamp,
		}
	default:
		return &TableFormatter{
			Parent: &logrus.TextFormatter{
				DisableTimestamp: noTimestamp,
				FullTimestamp:    fullTimestamp,
			},
		}
	}
}

// TableFormatter is a logrus formatter that moves the 'table' field into
// a message prefix for nicer human output.
type TableFormatter struct {
	Parent logrus.Formatter
}

// Format implements logrus.Formatter
func (f *TableFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if table, ok := entry.Data["table"].(string); ok {
		e := entry.Dup()
		delete(e.Data, "table")
		e.Level = entry.Level
		e.Message = fmt.Sprintf("[%-12s] %s", table, entry.Message)
		return f.Parent.Format(e)
	}
	return f.Parent.Format(entry)
}

func addDefaults(def string, options []string) string {
	return fmt.Sprintf("(default: %s; options: %s)", def, strings.Join(options, ", "))
}
