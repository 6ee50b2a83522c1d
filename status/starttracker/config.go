package starttracker

import (
	"time"
)

const (
	// MinEvaluationInterval is the minimum interval allowed between healthz evaluation
	MinEvaluationInterval = time.Second
)

// StartConfig configures how a pending startup is reported
type StartConfig struct {
	EvaluationInterval time.Duration `yaml:"interval"`
	ErrorDuration      time.Duration `yaml:"error_duration"`
	WarnDuration       time.Duration `yaml:"warn_duration"`
	ReportHealthz      bool          `yaml:"report_healthz"`
	ReportMetadata     bool          `yaml:"report_metadata"`
}

// DefaultConfig reports a startup without any data as a warning after a
// minute and as an error after an hour.
var DefaultConfig = StartConfig{
	EvaluationInterval: 5 * time.Second,
	ErrorDuration:      time.Hour,
	WarnDuration:       time.Minute,
	ReportHealthz:      true,
	ReportMetadata:     true,
}

func (sc StartConfig) Validated() StartConfig {
	if sc.EvaluationInterval < MinEvaluationInterval {
		sc.EvaluationInterval = MinEvaluationInterval
	}
	if sc.ErrorDuration < 0 {
		sc.ErrorDuration = 0
	}
	if sc.WarnDuration < 0 {
		sc.WarnDuration = 0
	}
	return sc
}
