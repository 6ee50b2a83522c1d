package healthtracker

import (
	"time"
)

const (
	// MinEvaluationInterval is the minimum interval allowed between healthz evaluation
	MinEvaluationInterval = time.Second
)

// HealthConfig sets the thresholds after which consecutive failures of an
// activity turn the health check into a warning or an error.
type HealthConfig struct {
	ErrorDuration      time.Duration `yaml:"error_duration"`
	WarnDuration       time.Duration `yaml:"warn_duration"`
	ErrorSequence      uint32        `yaml:"error_sequence"`
	WarnSequence       uint32        `yaml:"warn_sequence"`
	EvaluationInterval time.Duration `yaml:"interval"`
}

// DefaultConfig is the default for load health tracking. A single failed
// load is a warning, three in a row are an error.
var DefaultConfig = HealthConfig{
	ErrorDuration:      time.Hour,
	WarnDuration:       0,
	ErrorSequence:      3,
	WarnSequence:       1,
	EvaluationInterval: 5 * time.Second,
}

// Validated returns the config with out of range values corrected
func (hc HealthConfig) Validated() HealthConfig {
	if hc.EvaluationInterval < MinEvaluationInterval {
		hc.EvaluationInterval = MinEvaluationInterval
	}
	if hc.ErrorDuration < 0 {
		hc.ErrorDuration = 0
	}
	if hc.WarnDuration < 0 {
		hc.WarnDuration = 0
	}
	if hc.ErrorSequence == 0 {
		hc.ErrorSequence = 1
	}
	if hc.WarnSequence == 0 {
		hc.WarnSequence = 1
	}
	return hc
}
