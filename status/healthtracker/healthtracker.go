// Package healthtracker exposes the outcome of a repeated activity, like
// loading input files, as healthz checks.
package healthtracker

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wojas/go-healthz"
	"go.uber.org/atomic"
)

type HealthTracker struct {
	Config   HealthConfig
	sequence atomic.Uint32
	since    atomic.Time
	prefix   string
	activity string
	logger   logrus.FieldLogger
}

// New returns a HealthTracker. Call Register to add its checks to healthz.
func New(hc HealthConfig, prefix string, activity string) *HealthTracker {
	return &HealthTracker{
		Config:   hc.Validated(),
		prefix:   prefix,
		activity: activity,
		logger:   logrus.WithField("healthtracker", prefix),
	}
}

// Register registers the consecutive failure and failure duration checks
func (ht *HealthTracker) Register() {
	healthz.Register(ht.prefix+"_failed_attempts", ht.Config.EvaluationInterval, ht.checkSequence)
	healthz.Register(ht.prefix+"_failed_duration", ht.Config.EvaluationInterval, ht.checkDuration)
	ht.logger.Info("registered tracker for consecutive failures and failure duration")
}

func (ht *HealthTracker) checkSequence() error {
	conseqFails := ht.sequence.Load()

	if conseqFails >= ht.Config.ErrorSequence {
		ht.logger.Warnf("%d consecutive failures is violating the error threshold (%d)", conseqFails, ht.Config.ErrorSequence)
		return fmt.Errorf("failed to %s %d consecutive times", ht.activity, conseqFails)
	} else if conseqFails >= ht.Config.WarnSequence {
		ht.logger.Warnf("%d consecutive failures is violating the warning threshold (%d)", conseqFails, ht.Config.WarnSequence)
		return healthz.Warnf("failed to %s %d consecutive times", ht.activity, conseqFails)
	}
	return nil
}

func (ht *HealthTracker) checkDuration() error {
	conseqFails := ht.sequence.Load()
	if conseqFails == 0 {
		return nil
	}

	failingFor := time.Since(ht.since.Load()).Round(time.Second)
	if failingFor >= ht.Config.ErrorDuration {
		ht.logger.Warnf("failure for %s is violating the error threshold (%s)", failingFor, ht.Config.ErrorDuration)
		return fmt.Errorf("failed to %s for %s", ht.activity, failingFor)
	} else if failingFor >= ht.Config.WarnDuration {
		ht.logger.Warnf("failure for %s is violating the warning threshold (%s)", failingFor, ht.Config.WarnDuration)
		return healthz.Warnf("failed to %s for %s", ht.activity, failingFor)
	}
	return nil
}

// Failures returns the number of consecutive failures
func (ht *HealthTracker) Failures() uint32 {
	return ht.sequence.Load()
}

func (ht *HealthTracker) AddFailure() {
	if ht.sequence.Load() == 0 {
		ht.since.Store(time.Now())
	}
	failures := ht.sequence.Inc()
	ht.logger.Debugf("incremented consecutive failures to %d", failures)
}

func (ht *HealthTracker) AddSuccess() {
	ht.sequence.Store(0)
	ht.logger.Debug("tracked successful attempt")
}
