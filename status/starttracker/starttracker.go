// Package starttracker reports through healthz whether the server has
// finished starting up: its schema is in place and the table holds data,
// either from a previous run or from a first load.
package starttracker

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wojas/go-healthz"
	"go.uber.org/atomic"
)

type StartTracker struct {
	Config      StartConfig
	schemaReady atomic.Bool
	dataPresent atomic.Bool
	since       atomic.Time
	prefix      string
	logger      logrus.FieldLogger
}

// New returns a StartTracker. Call Register to add its check to healthz.
func New(sc StartConfig, prefix string) *StartTracker {
	st := &StartTracker{
		Config: sc.Validated(),
		prefix: prefix,
		logger: logrus.WithField("starttracker", prefix),
	}
	st.since.Store(time.Now())
	return st
}

func (st *StartTracker) name() string {
	return fmt.Sprintf("%s_startup_in_progress", st.prefix)
}

// Register registers the startup check with healthz. The check removes
// itself once startup has completed.
func (st *StartTracker) Register() {
	if st.Config.ReportMetadata {
		healthz.SetMeta("startupCompleted", false)
	}
	healthz.Register(st.name(), st.Config.EvaluationInterval, func() error {
		err := st.check()
		if err == nil && st.Completed() {
			if st.Config.ReportMetadata {
				healthz.SetMeta("startupCompleted", true)
			}
			st.logger.Info("startup phase completed successfully")
			healthz.Deregister(st.name())
		}
		return err
	})
	st.logger.Info("registered tracker for startup phase")
}

func (st *StartTracker) check() error {
	if st.Completed() || !st.Config.ReportHealthz {
		return nil
	}
	pendingFor := time.Since(st.since.Load()).Round(time.Second)
	if pendingFor >= st.Config.ErrorDuration {
		st.logger.Debugf("startup pending after %s is violating the error threshold (%s)", pendingFor, st.Config.ErrorDuration)
		return fmt.Errorf("startup pending after %s: %s", pendingFor, st.pending())
	} else if pendingFor >= st.Config.WarnDuration {
		st.logger.Debugf("startup pending after %s is violating the warning threshold (%s)", pendingFor, st.Config.WarnDuration)
		return healthz.Warnf("startup pending after %s: %s", pendingFor, st.pending())
	}
	return nil
}

func (st *StartTracker) pending() string {
	if !st.schemaReady.Load() {
		return "schema not ready"
	}
	return "no data loaded"
}

// Completed reports if all startup steps have passed
func (st *StartTracker) Completed() bool {
	return st.schemaReady.Load() && st.dataPresent.Load()
}

func (st *StartTracker) SetSchemaReady() {
	st.schemaReady.Store(true)
	st.logger.Debug("tracked schema ready")
}

func (st *StartTracker) SetDataPresent() {
	st.dataPresent.Store(true)
	st.logger.Debug("tracked data present")
}
