package context

import (
	"dreip/pkg/config"
	"dreip/pkg/metrics"
)

// OperationContext holds request-scoped data for a single protocol operation.
type OperationContext struct {
	Config   *config.Config    // Process configuration.
	Recorder *metrics.Recorder // The metrics recorder for the current run.
}

// NewContext creates a new OperationContext.
func NewContext(config *config.Config, rec *metrics.Recorder) *OperationContext {
	return &OperationContext{
		Config:   config,
		Recorder: rec,
	}
}
