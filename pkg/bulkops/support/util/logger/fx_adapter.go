package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// fxLogger routes Fx lifecycle events through the application logger, so the
// dependency graph construction shows up in the same stream as the
// orchestrator's own messages. Routine wiring events log at DEBUG; only
// failures escalate.
type fxLogger struct{}

// NewFxLoggerAdapter returns the fxevent.Logger used by fx.WithLogger.
func NewFxLoggerAdapter() fxevent.Logger {
	return fxLogger{}
}

// LogEvent implements fxevent.Logger.
func (fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		Debugf("Fx: OnStart hook executing: %s", trimAnonymousSuffix(e.FunctionName))
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Errorf("Fx: OnStart hook '%s' failed: %v", trimAnonymousSuffix(e.FunctionName), e.Err)
		}
	case *fxevent.OnStopExecuting:
		Debugf("Fx: OnStop hook executing: %s", trimAnonymousSuffix(e.FunctionName))
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Errorf("Fx: OnStop hook '%s' failed: %v", trimAnonymousSuffix(e.FunctionName), e.Err)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			Errorf("Fx: Supply of %s failed: %v", e.TypeName, e.Err)
		} else {
			Debugf("Fx: Supplied %s", e.TypeName)
		}
	case *fxevent.Provided:
		for _, typeName := range e.OutputTypeNames {
			Debugf("Fx: Provided %s", typeName)
		}
		if e.Err != nil {
			Errorf("Fx: Provide failed: %v", e.Err)
		}
	case *fxevent.Invoking:
		Debugf("Fx: Invoking %s", trimAnonymousSuffix(e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("Fx: Invoke of %s failed: %v", trimAnonymousSuffix(e.FunctionName), e.Err)
		}
	case *fxevent.Stopping:
		Infof("Fx: Received %s, stopping.", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			Errorf("Fx: Stop failed: %v", e.Err)
		}
	case *fxevent.RollingBack:
		Errorf("Fx: Start failed, rolling back: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			Errorf("Fx: Rollback failed: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("Fx: Start failed: %v", e.Err)
		} else {
			Infof("Application started.")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			Errorf("Fx: Logger initialization failed: %v", e.Err)
		}
	}
}

// trimAnonymousSuffix drops the ".funcN" suffix Fx reports for closures, which
// carries no information about what the hook belongs to.
func trimAnonymousSuffix(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
