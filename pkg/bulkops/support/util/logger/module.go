package logger

import "go.uber.org/fx"

// Module is an Fx module that routes Fx's own lifecycle logging through the
// application logger.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
