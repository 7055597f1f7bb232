// Package logger builds slog loggers for keymeter services.
//
// New creates a *slog.Logger configured through Option functions: output
// format, level, static attributes and ContextExtractor callbacks that pull
// request-scoped values (such as the request id) out of the context on every
// log call.
//
// Attribute helpers keep key names consistent across packages. APIKey masks
// the key before it is written, so raw credentials never reach log sinks.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
//	    logger.WithContextExtractors(requestid.LogExtractor()),
//	)
//	log.InfoContext(ctx, "key upgraded", logger.APIKey(key), logger.Plan("pro"))
//
// Error and Errors return an empty attribute for nil errors, which slog
// drops, so callers can pass them without a nil check.
package logger
