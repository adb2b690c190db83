// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package exposes a single factory, New, that creates a *slog.Logger
// configured by a set of Option functions: output format (text or json),
// minimum level, default attributes, and ContextExtractor callbacks that
// inject attributes pulled from a context value (for example a request id)
// every time Handle is invoked.
//
// Helper constructors such as Group, Error, Holder, and Feature live in
// attr.go and keep attribute naming consistent across the codebase.
//
// Usage:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "billingd"),
//	    logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
package logger
