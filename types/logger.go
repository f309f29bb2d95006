package types

// Logger defines a leveled, key/value structured logging interface.
//
// The method set matches zap.SugaredLogger, so a sugared zap logger
// satisfies it directly:
//
//	zapLogger, _ := zap.NewProduction()
//	connector, err := dbconnector.Connect(ctx, cfg,
//	    dbconnector.WithLogger(zapLogger.Sugar()),
//	)
//
// Implementations must be safe for concurrent use. When no logger is
// configured the library falls back to a no-op implementation, so log
// calls never require nil checks.
type Logger interface {
	// Debug logs a message at debug level with optional key/value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at info level with optional key/value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at warn level with optional key/value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at error level with optional key/value pairs.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at fatal level with optional key/value pairs.
	//
	// Real implementations may terminate the process; the library itself
	// never calls Fatal.
	Fatal(msg string, keysAndValues ...any)
}
