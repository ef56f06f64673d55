// Package logger wraps zerolog behind a small structured logging interface.
//
// Components receive a Logger through their constructors. The global
// logger (Initialize, GetLogger) exists for the command layer only.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("target", target).Info("crawl started")
//
// Tests use NewNopLogger, or NewTestLogger when they need to assert that
// a warning was logged.
package logger
