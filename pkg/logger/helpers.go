package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogBlock records a provider block and the wait it caused
func LogBlock(l Logger, account string, wait, ledger, budget time.Duration) {
	l.WarnWithFields("request blocked, waiting", map[string]interface{}{
		"account":      account,
		"wait":         wait,
		"ledger_total": ledger,
		"budget":       budget,
	})
}

// LogRotation records the pool moving from one account to the next
func LogRotation(l Logger, from, to string, reason string) {
	l.WarnWithFields("rotating credentials", map[string]interface{}{
		"from":   from,
		"to":     to,
		"reason": reason,
	})
}

// LogPass records the outcome of one resolution pass
func LogPass(l Logger, pass, resolved, unresolved, badRequests int) {
	l.InfoWithFields("resolution pass finished", map[string]interface{}{
		"pass":         pass,
		"resolved":     resolved,
		"unresolved":   unresolved,
		"bad_requests": badRequests,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, fields map[string]interface{}) {
	l = l.WithField("component", component)
	if len(fields) > 0 {
		l = l.WithFields(fields)
	}
	l.Info("component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
