package mylog

import "context"

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// New is bound at init-time to the logger that fits the environment we run in.
var New func(componentName string) Logger

// Logger logs on behalf of a component. The traceLabel identifies the order (or checkout session) the entry is about.
type Logger interface {
	Log(c context.Context, traceLabel string, severity Severity, format string, a ...any)
}
