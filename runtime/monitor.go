package runtime

// A Monitor is responsible for collecting logs, metrics and error reports.
//
// Implementations are expected to be cheap to copy with WithTag/WithPrefix,
// so that subsystems can decorate their monitor with context before passing
// it on.
type Monitor interface {
	// Record a value or increment a counter
	Measure(name string, value ...float64)
	Count(name string, value float64)
	// Measure execution time of fn
	Time(name string, fn func())

	// Run fn, recovering and reporting any panic. Returns a non-empty
	// incidentID if a panic was captured.
	CapturePanic(fn func()) (incidentID string)

	// Report error/warning, returns incidentID which can be referenced in
	// job logs, if relevant.
	ReportError(err error, message ...interface{}) string
	ReportWarning(err error, message ...interface{}) string

	// Write log messages at various levels
	Debug(...interface{})
	Debugln(...interface{})
	Debugf(string, ...interface{})
	Print(...interface{})
	Println(...interface{})
	Printf(string, ...interface{})
	Info(...interface{})
	Infoln(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnln(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorln(...interface{})
	Errorf(string, ...interface{})
	Panic(...interface{})
	Panicln(...interface{})
	Panicf(string, ...interface{})

	// Create child monitor with given tags
	WithTags(tags map[string]string) Monitor
	WithTag(key, value string) Monitor
	// Create child monitor with given prefix
	WithPrefix(prefix string) Monitor
}
