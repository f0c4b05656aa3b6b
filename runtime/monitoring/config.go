package monitoring

import (
	"github.com/sirupsen/logrus"
	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/mocks"
)

var mockConfigSchema = schematypes.Object{
	Properties: schematypes.Properties{
		"type": schematypes.StringEnum{Options: []string{"mock"}},
		"panicOnError": schematypes.Boolean{
			Title:       "Panic On Error",
			Description: "Use a mock implementation of the monitor that panics on errors.",
		},
	},
	Required: []string{"type", "panicOnError"},
}

var monitorConfigSchema schematypes.Schema = schematypes.Object{
	Properties: schematypes.Properties{
		"sentryDsn": schematypes.String{
			Title:       "Sentry DSN",
			Description: "DSN used to submit error reports to sentry, leave as empty string to disable sentry reporting.",
		},
		"logLevel": schematypes.StringEnum{
			Options: []string{
				logrus.DebugLevel.String(),
				logrus.InfoLevel.String(),
				logrus.WarnLevel.String(),
				logrus.ErrorLevel.String(),
				logrus.FatalLevel.String(),
				logrus.PanicLevel.String(),
			},
		},
		"tags": schematypes.Map{
			Title:       "Tags",
			Description: "Tags that should be applied to all logs/sentry entries from this worker",
			Values:      schematypes.String{},
		},
	},
	Required: []string{"logLevel"},
}

// ConfigSchema for configuration given to New()
var ConfigSchema schematypes.Schema = schematypes.OneOf{
	mockConfigSchema,
	monitorConfigSchema,
}

// PreConfig returns a default monitor for use before the configuration is
// loaded. This logs at the INFO level to stderr.
func PreConfig() runtime.Monitor {
	return NewLoggingMonitor("info", map[string]string{})
}

// New returns a runtime.Monitor strategy from config matching ConfigSchema.
func New(config interface{}) (runtime.Monitor, error) {
	schematypes.MustValidate(ConfigSchema, config)

	// try monitor schema
	var c struct {
		SentryDSN string            `json:"sentryDsn"`
		LogLevel  string            `json:"logLevel"`
		Tags      map[string]string `json:"tags"`
	}
	if schematypes.MustMap(monitorConfigSchema, config, &c) == nil {
		if c.SentryDSN != "" {
			return NewMonitor(c.SentryDSN, c.LogLevel, c.Tags)
		}
		return NewLoggingMonitor(c.LogLevel, c.Tags), nil
	}

	// try mock schema
	var m struct {
		Type         string `json:"type"`
		PanicOnError bool   `json:"panicOnError"`
	}
	if schematypes.MustMap(mockConfigSchema, config, &m) == nil {
		return mocks.NewMockMonitor(m.PanicOnError), nil
	}

	panic("monitor config should have matched one of the options, this should be impossible")
}
