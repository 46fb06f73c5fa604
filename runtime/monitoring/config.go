package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/mocks"
	"github.com/taskcluster/agent-retention/runtime/schema"
)

var mockConfigSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"type": map[string]interface{}{"const": "mock"},
		"panicOnError": map[string]interface{}{
			"title":       "Panic On Error",
			"description": "Use a mock implementation of the monitor that panics on errors.",
			"type":        "boolean",
		},
	},
	"required":             []string{"type", "panicOnError"},
	"additionalProperties": false,
}

var monitorConfigSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"project": map[string]interface{}{
			"title": "Metrics Project Name",
			"description": "Namespace for Prometheus metrics and project tag for sentry. " +
				"Leave empty to only log.",
			"type":    "string",
			"pattern": "^[a-zA-Z0-9_]{0,22}$",
		},
		"logLevel": map[string]interface{}{
			"enum": []string{
				logrus.DebugLevel.String(),
				logrus.InfoLevel.String(),
				logrus.WarnLevel.String(),
				logrus.ErrorLevel.String(),
				logrus.FatalLevel.String(),
				logrus.PanicLevel.String(),
			},
		},
		"tags": map[string]interface{}{
			"title":                "Tags",
			"description":          "Tags that should be applied to all logs/sentry entries",
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": "string"},
		},
		"syslog": map[string]interface{}{
			"title":       "Syslog Name",
			"description": "Name to use for process in syslog, leave as empty string to disable syslog forwarding.",
			"type":        "string",
		},
		"sentryDsn": map[string]interface{}{
			"title":       "Sentry DSN",
			"description": "DSN errors should be reported to, leave as empty string to disable sentry.",
			"type":        "string",
		},
	},
	"required":             []string{"logLevel"},
	"additionalProperties": false,
}

// ConfigSchema for configuration given to New()
var ConfigSchema = schema.MustCompile(map[string]interface{}{
	"title": "Monitoring",
	"oneOf": []interface{}{
		mockConfigSchema,
		monitorConfigSchema,
	},
})

var (
	mockSchema    = schema.MustCompile(mockConfigSchema)
	monitorSchema = schema.MustCompile(monitorConfigSchema)
)

// PreConfig returns a default monitor for use before the configuration is
// loaded. This logs at the INFO level to stderr.
func PreConfig() runtime.Monitor {
	return NewLoggingMonitor("info", map[string]string{}, "")
}

// New returns a runtime.Monitor strategy from config matching ConfigSchema.
//
// Metrics are registered with registry, which may be nil if metrics should not
// be exported.
func New(config interface{}, registry prometheus.Registerer) runtime.Monitor {
	if err := ConfigSchema.Validate(config); err != nil {
		panic("monitoring.New() called with invalid config: " + err.Error())
	}

	// try monitor schema
	var c Config
	if monitorSchema.MustMap(config, &c) == nil {
		if c.Project != "" && registry != nil {
			return NewMonitor(c, registry)
		}
		return NewLoggingMonitor(c.LogLevel, c.Tags, c.Syslog)
	}

	// try mock schema
	var m struct {
		Type         string `json:"type"`
		PanicOnError bool   `json:"panicOnError"`
	}
	if mockSchema.MustMap(config, &m) == nil {
		return mocks.NewMockMonitor(m.PanicOnError)
	}

	panic("monitor should have matched one of the options, this should be impossible")
}

// Config for NewMonitor
type Config struct {
	Project   string            `json:"project"`
	LogLevel  string            `json:"logLevel"`
	Tags      map[string]string `json:"tags"`
	Syslog    string            `json:"syslog"`
	SentryDSN string            `json:"sentryDsn"`
}
