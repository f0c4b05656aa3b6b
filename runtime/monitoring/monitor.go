package monitoring

import (
	"encoding/hex"
	"fmt"
	"time"

	raven "github.com/getsentry/raven-go"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/minci/minci-worker/runtime"
)

// NewMonitor creates a monitor that logs with logrus and submits error
// reports to sentry using the given DSN.
func NewMonitor(dsn string, logLevel string, tags map[string]string) (runtime.Monitor, error) {
	client, err := raven.New(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %s", err)
	}

	logger := logrus.New()
	logger.Level = parseLogLevel(logLevel)

	fields := make(logrus.Fields, len(tags))
	for k, v := range tags {
		fields[k] = v
	}

	return &monitor{
		Entry:  logrus.NewEntry(logger).WithFields(fields),
		sentry: client,
		tags:   tags,
	}, nil
}

type monitor struct {
	*logrus.Entry
	sentry *raven.Client
	tags   map[string]string
	prefix string
}

func (m *monitor) Measure(name string, value ...float64) {
	for _, v := range value {
		m.Debugf("measure: %s%s recorded %f", m.prefix, name, v)
	}
}

func (m *monitor) Count(name string, value float64) {
	m.Debugf("counter: %s%s incremented by %f", m.prefix, name, value)
}

func (m *monitor) Time(name string, fn func()) {
	start := time.Now()
	fn()
	m.Measure(name, time.Since(start).Seconds()*1000)
}

func (m *monitor) CapturePanic(fn func()) (incidentID string) {
	defer func() {
		if crash := recover(); crash != nil {
			message := fmt.Sprint(crash)
			id := uuid.NewRandom()
			incidentID = id.String()
			m.Entry.WithField("incidentId", incidentID).WithField("panic", crash).Error(
				"recovered from panic:\n ", message,
			)
			m.submitError(fmt.Errorf("PANIC: %s", message), message, raven.ERROR, id)
		}
	}()
	fn()
	return
}

func (m *monitor) ReportError(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom()
	m.Entry.WithField("incidentId", incidentID.String()).WithError(err).Error(message...)
	m.submitError(err, fmt.Sprint(message...), raven.ERROR, incidentID)
	return incidentID.String()
}

func (m *monitor) ReportWarning(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom()
	m.Entry.WithField("incidentId", incidentID.String()).WithError(err).Warn(message...)
	m.submitError(err, fmt.Sprint(message...), raven.WARNING, incidentID)
	return incidentID.String()
}

func (m *monitor) submitError(err error, message string, level raven.Severity, incidentID uuid.UUID) {
	// Capture stack trace, skipping frames from this package
	exception := raven.NewException(err, raven.NewStacktrace(2, 5, []string{
		"github.com/minci/",
	}))

	text := fmt.Sprintf("Error: %s\nMessage: %s", err.Error(), message)
	packet := raven.NewPacket(text, exception)
	packet.Level = level
	packet.EventID = hex.EncodeToString(incidentID)

	// Add incidentID and prefix to tags
	tags := make(map[string]string, len(m.tags)+2)
	for tag, value := range m.tags {
		tags[tag] = value
	}
	tags["incidentId"] = incidentID.String()
	tags["prefix"] = m.prefix

	_, done := m.sentry.Capture(packet, tags)
	<-done
}

func (m *monitor) WithTags(tags map[string]string) runtime.Monitor {
	// Merge tags from monitor and tags
	allTags := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		allTags[k] = v
	}
	for k, v := range tags {
		allTags[k] = v
	}
	// Construct fields for logrus (just satisfying the type system)
	fields := make(map[string]interface{}, len(allTags))
	for k, v := range allTags {
		fields[k] = v
	}
	fields["prefix"] = m.prefix // don't allow overwrite of "prefix"
	return &monitor{
		Entry:  m.Entry.WithFields(fields),
		sentry: m.sentry,
		tags:   allTags,
		prefix: m.prefix,
	}
}

func (m *monitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

func (m *monitor) WithPrefix(prefix string) runtime.Monitor {
	completePrefix := prefix
	if m.prefix != "" {
		completePrefix = m.prefix + "." + prefix
	}
	return &monitor{
		Entry:  m.Entry.WithField("prefix", completePrefix),
		sentry: m.sentry,
		tags:   m.tags,
		prefix: completePrefix,
	}
}
