// Package mocks contains mock implementations of runtime interfaces for use
// in unit tests.
package mocks

import (
	"fmt"
	godebug "runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pborman/uuid"

	"github.com/minci/minci-worker/runtime"
)

var mockMonitorLog = runtime.Debug("monitor")

type metricCache struct {
	m        sync.Mutex
	measures map[string]bool
	counters map[string]bool
}

// MockMonitor implements runtime.Monitor for use in unit tests.
type MockMonitor struct {
	tags         map[string]string
	prefix       string
	metadata     string
	panicOnError bool
	cache        *metricCache
}

// NewMockMonitor returns a Monitor that prints all messages using
// runtime.Debug() meaning that you must set environment variable
// DEBUG='monitor' to see the messages.
//
// If panicOnError is set this will panic if Error() or ReportError() is
// called. This is often useful for testing components that take a Monitor as
// argument.
func NewMockMonitor(panicOnError bool) *MockMonitor {
	return &MockMonitor{
		panicOnError: panicOnError,
		cache: &metricCache{
			measures: make(map[string]bool),
			counters: make(map[string]bool),
		},
	}
}

func mockMonitorMetadata(tags map[string]string, prefix string) string {
	pairs := make([]string, 0, len(tags)+1)
	for k, v := range tags {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(pairs)
	if prefix != "" {
		pairs = append([]string{"prefix=" + prefix}, pairs...)
	}
	return strings.Join(pairs, " ")
}

// Measure records values for given name
func (m *MockMonitor) Measure(name string, value ...float64) {
	m.cache.m.Lock()
	defer m.cache.m.Unlock()

	m.cache.measures[m.prefix+name] = true
}

// Count increments counter by name with given value
func (m *MockMonitor) Count(name string, value float64) {
	m.cache.m.Lock()
	defer m.cache.m.Unlock()

	m.cache.counters[m.prefix+name] = true
}

// Time measures and records the execution time of fn
func (m *MockMonitor) Time(name string, fn func()) {
	start := time.Now()
	fn()
	m.Measure(name, time.Since(start).Seconds()*1000)
}

// HasMeasure returns true if a measure with given name has been reported
func (m *MockMonitor) HasMeasure(name string) bool {
	m.cache.m.Lock()
	defer m.cache.m.Unlock()

	return m.cache.measures[m.prefix+name]
}

// HasCounter returns true if a counter with given name has been reported
func (m *MockMonitor) HasCounter(name string) bool {
	m.cache.m.Lock()
	defer m.cache.m.Unlock()

	return m.cache.counters[m.prefix+name]
}

// CapturePanic recovers from panic in fn and returns incidentID, if any
func (m *MockMonitor) CapturePanic(fn func()) (incidentID string) {
	defer func() {
		if crash := recover(); crash != nil {
			incidentID = uuid.NewRandom().String()
			trace := godebug.Stack()
			text := fmt.Sprint("Recovered from panic: ", crash, "\nAt:\n", string(trace))
			m.WithTag("incidentId", incidentID).(*MockMonitor).output("PANIC", text)
			if m.panicOnError {
				panic(fmt.Sprintf("Panic: %s", text))
			}
		}
	}()
	fn()
	return
}

// ReportError records an error, and panics if panicOnError was set
func (m *MockMonitor) ReportError(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom().String()
	text := fmt.Sprint(append([]interface{}{"error: ", err, " "}, message...)...)
	m.WithTag("incidentId", incidentID).(*MockMonitor).output("ERROR-REPORT", text)
	if m.panicOnError {
		panic(fmt.Sprintf("ReportError: %s", text))
	}
	return incidentID
}

// ReportWarning logs a warning
func (m *MockMonitor) ReportWarning(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom().String()
	text := fmt.Sprint(append([]interface{}{"error: ", err, " "}, message...)...)
	m.WithTag("incidentId", incidentID).(*MockMonitor).output("WARNING-REPORT", text)
	return incidentID
}

func (m *MockMonitor) output(kind string, a ...interface{}) {
	mockMonitorLog("%s: %s (%s)", kind, fmt.Sprint(a...), m.metadata)
}

// Debug writes a debug message
func (m *MockMonitor) Debug(a ...interface{}) { m.output("DEBUG", a...) }

// Debugln writes a debug message
func (m *MockMonitor) Debugln(a ...interface{}) { m.Debug(fmt.Sprintln(a...)) }

// Debugf writes a debug message
func (m *MockMonitor) Debugf(f string, a ...interface{}) { m.Debug(fmt.Sprintf(f, a...)) }

// Print writes a message labelled as Print
func (m *MockMonitor) Print(a ...interface{}) { m.output("INFO", a...) }

// Println writes a message labelled as Print
func (m *MockMonitor) Println(a ...interface{}) { m.Print(fmt.Sprintln(a...)) }

// Printf writes a message labelled as Print
func (m *MockMonitor) Printf(f string, a ...interface{}) { m.Print(fmt.Sprintf(f, a...)) }

// Info writes a message labelled as Info
func (m *MockMonitor) Info(a ...interface{}) { m.output("INFO", a...) }

// Infoln writes a message labelled as Info
func (m *MockMonitor) Infoln(a ...interface{}) { m.Info(fmt.Sprintln(a...)) }

// Infof writes a message labelled as Info
func (m *MockMonitor) Infof(f string, a ...interface{}) { m.Info(fmt.Sprintf(f, a...)) }

// Warn writes a message labelled as Warn
func (m *MockMonitor) Warn(a ...interface{}) { m.output("WARN", a...) }

// Warnln writes a message labelled as Warn
func (m *MockMonitor) Warnln(a ...interface{}) { m.Warn(fmt.Sprintln(a...)) }

// Warnf writes a message labelled as Warn
func (m *MockMonitor) Warnf(f string, a ...interface{}) { m.Warn(fmt.Sprintf(f, a...)) }

// Error writes a message labelled as Error, and panics if panicOnError was set
func (m *MockMonitor) Error(a ...interface{}) {
	m.output("ERROR", a...)
	if m.panicOnError {
		panic(fmt.Sprint(a...))
	}
}

// Errorln writes a message labelled as Error, and panics if panicOnError was set
func (m *MockMonitor) Errorln(a ...interface{}) { m.Error(fmt.Sprintln(a...)) }

// Errorf writes a message labelled as Error, and panics if panicOnError was set
func (m *MockMonitor) Errorf(f string, a ...interface{}) { m.Error(fmt.Sprintf(f, a...)) }

// Panic writes a message labelled as Panic, and panics
func (m *MockMonitor) Panic(a ...interface{}) {
	m.output("PANIC", a...)
	panic(fmt.Sprint(a...))
}

// Panicln writes a message labelled as Panic, and panics
func (m *MockMonitor) Panicln(a ...interface{}) { m.Panic(fmt.Sprintln(a...)) }

// Panicf writes a message labelled as Panic, and panics
func (m *MockMonitor) Panicf(f string, a ...interface{}) { m.Panic(fmt.Sprintf(f, a...)) }

// WithTags creates a new child Monitor with given tags
func (m *MockMonitor) WithTags(tags map[string]string) runtime.Monitor {
	allTags := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		allTags[k] = v
	}
	for k, v := range tags {
		allTags[k] = v
	}
	return &MockMonitor{
		tags:         allTags,
		prefix:       m.prefix,
		metadata:     mockMonitorMetadata(allTags, m.prefix),
		panicOnError: m.panicOnError,
		cache:        m.cache,
	}
}

// WithTag creates a new child Monitor with given tag
func (m *MockMonitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

// WithPrefix creates a new child Monitor with given prefix
func (m *MockMonitor) WithPrefix(prefix string) runtime.Monitor {
	if prefix != "" {
		prefix += "."
	}
	return &MockMonitor{
		tags:         m.tags,
		prefix:       m.prefix + prefix,
		metadata:     mockMonitorMetadata(m.tags, m.prefix+prefix),
		panicOnError: m.panicOnError,
		cache:        m.cache,
	}
}
