package runtime

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	debugLock        = sync.Mutex{}
	prevDebugMessage = time.Now()
)

var debugPattern = func() *regexp.Regexp {
	debug := os.Getenv("DEBUG")
	if debug == "" {
		return nil
	}
	// Same matching rules as github.com/tj/go-debug
	debug = regexp.QuoteMeta(debug)
	debug = strings.Replace(debug, "\\*", ".*?", -1)
	debug = strings.Replace(debug, ",", "|", -1)
	return regexp.MustCompile("^(" + debug + ")$")
}()

// Debug returns a debug(format, arg, arg...) function for the given name,
// as known from node.js. Messages are printed to stderr if the DEBUG
// environment variable matches the name.
func Debug(name string) func(string, ...interface{}) {
	if debugPattern == nil || !debugPattern.MatchString(name) {
		return func(string, ...interface{}) {}
	}
	return func(format string, args ...interface{}) {
		debugLock.Lock()
		defer debugLock.Unlock()

		delay := time.Since(prevDebugMessage)
		prevDebugMessage = time.Now()
		fmt.Fprintf(os.Stderr, "%s %s +%s\n",
			name, fmt.Sprintf(format, args...), delay.String(),
		)
	}
}
