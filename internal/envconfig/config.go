// Package envconfig reads library configuration from QPOOL_* environment
// variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns the trimmed value of an environment variable, with surrounding
// quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean variable. Any non-empty value
// that does not parse as a bool counts as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for a boolean variable that defaults to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String returns a getter for a string variable.
func String(k string) func() string {
	return func() string {
		return Var(k)
	}
}

// Uint returns a getter for an unsigned variable with a default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// EagerSetup selects the eager geometry ordering in Setup. Configure with QPOOL_EAGER_SETUP.
	EagerSetup = Bool("QPOOL_EAGER_SETUP")
	// UKernel forces a max-pool microkernel. Configure with QPOOL_UKERNEL.
	UKernel = String("QPOOL_UKERNEL")
	// MaxIndirectionEntries caps indirection tables; 0 is unlimited. Configure with QPOOL_MAX_INDIRECTION_ENTRIES.
	MaxIndirectionEntries = Uint("QPOOL_MAX_INDIRECTION_ENTRIES", 0)
)

// NumThreads returns the thread pool width. Configure with QPOOL_NUM_THREADS.
// Default: runtime.NumCPU().
func NumThreads() int {
	n := Uint("QPOOL_NUM_THREADS", 0)()
	if n == 0 {
		return runtime.NumCPU()
	}
	return int(n)
}

// LogLevel returns the log level. Configure with QPOOL_DEBUG.
// 0/false is INFO (default), 1/true is DEBUG.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("QPOOL_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// EnvVar describes one configuration variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"QPOOL_DEBUG":                   {"QPOOL_DEBUG", LogLevel(), "Show additional debug information (e.g. QPOOL_DEBUG=1)"},
		"QPOOL_EAGER_SETUP":             {"QPOOL_EAGER_SETUP", EagerSetup(), "Overwrite output geometry before rebuilding the indirection table"},
		"QPOOL_UKERNEL":                 {"QPOOL_UKERNEL", UKernel(), "Force a max-pool microkernel (sse2, neon, scalar)"},
		"QPOOL_MAX_INDIRECTION_ENTRIES": {"QPOOL_MAX_INDIRECTION_ENTRIES", MaxIndirectionEntries(), "Maximum indirection table entries per operator (0 = unlimited)"},
		"QPOOL_NUM_THREADS":             {"QPOOL_NUM_THREADS", NumThreads(), "Worker goroutines used to run operators"},
	}
}

// Values returns every variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
