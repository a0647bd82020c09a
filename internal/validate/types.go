// SPDX-License-Identifier: MIT
package validate

import (
	"slices"
	"strings"
)

// LogLevel is a log level name accepted in configuration.
type LogLevel string

var logLevels = []LogLevel{"trace", "debug", "info", "warn", "error"}

// ParseLogLevel normalizes s and checks it against the supported levels.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(logLevels, level) {
		return "", &Error{
			Field:   "log_level",
			Value:   s,
			Message: "invalid log level (must be: trace, debug, info, warn, error)",
		}
	}
	return level, nil
}
