package env

import (
	"cmp"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// fromEnv reads env and parses it. The default is returned when the variable is
// unset, fails to parse, or falls outside [minimum, maximum].
func fromEnv[T cmp.Ordered](env string, defaultValue, minimum, maximum T, kind string, parse func(string) (T, error)) T {
	str := os.Getenv(env)
	if str == "" {
		return defaultValue
	}
	val, err := parse(str)
	if err != nil {
		log.Warnf("Could not parse '%s' as a %s from environment %s", str, kind, env)
		return defaultValue
	}
	if val < minimum {
		log.Warnf("Value in %s is %v, which is less than minimum %v allowed", env, val, minimum)
		return defaultValue
	}
	if val > maximum {
		log.Warnf("Value in %s is %v, which is greater than maximum %v allowed", env, val, maximum)
		return defaultValue
	}
	return val
}

// ParseNumFromEnv parses an int from the environment variable env.
func ParseNumFromEnv(env string, defaultValue, minimum, maximum int) int {
	return fromEnv(env, defaultValue, minimum, maximum, "number", func(s string) (int, error) {
		num, err := strconv.ParseInt(s, 10, 0)
		return int(num), err
	})
}

// ParseFloat64FromEnv parses a float64 from the environment variable env.
func ParseFloat64FromEnv(env string, defaultValue, minimum, maximum float64) float64 {
	return fromEnv(env, defaultValue, minimum, maximum, "float64", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseDurationFromEnv parses a time.Duration (e.g. "30s") from the environment variable env.
func ParseDurationFromEnv(env string, defaultValue, minimum, maximum time.Duration) time.Duration {
	return fromEnv(env, defaultValue, minimum, maximum, "duration string", time.ParseDuration)
}

// StringFromEnv returns the value of env, or defaultValue when it is unset or empty.
func StringFromEnv(env string, defaultValue string) string {
	if str := os.Getenv(env); str != "" {
		return str
	}
	return defaultValue
}

// ParseBoolFromEnv retrieves a boolean value from given environment envVar.
// Returns default value if envVar is not set or is neither "true" nor "false".
// "1" is accepted as true for compatibility with the log color switches.
func ParseBoolFromEnv(envVar string, defaultValue bool) bool {
	val := strings.TrimSpace(os.Getenv(envVar))
	switch {
	case strings.EqualFold(val, "true"), val == "1":
		return true
	case strings.EqualFold(val, "false"), val == "0":
		return false
	}
	return defaultValue
}
