package env

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseNumFromEnv(t *testing.T) {
	const envKey = "RESOURCELENS_TEST_NUM"
	tests := []struct {
		name     string
		env      string
		expected int
	}{
		{"unset", "", 10},
		{"valid", "42", 42},
		{"not a number", "abc", 10},
		{"below minimum", "-1", 10},
		{"above maximum", "1001", 10},
		{"at maximum", "1000", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envKey, tt.env)
			assert.Equal(t, tt.expected, ParseNumFromEnv(envKey, 10, 0, 1000))
		})
	}
}

func TestParseFloat64FromEnv(t *testing.T) {
	const envKey = "RESOURCELENS_TEST_FLOAT"
	t.Setenv(envKey, "1.5")
	assert.InDelta(t, 1.5, ParseFloat64FromEnv(envKey, 2, 1, math.MaxFloat64), 0.0001)
	t.Setenv(envKey, "0.5")
	assert.InDelta(t, 2.0, ParseFloat64FromEnv(envKey, 2, 1, math.MaxFloat64), 0.0001)
	t.Setenv(envKey, "x")
	assert.InDelta(t, 2.0, ParseFloat64FromEnv(envKey, 2, 1, math.MaxFloat64), 0.0001)
}

func TestParseDurationFromEnv(t *testing.T) {
	const envKey = "RESOURCELENS_TEST_DURATION"
	tests := []struct {
		name     string
		env      string
		expected time.Duration
	}{
		{"unset", "", time.Minute},
		{"valid", "30s", 30 * time.Second},
		{"invalid", "30", time.Minute},
		{"below minimum", "1ms", time.Minute},
		{"above maximum", "2h", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envKey, tt.env)
			assert.Equal(t, tt.expected, ParseDurationFromEnv(envKey, time.Minute, time.Second, time.Hour))
		})
	}
}

func TestStringFromEnv(t *testing.T) {
	const envKey = "RESOURCELENS_TEST_STRING"
	t.Setenv(envKey, "")
	assert.Equal(t, "default", StringFromEnv(envKey, "default"))
	t.Setenv(envKey, "value")
	assert.Equal(t, "value", StringFromEnv(envKey, "default"))
}

func TestParseBoolFromEnv(t *testing.T) {
	const envKey = "RESOURCELENS_TEST_BOOL"
	for _, tt := range []struct {
		env      string
		def      bool
		expected bool
	}{
		{"", true, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"yes", false, false},
	} {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(envKey, tt.env)
			assert.Equal(t, tt.expected, ParseBoolFromEnv(envKey, tt.def))
		})
	}
}
