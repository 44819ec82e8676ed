package log

import (
	"strings"

	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"

	"github.com/argoproj-labs/resourcelens/common"
	"github.com/argoproj-labs/resourcelens/util/env"
)

const (
	JsonFormat = "json"
	TextFormat = "text"
)

// NewLogrusLogger bridges a logrus logger into the logr.Logger accepted by the
// cache, retry, diff and resources packages.
func NewLogrusLogger(fieldLogger logrus.FieldLogger) logr.Logger {
	return logrusr.New(fieldLogger)
}

// CreateFormatter create logrus formatter by string
func CreateFormatter(logFormat string) logrus.Formatter {
	switch strings.ToLower(logFormat) {
	case JsonFormat:
		return &logrus.JSONFormatter{}
	case TextFormat:
		return &logrus.TextFormatter{
			ForceColors:   env.ParseBoolFromEnv(common.EnvForceLogColors, false),
			FullTimestamp: env.ParseBoolFromEnv(common.EnvLogFormatEnableFullTimestamp, false),
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp: env.ParseBoolFromEnv(common.EnvLogFormatEnableFullTimestamp, false),
		}
	}
}

// CreateLogLevel parses level, falling back to info.
func CreateLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
