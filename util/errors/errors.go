package errors

import (
	stderrors "errors"
	"os"

	log "github.com/sirupsen/logrus"
)

const (
	// ErrorGeneric is returned for generic error
	ErrorGeneric = 20
	// ErrorConfiguration is returned when flags or environment hold invalid values
	ErrorConfiguration = 21
)

// CheckError logs a fatal message and exits with an exit code matching the error
// kind if err is not nil.
func CheckError(err error) {
	if err == nil {
		return
	}
	if IsConfigurationError(err) {
		Fatal(ErrorConfiguration, err)
	}
	Fatal(ErrorGeneric, err)
}

// Fatal is a wrapper for logrus.Fatal() to exit with custom code
func Fatal(exitcode int, args ...any) {
	log.RegisterExitHandler(func() {
		os.Exit(exitcode)
	})
	log.Fatal(args...)
}

// Fatalf is a wrapper for logrus.Fatalf() to exit with custom code
func Fatalf(exitcode int, format string, args ...any) {
	log.RegisterExitHandler(func() {
		os.Exit(exitcode)
	})
	log.Fatalf(format, args...)
}

type configurationError struct {
	causingError error
}

func (err *configurationError) Error() string {
	return err.causingError.Error()
}

func (err *configurationError) Unwrap() error {
	return err.causingError
}

// NewConfigurationError wraps any error into a configuration error.
func NewConfigurationError(err error) error {
	return &configurationError{causingError: err}
}

// IsConfigurationError checks if the given error is, or wraps, a configuration error.
func IsConfigurationError(err error) bool {
	var cfgErr *configurationError
	return stderrors.As(err, &cfgErr)
}
