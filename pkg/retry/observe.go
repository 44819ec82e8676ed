package retry

import (
	"time"

	"github.com/go-logr/logr"
)

// LogRetries returns an OnRetryFunc logging every retry of operation.
func LogRetries(log logr.Logger, operation string) OnRetryFunc {
	return func(err error, attempt int, delay time.Duration) {
		log.Info("Retrying after transient failure", "operation", operation, "attempt", attempt, "delay", delay.String(), "error", err.Error())
	}
}

// ChainOnRetry calls every non-nil hook in order. It returns nil when there is no
// hook at all.
func ChainOnRetry(hooks ...OnRetryFunc) OnRetryFunc {
	var set []OnRetryFunc
	for _, h := range hooks {
		if h != nil {
			set = append(set, h)
		}
	}
	switch len(set) {
	case 0:
		return nil
	case 1:
		return set[0]
	}
	return func(err error, attempt int, delay time.Duration) {
		for _, h := range set {
			h(err, attempt, delay)
		}
	}
}
