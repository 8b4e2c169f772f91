package stripewebhooks

import (
	"errors"
	"fmt"
)

// ErrTransient marks a failure worth a provider retry: nothing was committed
// that a redelivery could double-apply, either because the handler had not
// written yet or because every write is guarded by an idempotency key.
var ErrTransient = errors.New("transient webhook failure")

func transientf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrTransient}, args...)...)
}
