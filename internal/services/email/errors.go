// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import "fmt"

// DeliveryError wraps a gateway failure with the affected recipient so the
// caller can log the context. The client-visible response stays opaque.
type DeliveryError struct {
	Recipient string
	Cause     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering to %s: %v", e.Recipient, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}
