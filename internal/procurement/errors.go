package procurement

import (
	"errors"
	"fmt"

	"facility-asset-backend/internal/model"
)

// ErrNotFound is returned when an operation targets an unknown request id.
var ErrNotFound = errors.New("procurement request not found")

// ValidationError reports malformed input to create or update. It is
// surfaced before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError reports a status change not permitted by the approval
// pipeline. The stored record is left unchanged.
type TransitionError struct {
	From model.RequestStatus
	To   model.RequestStatus
}

func (e *TransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("status %q is terminal, no transition to %q allowed", e.From, e.To)
	}
	return fmt.Sprintf("transition %q -> %q is not allowed", e.From, e.To)
}

// ProvisioningError reports that the device could not be provisioned after
// a valid transition into completed. The whole update is rolled back, so
// the request remains in purchased and the caller may retry.
type ProvisioningError struct {
	RequestID int64
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning device for request %d failed: %v", e.RequestID, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
