package checkout

import "fmt"

// PrerequisiteError represents a failed read that the checkout cannot proceed
// without (cart, address or product data). No order has been created when this
// is returned.
type PrerequisiteError struct {
	Step string
	Err  error
}

// Error implements the error interface
func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("checkout prerequisite %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error
func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// CommitError represents a rejected order submission. Nothing has been
// committed anywhere when this is returned.
type CommitError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *CommitError) Error() string {
	return fmt.Sprintf("order could not be created: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CommitError) Unwrap() error {
	return e.Err
}

// SessionError represents a failed payment-session creation for an order that
// already exists. The order and any completed cleanup stand; only the response
// fails.
type SessionError struct {
	OrderID string
	Err     error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	return fmt.Sprintf("payment session for order %s could not be created: %v", e.OrderID, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}
