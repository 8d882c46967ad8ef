package wallet

import (
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"
)

var (
    // ErrWalletNotFound is returned by lookups for an unknown wallet id.
    ErrWalletNotFound = errors.New("wallet not found")

    // ErrDuplicateOwner reports a second wallet for the same owner user id.
    ErrDuplicateOwner = errors.New("wallet already exists for this user")

    // ErrVersionConflict is the expected outcome of a conditional update whose
    // version token no longer matches the stored one. It is transient and
    // retried by the coordinator.
    ErrVersionConflict = errors.New("version conflict")

    // ErrNegativeBalance is the storage-level balance constraint. Validators
    // reject such updates first, so hitting it indicates a store malfunction.
    ErrNegativeBalance = errors.New("balance constraint violated")
)

// FieldError is a single caller-correctable failure.
type FieldError struct {
    Field   string `json:"field"`
    Message string `json:"message"`
}

// ValidationError carries the structured reasons a request was rejected.
type ValidationError struct {
    Failures []FieldError
}

func (e *ValidationError) Error() string {
    return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the failure messages in order.
func (e *ValidationError) Messages() []string {
    msgs := make([]string, 0, len(e.Failures))
    for _, f := range e.Failures {
        msgs = append(msgs, f.Message)
    }
    return msgs
}

// ConflictExhaustedError is the terminal error of an update whose every
// attempt lost the version race.
type ConflictExhaustedError struct {
    WalletID uuid.UUID
    Attempts int
}

func (e *ConflictExhaustedError) Error() string {
    return fmt.Sprintf("wallet %s: version conflict persisted after %d attempts", e.WalletID, e.Attempts)
}

// Unwrap lets callers match the terminal error with errors.Is(err, ErrVersionConflict).
func (e *ConflictExhaustedError) Unwrap() error {
    return ErrVersionConflict
}

// IsValidation reports whether err carries caller-correctable failures.
func IsValidation(err error) bool {
    var ve *ValidationError
    return errors.As(err, &ve)
}
