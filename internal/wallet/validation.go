package wallet

import (
    "strings"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
)

// Money is persisted as NUMERIC(14,4): at most four decimal places and an
// absolute value below 10^10.
const moneyScale = 4

var moneyLimit = decimal.New(1, 10)

const (
    msgNegativeBalance    = "The balance of a wallet cannot be negative."
    msgMissingUserID      = "The userId is required."
    msgMissingFullName    = "The fullName is required."
    msgWalletDoesNotExist = "The wallet does not exist."
    msgInsufficientFunds  = "Insufficient funds."
    msgDuplicateOwner     = "A wallet with the same userId already exists"
    msgBalanceScale       = "The balance cannot have more than 4 decimal places."
    msgBalanceRange       = "The balance must be less than 10000000000."
    msgAmountScale        = "The amount cannot have more than 4 decimal places."
    msgAmountRange        = "The amount must be less than 10000000000 in absolute value."
    msgBalanceOverflow    = "The resulting balance would exceed the maximum allowed."
)

// ValidateCreate checks a creation request. It returns no failures when the
// request is acceptable.
func ValidateCreate(input CreateWalletInput) []FieldError {
    var failures []FieldError
    if input.Balance.IsNegative() {
        failures = append(failures, FieldError{Field: "balance", Message: msgNegativeBalance})
    }
    if !fitsScale(input.Balance) {
        failures = append(failures, FieldError{Field: "balance", Message: msgBalanceScale})
    }
    if !fitsRange(input.Balance) {
        failures = append(failures, FieldError{Field: "balance", Message: msgBalanceRange})
    }
    if input.UserID == uuid.Nil {
        failures = append(failures, FieldError{Field: "userId", Message: msgMissingUserID})
    }
    if strings.TrimSpace(input.FullName) == "" {
        failures = append(failures, FieldError{Field: "fullName", Message: msgMissingFullName})
    }
    return failures
}

// ValidateUpdate checks a balance change against the wallet snapshot that the
// subsequent conditional write will be based on. A nil wallet means the
// referenced wallet does not exist.
func ValidateUpdate(input UpdateBalanceInput, w *Wallet) []FieldError {
    if w == nil {
        return []FieldError{{Field: "walletId", Message: msgWalletDoesNotExist}}
    }
    var failures []FieldError
    if !fitsScale(input.Amount) {
        failures = append(failures, FieldError{Field: "amount", Message: msgAmountScale})
    }
    if !fitsRange(input.Amount) {
        failures = append(failures, FieldError{Field: "amount", Message: msgAmountRange})
    }
    if len(failures) > 0 {
        return failures
    }

    next := w.Balance.Add(input.Amount)
    if next.IsNegative() {
        return []FieldError{{Field: "amount", Message: msgInsufficientFunds}}
    }
    if !fitsRange(next) {
        return []FieldError{{Field: "amount", Message: msgBalanceOverflow}}
    }
    return nil
}

// fitsScale reports whether d has no significant digits beyond moneyScale.
// Trailing zeros such as 1.50000 are accepted.
func fitsScale(d decimal.Decimal) bool {
    return d.Equal(d.Truncate(moneyScale))
}

func fitsRange(d decimal.Decimal) bool {
    return d.Abs().LessThan(moneyLimit)
}
