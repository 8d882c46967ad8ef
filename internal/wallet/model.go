package wallet

import (
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
)

// Wallet is a monetary account. Its balance is only ever changed through
// the balance mutation engine.
type Wallet struct {
    ID            uuid.UUID
    OwnerUserID   uuid.UUID
    OwnerName     string
    Balance       decimal.Decimal
    VersionToken  VersionToken
    CorrelationID uuid.UUID
    CreatedAt     time.Time
}

// Transaction is an immutable record of one applied balance delta.
// Positive amounts are credits, negative amounts debits.
type Transaction struct {
    ID            uuid.UUID
    WalletID      uuid.UUID
    Amount        decimal.Decimal
    Timestamp     time.Time
    CorrelationID uuid.UUID
    ClientID      uuid.UUID
}

// CreateWalletInput captures data required to create a wallet.
type CreateWalletInput struct {
    CorrelationID uuid.UUID
    UserID        uuid.UUID
    FullName      string
    Balance       decimal.Decimal
}

// UpdateBalanceInput captures one signed balance change request.
type UpdateBalanceInput struct {
    CorrelationID uuid.UUID
    WalletID      uuid.UUID
    Amount        decimal.Decimal
    ClientID      uuid.UUID
}
