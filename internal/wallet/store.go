package wallet

import (
    "context"

    "github.com/google/uuid"
)

// Store persists wallets and their transaction log. Wallet balances are
// never written outside WithinScope.
type Store interface {
    GetByID(ctx context.Context, id uuid.UUID) (Wallet, error)
    Insert(ctx context.Context, w Wallet) error
    Transactions(ctx context.Context, walletID uuid.UUID) ([]Transaction, error)
    // WithinScope runs fn inside an atomic commit unit. The unit commits when
    // fn returns nil and rolls back otherwise, including on panic and on
    // caller cancellation. The commit itself may report ErrVersionConflict.
    WithinScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error
}

// Scope is the set of writes permitted inside an atomic commit unit.
type Scope interface {
    // ConditionalUpdate writes w only if the stored version token of w.ID still
    // equals expected. w.VersionToken carries the replacement token. A
    // mismatch yields ErrVersionConflict.
    ConditionalUpdate(ctx context.Context, w Wallet, expected VersionToken) error
    AppendTransaction(ctx context.Context, tx Transaction) error
}
