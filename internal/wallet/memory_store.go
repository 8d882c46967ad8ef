package wallet

import (
    "context"
    "errors"
    "fmt"
    "sync"

    "github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory Store. Conditional updates are
// checked when staged and re-checked under the write lock at commit, so two
// scopes holding the same token can never both commit.
type MemoryStore struct {
    mu           sync.RWMutex
    wallets      map[uuid.UUID]Wallet
    owners       map[uuid.UUID]uuid.UUID
    transactions map[uuid.UUID][]Transaction
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        wallets:      make(map[uuid.UUID]Wallet),
        owners:       make(map[uuid.UUID]uuid.UUID),
        transactions: make(map[uuid.UUID][]Transaction),
    }
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (Wallet, error) {
    if err := ctx.Err(); err != nil {
        return Wallet{}, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    w, ok := s.wallets[id]
    if !ok {
        return Wallet{}, ErrWalletNotFound
    }
    return w, nil
}

func (s *MemoryStore) Insert(ctx context.Context, w Wallet) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    if w.Balance.IsNegative() {
        return ErrNegativeBalance
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, exists := s.wallets[w.ID]; exists {
        return fmt.Errorf("wallet %s already exists", w.ID)
    }
    if _, exists := s.owners[w.OwnerUserID]; exists {
        return ErrDuplicateOwner
    }
    s.wallets[w.ID] = w
    s.owners[w.OwnerUserID] = w.ID
    return nil
}

func (s *MemoryStore) Transactions(ctx context.Context, walletID uuid.UUID) ([]Transaction, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    if _, ok := s.wallets[walletID]; !ok {
        return nil, ErrWalletNotFound
    }
    log := s.transactions[walletID]
    out := make([]Transaction, len(log))
    copy(out, log)
    return out, nil
}

func (s *MemoryStore) WithinScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    scope := &memoryScope{store: s, updates: make(map[uuid.UUID]stagedUpdate)}
    // Staged writes are only applied by commit; every other exit discards them.
    defer scope.close()

    if err := fn(ctx, scope); err != nil {
        return err
    }
    if err := ctx.Err(); err != nil {
        return err
    }
    return s.commit(scope)
}

func (s *MemoryStore) commit(scope *memoryScope) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    for id, u := range scope.updates {
        current, ok := s.wallets[id]
        if !ok || current.VersionToken != u.expected {
            return ErrVersionConflict
        }
        if u.wallet.Balance.IsNegative() {
            return ErrNegativeBalance
        }
    }
    for _, tx := range scope.appended {
        if _, ok := s.wallets[tx.WalletID]; !ok {
            return fmt.Errorf("transaction %s references unknown wallet %s", tx.ID, tx.WalletID)
        }
    }

    for id, u := range scope.updates {
        s.wallets[id] = u.wallet
    }
    for _, tx := range scope.appended {
        s.transactions[tx.WalletID] = append(s.transactions[tx.WalletID], tx)
    }
    return nil
}

type stagedUpdate struct {
    wallet   Wallet
    expected VersionToken
}

type memoryScope struct {
    store    *MemoryStore
    updates  map[uuid.UUID]stagedUpdate
    appended []Transaction
    closed   bool
}

var errScopeClosed = errors.New("store scope already closed")

func (sc *memoryScope) ConditionalUpdate(ctx context.Context, w Wallet, expected VersionToken) error {
    if sc.closed {
        return errScopeClosed
    }
    if err := ctx.Err(); err != nil {
        return err
    }

    current, staged := sc.updates[w.ID]
    if staged {
        if current.wallet.VersionToken != expected {
            return ErrVersionConflict
        }
        sc.updates[w.ID] = stagedUpdate{wallet: w, expected: current.expected}
        return nil
    }

    stored, err := sc.store.GetByID(ctx, w.ID)
    if errors.Is(err, ErrWalletNotFound) {
        return ErrVersionConflict
    }
    if err != nil {
        return err
    }
    if stored.VersionToken != expected {
        return ErrVersionConflict
    }
    sc.updates[w.ID] = stagedUpdate{wallet: w, expected: expected}
    return nil
}

func (sc *memoryScope) AppendTransaction(ctx context.Context, tx Transaction) error {
    if sc.closed {
        return errScopeClosed
    }
    if err := ctx.Err(); err != nil {
        return err
    }
    sc.appended = append(sc.appended, tx)
    return nil
}

func (sc *memoryScope) close() {
    sc.closed = true
    sc.updates = nil
    sc.appended = nil
}
