package wallet

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// hookedStore wraps a MemoryStore and lets tests intercept scopes.
type hookedStore struct {
	*MemoryStore

	getCalls   atomic.Int32
	scopeCalls atomic.Int32

	// beforeScope runs before the wrapped WithinScope; a non-nil error
	// short-circuits it.
	beforeScope func(ctx context.Context, call int32) error
	// wrapScope decorates the scope handed to the engine.
	wrapScope func(Scope) Scope
	// getByID replaces the lookup when set.
	getByID func(ctx context.Context, id uuid.UUID, call int32) (Wallet, error)
}

func newHookedStore() *hookedStore {
	return &hookedStore{MemoryStore: NewMemoryStore()}
}

func (s *hookedStore) GetByID(ctx context.Context, id uuid.UUID) (Wallet, error) {
	call := s.getCalls.Add(1)
	if s.getByID != nil {
		return s.getByID(ctx, id, call)
	}
	return s.MemoryStore.GetByID(ctx, id)
}

func (s *hookedStore) WithinScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error {
	call := s.scopeCalls.Add(1)
	if s.beforeScope != nil {
		if err := s.beforeScope(ctx, call); err != nil {
			return err
		}
	}
	return s.MemoryStore.WithinScope(ctx, func(ctx context.Context, scope Scope) error {
		if s.wrapScope != nil {
			scope = s.wrapScope(scope)
		}
		return fn(ctx, scope)
	})
}

// recordingScope remembers every conditional update it forwards.
type recordingScope struct {
	Scope
	mu       sync.Mutex
	written  []Wallet
	expected []VersionToken
}

func (r *recordingScope) ConditionalUpdate(ctx context.Context, w Wallet, expected VersionToken) error {
	r.mu.Lock()
	r.written = append(r.written, w)
	r.expected = append(r.expected, expected)
	r.mu.Unlock()
	return r.Scope.ConditionalUpdate(ctx, w, expected)
}

// failingAppendScope applies the wallet update but fails the transaction insert.
type failingAppendScope struct {
	Scope
	err error
}

func (f failingAppendScope) AppendTransaction(context.Context, Transaction) error {
	return f.err
}

func seedWallet(t *testing.T, store Store, balance string) Wallet {
	t.Helper()
	w := Wallet{
		ID:           uuid.New(),
		OwnerUserID:  uuid.New(),
		OwnerName:    "Jane Doe",
		Balance:      decimal.RequireFromString(balance),
		VersionToken: uuid.New(),
	}
	require.NoError(t, store.Insert(context.Background(), w))
	return w
}

func updateInput(walletID uuid.UUID, amount string) UpdateBalanceInput {
	return UpdateBalanceInput{
		CorrelationID: uuid.New(),
		WalletID:      walletID,
		Amount:        decimal.RequireFromString(amount),
		ClientID:      uuid.New(),
	}
}

func requireBalance(t *testing.T, store Store, id uuid.UUID, want string) {
	t.Helper()
	w, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Truef(t, w.Balance.Equal(decimal.RequireFromString(want)), "balance: want %s got %s", want, w.Balance)
}
