package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	ownerUniqueConstraint = "wallets_owner_user_id_key"

	rollbackTimeout = 5 * time.Second
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
        id             UUID PRIMARY KEY,
        owner_user_id  UUID NOT NULL,
        owner_name     TEXT NOT NULL,
        balance        NUMERIC(14,4) NOT NULL,
        version_token  UUID NOT NULL,
        correlation_id UUID,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
        CONSTRAINT wallets_owner_user_id_key UNIQUE (owner_user_id),
        CONSTRAINT wallets_balance_non_negative CHECK (balance >= 0)
    )`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
        id             UUID PRIMARY KEY,
        wallet_id      UUID NOT NULL REFERENCES wallets (id),
        amount         NUMERIC(14,4) NOT NULL,
        occurred_at    TIMESTAMPTZ NOT NULL,
        correlation_id UUID,
        client_id      UUID
    )`,
	`CREATE INDEX IF NOT EXISTS wallet_transactions_wallet_id_idx
        ON wallet_transactions (wallet_id, occurred_at)`,
}

// PostgresStore stores wallets in PostgreSQL. Version conflicts are detected
// by conditioning the UPDATE on the previously read token.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the wallet tables when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure wallet schema: %w", err)
		}
	}
	return nil
}

// GetByID fetches the latest committed wallet state.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, owner_user_id, owner_name, balance::text, version_token, correlation_id, created_at
        FROM wallets WHERE id = $1`, id)

	var (
		w             Wallet
		balance       string
		correlationID *uuid.UUID
		createdAt     time.Time
	)
	if err := row.Scan(&w.ID, &w.OwnerUserID, &w.OwnerName, &balance, &w.VersionToken, &correlationID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("decode balance of wallet %s: %w", id, err)
	}
	w.Balance = amount
	if correlationID != nil {
		w.CorrelationID = *correlationID
	}
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

// Insert stores a new wallet. A second wallet for the same owner yields ErrDuplicateOwner.
func (s *PostgresStore) Insert(ctx context.Context, w Wallet) error {
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (id, owner_user_id, owner_name, balance, version_token, correlation_id, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		w.ID, w.OwnerUserID, w.OwnerName, w.Balance.String(), w.VersionToken, w.CorrelationID, w.CreatedAt.UTC())
	return translatePgError(err)
}

// Transactions lists the wallet's transaction log, oldest first.
func (s *PostgresStore) Transactions(ctx context.Context, walletID uuid.UUID) ([]Transaction, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrWalletNotFound
	}

	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, amount::text, occurred_at, correlation_id, client_id
        FROM wallet_transactions WHERE wallet_id = $1 ORDER BY occurred_at, id`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			tx            Transaction
			amount        string
			correlationID *uuid.UUID
			clientID      *uuid.UUID
		)
		if err := rows.Scan(&tx.ID, &tx.WalletID, &amount, &tx.Timestamp, &correlationID, &clientID); err != nil {
			return nil, err
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount of transaction %s: %w", tx.ID, err)
		}
		if correlationID != nil {
			tx.CorrelationID = *correlationID
		}
		if clientID != nil {
			tx.ClientID = *clientID
		}
		tx.Timestamp = tx.Timestamp.UTC()
		out = append(out, tx)
	}
	return out, rows.Err()
}

// WithinScope runs fn inside a database transaction. The rollback uses a
// context detached from the caller so a cancelled request still releases
// its transaction.
func (s *PostgresStore) WithinScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}
	defer func() {
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		_ = tx.Rollback(rbCtx) // no-op after a successful commit
	}()

	if err := fn(ctx, &postgresScope{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit scope: %w", translatePgError(err))
	}
	return nil
}

type postgresScope struct {
	tx pgx.Tx
}

func (sc *postgresScope) ConditionalUpdate(ctx context.Context, w Wallet, expected VersionToken) error {
	cmd, err := sc.tx.Exec(ctx, `UPDATE wallets SET balance = $1::numeric, version_token = $2
        WHERE id = $3 AND version_token = $4`, w.Balance.String(), w.VersionToken, w.ID, expected)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (sc *postgresScope) AppendTransaction(ctx context.Context, t Transaction) error {
	_, err := sc.tx.Exec(ctx, `INSERT INTO wallet_transactions (id, wallet_id, amount, occurred_at, correlation_id, client_id)
        VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
		t.ID, t.WalletID, t.Amount.String(), t.Timestamp.UTC(), t.CorrelationID, t.ClientID)
	return translatePgError(err)
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == ownerUniqueConstraint:
		return ErrDuplicateOwner
	case pgErr.Code == pgCheckViolation:
		return fmt.Errorf("%w: %s", ErrNegativeBalance, pgErr.Message)
	default:
		return err
	}
}
