package wallet

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "github.com/congo-pay/wallet_service/internal/logging"
    "github.com/congo-pay/wallet_service/internal/notification"
)

// Service exposes wallet operations to the transport layer.
type Service struct {
    store    Store
    engine   *Engine
    tokens   TokenSource
    clock    func() time.Time
    notifier notification.Notifier
    logger   *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
    o := buildOptions(opts)
    if logger == nil {
        logger = logging.Discard()
    }
    return &Service{
        store:    store,
        engine:   NewEngine(store, logger, opts...),
        tokens:   o.tokens,
        clock:    o.clock,
        notifier: o.notifier,
        logger:   logger,
    }
}

// Create provisions a wallet with a fresh id and an initial version token.
func (s *Service) Create(ctx context.Context, input CreateWalletInput) (Wallet, error) {
    log := logging.WithCorrelation(s.logger, input.CorrelationID.String()).With(slog.String("user_id", input.UserID.String()))

    if failures := ValidateCreate(input); len(failures) > 0 {
        verr := &ValidationError{Failures: failures}
        log.Error("validation failed for create wallet request", slog.Any("errors", verr.Messages()))
        return Wallet{}, verr
    }

    w := Wallet{
        ID:            uuid.New(),
        OwnerUserID:   input.UserID,
        OwnerName:     input.FullName,
        Balance:       input.Balance,
        VersionToken:  s.tokens.Next(),
        CorrelationID: input.CorrelationID,
        CreatedAt:     s.clock().UTC(),
    }

    if err := s.store.Insert(ctx, w); err != nil {
        if errors.Is(err, ErrDuplicateOwner) {
            log.Warn("wallet already exists for user")
            return Wallet{}, &ValidationError{Failures: []FieldError{{Field: "userId", Message: msgDuplicateOwner}}}
        }
        log.Error("create wallet failed", slog.Any("error", err))
        return Wallet{}, fmt.Errorf("correlation %s: create wallet: %w", input.CorrelationID, err)
    }

    log.Info("created wallet", slog.String("wallet_id", w.ID.String()))
    s.notify(ctx, notification.Message{
        Kind:          notification.KindWalletCreated,
        CorrelationID: input.CorrelationID.String(),
        WalletID:      w.ID.String(),
        Body:          fmt.Sprintf("wallet opened with balance %s", w.Balance),
    })
    return w, nil
}

// Get retrieves a wallet. Unknown ids yield ErrWalletNotFound.
func (s *Service) Get(ctx context.Context, correlationID, walletID uuid.UUID) (Wallet, error) {
    log := logging.WithCorrelation(s.logger, correlationID.String()).With(slog.String("wallet_id", walletID.String()))

    w, err := s.store.GetByID(ctx, walletID)
    if err != nil {
        if errors.Is(err, ErrWalletNotFound) {
            log.Warn("wallet not found")
            return Wallet{}, ErrWalletNotFound
        }
        log.Error("retrieve wallet failed", slog.Any("error", err))
        return Wallet{}, fmt.Errorf("correlation %s: get wallet: %w", correlationID, err)
    }
    return w, nil
}

// UpdateBalance applies a signed amount and records the transaction.
func (s *Service) UpdateBalance(ctx context.Context, input UpdateBalanceInput) (Wallet, error) {
    w, err := s.engine.Apply(ctx, input)
    if err != nil {
        return Wallet{}, err
    }
    s.notify(ctx, notification.Message{
        Kind:          notification.KindBalanceChanged,
        CorrelationID: input.CorrelationID.String(),
        WalletID:      w.ID.String(),
        Body:          fmt.Sprintf("applied %s, balance %s", input.Amount, w.Balance),
    })
    return w, nil
}

// Transactions returns the wallet's transaction history, oldest first.
func (s *Service) Transactions(ctx context.Context, correlationID, walletID uuid.UUID) ([]Transaction, error) {
    txs, err := s.store.Transactions(ctx, walletID)
    if err != nil {
        if errors.Is(err, ErrWalletNotFound) {
            return nil, ErrWalletNotFound
        }
        logging.WithCorrelation(s.logger, correlationID.String()).
            Error("list transactions failed", slog.String("wallet_id", walletID.String()), slog.Any("error", err))
        return nil, fmt.Errorf("correlation %s: list transactions: %w", correlationID, err)
    }
    return txs, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
    if s.notifier == nil {
        return
    }
    if err := s.notifier.Send(ctx, msg); err != nil {
        s.logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
    }
}
