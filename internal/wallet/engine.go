package wallet

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "github.com/congo-pay/wallet_service/internal/logging"
    "github.com/congo-pay/wallet_service/internal/metrics"
    "github.com/congo-pay/wallet_service/internal/notification"
)

// DefaultMaxRetries bounds how many times a conflicting update is retried,
// giving DefaultMaxRetries+1 attempts in total.
const DefaultMaxRetries = 3

type options struct {
    tokens     TokenSource
    clock      func() time.Time
    metrics    metrics.Collector
    notifier   notification.Notifier
    maxRetries int
}

// Option customises an Engine or Service.
type Option func(*options)

// WithTokenSource overrides how version tokens are generated.
func WithTokenSource(src TokenSource) Option {
    return func(o *options) { o.tokens = src }
}

// WithClock overrides the transaction timestamp source.
func WithClock(clock func() time.Time) Option {
    return func(o *options) { o.clock = clock }
}

// WithMetrics reports engine outcomes to collector.
func WithMetrics(collector metrics.Collector) Option {
    return func(o *options) { o.metrics = collector }
}

// WithNotifier emits wallet events to n after successful writes.
func WithNotifier(n notification.Notifier) Option {
    return func(o *options) { o.notifier = n }
}

// WithMaxRetries sets the conflict retry bound. Negative values are ignored.
func WithMaxRetries(n int) Option {
    return func(o *options) {
        if n >= 0 {
            o.maxRetries = n
        }
    }
}

func buildOptions(opts []Option) options {
    o := options{
        tokens:     RandomTokens{},
        clock:      time.Now,
        metrics:    metrics.NoOpCollector{},
        maxRetries: DefaultMaxRetries,
    }
    for _, opt := range opts {
        opt(&o)
    }
    return o
}

// Engine applies signed balance deltas using optimistic concurrency control.
type Engine struct {
    store      Store
    tokens     TokenSource
    clock      func() time.Time
    metrics    metrics.Collector
    logger     *slog.Logger
    maxRetries int
}

// NewEngine builds a balance mutation engine over store.
func NewEngine(store Store, logger *slog.Logger, opts ...Option) *Engine {
    o := buildOptions(opts)
    if logger == nil {
        logger = logging.Discard()
    }
    return &Engine{
        store:      store,
        tokens:     o.tokens,
        clock:      o.clock,
        metrics:    o.metrics,
        logger:     logger,
        maxRetries: o.maxRetries,
    }
}

// apply performs a single attempt. cached, when non-nil, is the wallet
// refetched by the retry coordinator; otherwise the wallet is read here.
// The snapshot that passes validation is the one whose token conditions the
// write.
func (e *Engine) apply(ctx context.Context, in UpdateBalanceInput, cached *Wallet) (Wallet, error) {
    log := logging.WithCorrelation(e.logger, in.CorrelationID.String()).With(slog.String("wallet_id", in.WalletID.String()))

    snapshot := cached
    if snapshot == nil {
        w, err := e.store.GetByID(ctx, in.WalletID)
        switch {
        case errors.Is(err, ErrWalletNotFound):
            // reported by validation
        case err != nil:
            return Wallet{}, e.fail(ctx, log, in, "load wallet", err)
        default:
            snapshot = &w
        }
    }

    if failures := ValidateUpdate(in, snapshot); len(failures) > 0 {
        verr := &ValidationError{Failures: failures}
        log.Error("balance update rejected", slog.Any("errors", verr.Messages()))
        e.metrics.RecordAttempt(metrics.OutcomeValidationFailed)
        return Wallet{}, verr
    }

    next := *snapshot
    expected := next.VersionToken
    next.Balance = next.Balance.Add(in.Amount)
    next.VersionToken = e.tokens.Next()

    record := Transaction{
        ID:            uuid.New(),
        WalletID:      next.ID,
        Amount:        in.Amount,
        Timestamp:     e.clock().UTC(),
        CorrelationID: in.CorrelationID,
        ClientID:      in.ClientID,
    }

    err := e.store.WithinScope(ctx, func(ctx context.Context, scope Scope) error {
        if err := scope.ConditionalUpdate(ctx, next, expected); err != nil {
            return err
        }
        return scope.AppendTransaction(ctx, record)
    })
    switch {
    case err == nil:
        log.Info("updated wallet and created transaction",
            slog.String("transaction_id", record.ID.String()),
            slog.String("balance", next.Balance.String()))
        e.metrics.RecordAttempt(metrics.OutcomeSuccess)
        return next, nil
    case errors.Is(err, ErrVersionConflict):
        log.Warn("concurrency conflict occurred", slog.String("expected_token", expected.String()))
        e.metrics.RecordAttempt(metrics.OutcomeConflict)
        return Wallet{}, ErrVersionConflict
    default:
        return Wallet{}, e.fail(ctx, log, in, "update wallet and create transaction", err)
    }
}

// fail logs and classifies a non-conflict failure. Cancellation is returned
// unwrapped so callers can match it directly.
func (e *Engine) fail(ctx context.Context, log *slog.Logger, in UpdateBalanceInput, op string, err error) error {
    if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
        log.Warn("balance update canceled", slog.String("op", op))
        e.metrics.RecordAttempt(metrics.OutcomeCanceled)
        return ctxErr
    }
    log.Error("balance update failed", slog.String("op", op), slog.Any("error", err))
    e.metrics.RecordAttempt(metrics.OutcomeFatal)
    return fmt.Errorf("correlation %s: %s for wallet %s: %w", in.CorrelationID, op, in.WalletID, err)
}
