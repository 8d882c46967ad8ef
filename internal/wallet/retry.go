package wallet

import (
    "context"
    "errors"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "github.com/congo-pay/wallet_service/internal/logging"
    "github.com/congo-pay/wallet_service/internal/metrics"
)

// retryState is owned by one logical update and discarded afterwards.
type retryState struct {
    attempt       int
    correlationID uuid.UUID
    walletID      uuid.UUID
    lastFetched   *Wallet
}

// Apply applies in.Amount to the wallet, retrying immediately with a freshly
// fetched wallet whenever the conditional write loses a version race. Each
// retry re-runs validation against the fresh balance. After the retry bound
// is reached the conflict is returned as a *ConflictExhaustedError.
func (e *Engine) Apply(ctx context.Context, in UpdateBalanceInput) (Wallet, error) {
    start := time.Now()
    w, err := e.applyWithRetry(ctx, in)
    e.metrics.RecordUpdate(outcomeOf(err), time.Since(start))
    return w, err
}

func (e *Engine) applyWithRetry(ctx context.Context, in UpdateBalanceInput) (Wallet, error) {
    state := retryState{correlationID: in.CorrelationID, walletID: in.WalletID}
    log := logging.WithCorrelation(e.logger, state.correlationID.String()).With(slog.String("wallet_id", state.walletID.String()))

    for {
        if err := ctx.Err(); err != nil {
            return Wallet{}, err
        }

        state.attempt++
        w, err := e.apply(ctx, in, state.lastFetched)
        if !errors.Is(err, ErrVersionConflict) {
            return w, err
        }

        if state.attempt > e.maxRetries {
            log.Error("giving up after repeated concurrency conflicts", slog.Int("attempts", state.attempt))
            e.metrics.RecordConflictExhausted()
            return Wallet{}, &ConflictExhaustedError{WalletID: state.walletID, Attempts: state.attempt}
        }

        log.Warn("retrying due to concurrency conflict", slog.Int("retry", state.attempt))
        e.metrics.RecordRetry()

        fresh, err := e.store.GetByID(ctx, state.walletID)
        switch {
        case errors.Is(err, ErrWalletNotFound):
            return Wallet{}, &ValidationError{Failures: ValidateUpdate(in, nil)}
        case err != nil:
            return Wallet{}, e.fail(ctx, log, in, "refetch wallet", err)
        }
        state.lastFetched = &fresh
    }
}

func outcomeOf(err error) string {
    switch {
    case err == nil:
        return metrics.OutcomeSuccess
    case IsValidation(err):
        return metrics.OutcomeValidationFailed
    case errors.Is(err, ErrVersionConflict):
        return metrics.OutcomeConflict
    case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
        return metrics.OutcomeCanceled
    default:
        return metrics.OutcomeFatal
    }
}
