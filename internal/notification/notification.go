package notification

import (
    "context"
    "log/slog"

    "github.com/congo-pay/wallet_service/internal/logging"
)

const (
    // KindBalanceChanged indicates a committed balance mutation.
    KindBalanceChanged = "balance_changed"
    // KindWalletCreated indicates a newly provisioned wallet.
    KindWalletCreated = "wallet_created"
)

// Message describes an event emitted to downstream observers.
type Message struct {
    Kind          string
    CorrelationID string
    WalletID      string
    Body          string
}

// Notifier delivers events to downstream systems. Callers never depend on
// the outcome of Send.
type Notifier interface {
    Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes events to the logger.
type LoggerNotifier struct {
    logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
    return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
    if n == nil || n.logger == nil {
        return nil
    }
    logging.WithCorrelation(n.logger, message.CorrelationID).
        Info("notification", "kind", message.Kind, "wallet_id", message.WalletID, "body", message.Body)
    return nil
}
