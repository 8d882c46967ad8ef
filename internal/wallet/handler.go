package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	CorrelationID uuid.UUID       `json:"correlationId"`
	UserID        uuid.UUID       `json:"userId"`
	FullName      string          `json:"fullName"`
	Balance       decimal.Decimal `json:"balance"`
}

type updateRequest struct {
	CorrelationID uuid.UUID       `json:"correlationId"`
	WalletID      uuid.UUID       `json:"walletId"`
	Amount        decimal.Decimal `json:"amount"`
	ClientID      uuid.UUID       `json:"clientId"`
}

type walletResponse struct {
	WalletID uuid.UUID       `json:"walletId"`
	Owner    string          `json:"owner"`
	UserID   uuid.UUID       `json:"userId"`
	Balance  decimal.Decimal `json:"balance"`
}

type transactionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	ClientID  uuid.UUID       `json:"clientId"`
}

type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type failureResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Create provisions a wallet for a user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	wallet, err := h.service.Create(c.UserContext(), CreateWalletInput{
		CorrelationID: correlationID(c, req.CorrelationID),
		UserID:        req.UserID,
		FullName:      req.FullName,
		Balance:       req.Balance,
	})
	if err != nil {
		return writeError(c, err, "An error occurred while creating wallet.")
	}
	return c.Status(http.StatusAccepted).JSON(envelope{Message: "Wallet Created Successfully.", Data: toResponse(wallet)})
}

// Get returns a single wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return badRequest(c, "walletId must be a valid UUID")
	}
	wallet, err := h.service.Get(c.UserContext(), correlationID(c, uuid.Nil), walletID)
	if err != nil {
		return writeError(c, err, "An error occurred while retrieving the wallet.")
	}
	return c.Status(http.StatusOK).JSON(toResponse(wallet))
}

// UpdateBalance applies a signed amount to a wallet.
func (h *Handler) UpdateBalance(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	wallet, err := h.service.UpdateBalance(c.UserContext(), UpdateBalanceInput{
		CorrelationID: correlationID(c, req.CorrelationID),
		WalletID:      req.WalletID,
		Amount:        req.Amount,
		ClientID:      req.ClientID,
	})
	if err != nil {
		return writeError(c, err, "An error occurred while updating the wallet.")
	}
	return c.Status(http.StatusAccepted).JSON(envelope{Message: "Wallet updated successfully.", Data: toResponse(wallet)})
}

// Transactions lists the wallet's transaction history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return badRequest(c, "walletId must be a valid UUID")
	}
	txs, err := h.service.Transactions(c.UserContext(), correlationID(c, uuid.Nil), walletID)
	if err != nil {
		return writeError(c, err, "An error occurred while listing transactions.")
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{ID: tx.ID, Amount: tx.Amount, Timestamp: tx.Timestamp, ClientID: tx.ClientID})
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{WalletID: w.ID, Owner: w.OwnerName, UserID: w.OwnerUserID, Balance: w.Balance}
}

// correlationID prefers the id sent in the body and falls back to the one
// resolved by the correlation middleware.
func correlationID(c *fiber.Ctx, fromBody uuid.UUID) uuid.UUID {
	if fromBody != uuid.Nil {
		return fromBody
	}
	if id := middleware.CorrelationIDFrom(c); id != uuid.Nil {
		return id
	}
	return uuid.New()
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(failureResponse{Message: "Validation Failed", Errors: []string{msg}})
}

func writeError(c *fiber.Ctx, err error, fallback string) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(failureResponse{Message: "Validation Failed", Errors: verr.Messages()})
	case errors.Is(err, ErrWalletNotFound):
		return c.Status(http.StatusNotFound).JSON(failureResponse{Message: "Wallet not found."})
	case errors.Is(err, ErrVersionConflict):
		return c.Status(http.StatusConflict).JSON(failureResponse{Message: "The wallet is being updated concurrently, please retry."})
	default:
		return c.Status(http.StatusInternalServerError).JSON(failureResponse{Message: fallback})
	}
}
