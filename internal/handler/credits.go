package handler

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
)

// CreditHandler serves balances, the transaction history, the pricing
// catalog, the payment-provider webhook and admin adjustments.
type CreditHandler struct {
	Credits *service.CreditService
	Ledger  *repository.CreditRepo
	Pricing *repository.PricingRepo

	// WebhookSecret authenticates the payment provider callback.
	WebhookSecret string
}

func NewCreditHandler(credits *service.CreditService, ledger *repository.CreditRepo,
	pricing *repository.PricingRepo, webhookSecret string) *CreditHandler {
	return &CreditHandler{Credits: credits, Ledger: ledger, Pricing: pricing, WebhookSecret: webhookSecret}
}

type creditTransactionResponse struct {
	ID          uint64  `json:"id"`
	Amount      int64   `json:"amount"`
	Type        string  `json:"type"`
	ReferenceID *uint64 `json:"reference_id,omitempty"`
	Note        string  `json:"note,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toTransactionResponse(t model.CreditTransaction) creditTransactionResponse {
	return creditTransactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        t.Type,
		ReferenceID: t.ReferenceID,
		Note:        t.Note,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// GetBalance handles GET /v1/credits/balance.
func (h *CreditHandler) GetBalance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	balance, err := h.Credits.Balance(c.Request().Context(), userID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"user_id": userID, "balance": balance})
}

// ListTransactions handles GET /v1/credits/transactions.
func (h *CreditHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Ledger.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]creditTransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	return c.JSON(200, echo.Map{"transactions": out})
}

// ListPricing handles GET /v1/pricing: the active pricing catalog.
func (h *CreditHandler) ListPricing(c echo.Context) error {
	items, err := h.Pricing.List(c.Request().Context())
	if err != nil {
		return writeRepoError(c, err)
	}
	type item struct {
		ID      uint64 `json:"id"`
		Name    string `json:"name"`
		Credits int64  `json:"credits"`
	}
	out := make([]item, 0, len(items))
	for _, p := range items {
		out = append(out, item{ID: p.ID, Name: p.Name, Credits: p.Credits})
	}
	return c.JSON(200, echo.Map{"items": out})
}

type paymentWebhookRequest struct {
	UserID    uint64 `json:"user_id"`
	Credits   int64  `json:"credits"`
	PaymentID string `json:"payment_id"`
}

// PaymentWebhook handles POST /v1/webhooks/payment. The payment
// provider calls it after a successful purchase; the credited amount is
// recorded as a PURCHASE ledger entry.
func (h *CreditHandler) PaymentWebhook(c echo.Context) error {
	if h.WebhookSecret == "" || c.Request().Header.Get("X-Webhook-Secret") != h.WebhookSecret {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	var req paymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.PaymentID == "" {
		return c.JSON(400, echo.Map{"error": "user_id and payment_id are required"})
	}
	entry, err := h.Credits.Purchase(c.Request().Context(), req.UserID, req.Credits, "payment "+req.PaymentID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.JSON(400, echo.Map{"error": "credits must be positive"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"transaction_id": entry.ID, "amount": entry.Amount})
}

type adminAdjustRequest struct {
	UserID uint64 `json:"user_id"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

// AdminAdjust handles POST /v1/admin/credits/adjustments. The amount
// may be negative but can never push a balance below zero.
func (h *CreditHandler) AdminAdjust(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	var req adminAdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 {
		return c.JSON(400, echo.Map{"error": "user_id is required"})
	}
	entry, err := h.Credits.AdminAdjust(c.Request().Context(), req.UserID, req.Amount, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.JSON(400, echo.Map{"error": "amount must be non-zero"})
		}
		return writeRepoError(c, err)
	}
	publishAudit(queue.AuditEvent{
		Action:   queue.ActionCreditAdjusted,
		ActorID:  adminID,
		TargetID: entry.ID,
		UserID:   req.UserID,
		Amount:   req.Amount,
		Detail:   req.Note,
	})
	return c.JSON(200, toTransactionResponse(entry))
}
