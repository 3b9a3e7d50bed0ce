package handler

import (
	"context"
	"net/http"

	"autobid/internal/auth"
	"autobid/internal/models"
	"autobid/internal/pricing"
	"autobid/internal/wallet"
	"autobid/services/wallet/helpers"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=wallet_handler.go -destination=mock_wallet_service.go -package=handler

type WalletServiceInterface interface {
	Balance(ctx context.Context, userID string) (int64, error)
	TopUp(ctx context.Context, userID string, amount int64) (models.WalletTransaction, error)
	Withdraw(ctx context.Context, userID string, amount int64) (models.WalletTransaction, error)
	Transactions(ctx context.Context, userID string, filter wallet.TransactionFilter) (wallet.TransactionPage, error)
	Summary(ctx context.Context, userID string) (wallet.Summary, error)
}

type WalletHandler struct {
	service WalletServiceInterface
}

func NewWalletHandler(service WalletServiceInterface) *WalletHandler {
	return &WalletHandler{service: service}
}

// BalanceHandler handles GET /api/wallet/balance
func (h *WalletHandler) BalanceHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), principal.UserID)
	if err != nil {
		utils.HandleServiceError(c, "BalanceHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.BalanceResponse{WalletBalance: balance}, "balance retrieved successfully")
}

// TopUpHandler handles POST /api/wallet/topup
func (h *WalletHandler) TopUpHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "TopUpHandler", err)
		return
	}

	entry, err := h.service.TopUp(c.Request.Context(), principal.UserID, req.Amount)
	if err != nil {
		utils.HandleServiceError(c, "TopUpHandler", err, map[string]any{
			"user_id": principal.UserID,
			"amount":  req.Amount,
		})
		return
	}

	resp := helpers.TopUpResponse{WalletBalance: entry.BalanceAfter, AmountAdded: entry.Amount, Transaction: entry}
	utils.JSONResponse(c, http.StatusOK, resp, "Wallet topped up successfully with "+pricing.FormatAmount(req.Amount))
	utils.LogSuccess("TopUpHandler", "wallet topped up", map[string]any{
		"user_id": principal.UserID,
		"amount":  req.Amount,
		"balance": entry.BalanceAfter,
	})
}

// WithdrawHandler handles POST /api/wallet/withdraw
func (h *WalletHandler) WithdrawHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "WithdrawHandler", err)
		return
	}

	entry, err := h.service.Withdraw(c.Request.Context(), principal.UserID, req.Amount)
	if err != nil {
		utils.HandleServiceError(c, "WithdrawHandler", err, map[string]any{
			"user_id": principal.UserID,
			"amount":  req.Amount,
		})
		return
	}

	resp := helpers.WithdrawResponse{WalletBalance: entry.BalanceAfter, AmountWithdrawn: req.Amount, Transaction: entry}
	utils.JSONResponse(c, http.StatusOK, resp, "Withdrawal successful")
	utils.LogSuccess("WithdrawHandler", "wallet withdrawal", map[string]any{
		"user_id": principal.UserID,
		"amount":  req.Amount,
		"balance": entry.BalanceAfter,
	})
}

// TransactionsHandler handles GET /api/wallet/transactions
func (h *WalletHandler) TransactionsHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var q helpers.TransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleBindError(c, "TransactionsHandler", err)
		return
	}

	page, err := h.service.Transactions(c.Request.Context(), principal.UserID, wallet.TransactionFilter{
		Type:  q.Type,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		utils.HandleServiceError(c, "TransactionsHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}
	if page.Transactions == nil {
		page.Transactions = []models.WalletTransaction{}
	}

	utils.JSONResponse(c, http.StatusOK, page, "transactions retrieved successfully")
}

// SummaryHandler handles GET /api/wallet/summary
func (h *WalletHandler) SummaryHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), principal.UserID)
	if err != nil {
		utils.HandleServiceError(c, "SummaryHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, summary, "summary retrieved successfully")
}
