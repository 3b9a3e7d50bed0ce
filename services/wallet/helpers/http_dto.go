package helpers

import "autobid/internal/models"

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type TransactionsQuery struct {
	Type  models.TransactionType `form:"type" binding:"omitempty,oneof=deposit withdrawal bid refund"`
	Page  int                    `form:"page" binding:"omitempty,min=1"`
	Limit int                    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type BalanceResponse struct {
	WalletBalance int64 `json:"walletBalance"`
}

type TopUpResponse struct {
	WalletBalance int64                    `json:"walletBalance"`
	AmountAdded   int64                    `json:"amountAdded"`
	Transaction   models.WalletTransaction `json:"transaction"`
}

type WithdrawResponse struct {
	WalletBalance   int64                    `json:"walletBalance"`
	AmountWithdrawn int64                    `json:"amountWithdrawn"`
	Transaction     models.WalletTransaction `json:"transaction"`
}
