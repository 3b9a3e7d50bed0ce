package wallet

import (
	"context"
	"fmt"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/locker"
	"autobid/internal/metrics"
	"autobid/internal/models"
	"autobid/internal/pricing"
	"autobid/internal/repository"
	"autobid/utils"
)

// Refs links a ledger entry to the vehicle or bid that caused it
type Refs struct {
	VehicleID string
	BidID     string
}

// Ledger is the only writer of wallet balances. Every balance change is paired with an
// append-only WalletTransaction in the same storage transaction.
type Ledger struct {
	store   repository.Store
	locks   *locker.Keyed
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLedger creates a Ledger. locks must be shared with every other service that
// mutates wallets.
func NewLedger(store repository.Store, locks *locker.Keyed, m *metrics.Metrics) *Ledger {
	return &Ledger{
		store:   store,
		locks:   locks,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyInTx changes user's balance by amount and records the entry through db.
// The caller must hold the user's lock and pass the user as loaded inside the same transaction.
func (l *Ledger) ApplyInTx(ctx context.Context, db repository.AuctionDB, user models.User, amount int64,
	txType models.TransactionType, description string, refs Refs) (models.WalletTransaction, error) {
	if amount == 0 {
		return models.WalletTransaction{}, fmt.Errorf("wallet: %w - zero amount", biddingerrors.ErrInvalidAmount)
	}
	if !txType.Valid() {
		return models.WalletTransaction{}, fmt.Errorf("wallet: %w - unknown transaction type %q", biddingerrors.ErrInvalidInput, txType)
	}

	after := user.WalletBalance + amount
	if after < 0 {
		return models.WalletTransaction{}, biddingerrors.WithReason(biddingerrors.ErrInsufficientFunds,
			"insufficient wallet balance: %s available, %s required", pricing.FormatAmount(user.WalletBalance), pricing.FormatAmount(-amount))
	}

	entry := models.WalletTransaction{
		ID:               utils.GenerateID(),
		UserID:           user.ID,
		Type:             txType,
		Amount:           amount,
		BalanceBefore:    user.WalletBalance,
		BalanceAfter:     after,
		Description:      description,
		RelatedVehicleID: refs.VehicleID,
		RelatedBidID:     refs.BidID,
		CreatedAt:        l.now(),
	}

	if err := db.UpdateWalletBalance(ctx, user.ID, after); err != nil {
		return models.WalletTransaction{}, fmt.Errorf("wallet: failed to update balance: %w", err)
	}
	if err := db.CreateTransaction(ctx, entry); err != nil {
		return models.WalletTransaction{}, fmt.Errorf("wallet: failed to record transaction: %w", err)
	}

	l.metrics.WalletOperation(string(txType))
	return entry, nil
}

// OpeningEntry returns the deposit entry recording a new user's initial grant.
// The user must already carry the grant as its balance.
func (l *Ledger) OpeningEntry(user models.User) models.WalletTransaction {
	return models.WalletTransaction{
		ID:            utils.GenerateID(),
		UserID:        user.ID,
		Type:          models.TransactionDeposit,
		Amount:        user.WalletBalance,
		BalanceBefore: 0,
		BalanceAfter:  user.WalletBalance,
		Description:   fmt.Sprintf("Welcome bonus of %s", pricing.FormatAmount(user.WalletBalance)),
		CreatedAt:     l.now(),
	}
}

// Credit adds amount (> 0) to the user's balance
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64, txType models.TransactionType,
	description string, refs Refs) (models.WalletTransaction, error) {
	if amount <= 0 {
		return models.WalletTransaction{}, fmt.Errorf("wallet: %w - credit must be positive", biddingerrors.ErrInvalidAmount)
	}
	return l.apply(ctx, userID, amount, txType, description, refs)
}

// Debit removes amount (> 0) from the user's balance. It fails with ErrInsufficientFunds
// and leaves the balance unchanged when amount exceeds the balance.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int64, txType models.TransactionType,
	description string, refs Refs) (models.WalletTransaction, error) {
	if amount <= 0 {
		return models.WalletTransaction{}, fmt.Errorf("wallet: %w - debit must be positive", biddingerrors.ErrInvalidAmount)
	}
	return l.apply(ctx, userID, -amount, txType, description, refs)
}

func (l *Ledger) apply(ctx context.Context, userID string, amount int64, txType models.TransactionType,
	description string, refs Refs) (models.WalletTransaction, error) {
	if userID == "" {
		return models.WalletTransaction{}, fmt.Errorf("wallet: %w - empty user ID", biddingerrors.ErrInvalidInput)
	}

	unlock := l.locks.Lock(locker.UserKey(userID))
	defer unlock()

	var entry models.WalletTransaction
	err := l.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		user, err := db.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		entry, err = l.ApplyInTx(ctx, db, user, amount, txType, description, refs)
		return err
	})
	if err != nil {
		return models.WalletTransaction{}, err
	}
	return entry, nil
}

// TopUp credits a deposit between TopUpMin and TopUpMax
func (l *Ledger) TopUp(ctx context.Context, userID string, amount int64) (models.WalletTransaction, error) {
	if amount < pricing.TopUpMin || amount > pricing.TopUpMax {
		return models.WalletTransaction{}, biddingerrors.WithReason(biddingerrors.ErrInvalidAmount,
			"top-up amount must be between %s and %s", pricing.FormatAmount(pricing.TopUpMin), pricing.FormatAmount(pricing.TopUpMax))
	}

	entry, err := l.Credit(ctx, userID, amount, models.TransactionDeposit,
		fmt.Sprintf("Wallet top-up of %s", pricing.FormatAmount(amount)), Refs{})
	if err != nil {
		return models.WalletTransaction{}, fmt.Errorf("wallet: top-up failed for user %s: %w", userID, err)
	}

	utils.Info("wallet top-up recorded", map[string]any{"user_id": userID, "amount": amount, "balance": entry.BalanceAfter})
	return entry, nil
}

// Withdraw debits amount from the user's balance
func (l *Ledger) Withdraw(ctx context.Context, userID string, amount int64) (models.WalletTransaction, error) {
	if amount <= 0 {
		return models.WalletTransaction{}, biddingerrors.WithReason(biddingerrors.ErrInvalidAmount,
			"withdrawal amount must be greater than zero")
	}

	entry, err := l.Debit(ctx, userID, amount, models.TransactionWithdrawal,
		fmt.Sprintf("Withdrawal of %s", pricing.FormatAmount(amount)), Refs{})
	if err != nil {
		return models.WalletTransaction{}, fmt.Errorf("wallet: withdrawal failed for user %s: %w", userID, err)
	}

	utils.Info("wallet withdrawal recorded", map[string]any{"user_id": userID, "amount": amount, "balance": entry.BalanceAfter})
	return entry, nil
}

// Balance returns the user's cached wallet balance
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("wallet: failed to get balance for user %s: %w", userID, err)
	}
	return user.WalletBalance, nil
}

// TransactionFilter selects a page of a user's ledger
type TransactionFilter struct {
	Type  models.TransactionType
	Page  int
	Limit int
}

// TransactionPage is one page of ledger entries, newest first
type TransactionPage struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	Pagination   models.Pagination          `json:"pagination"`
}

// Transactions lists the user's ledger entries, newest first
func (l *Ledger) Transactions(ctx context.Context, userID string, filter TransactionFilter) (TransactionPage, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return TransactionPage{}, biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "unknown transaction type %q", filter.Type)
	}

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	p := models.NewPagination(page, limit, 0)

	entries, total, err := l.store.ListTransactions(ctx, repository.TransactionQuery{
		UserID: userID,
		Type:   filter.Type,
		Offset: p.Offset(),
		Limit:  limit,
	})
	if err != nil {
		return TransactionPage{}, fmt.Errorf("wallet: failed to list transactions for user %s: %w", userID, err)
	}

	return TransactionPage{Transactions: entries, Pagination: models.NewPagination(page, limit, total)}, nil
}

// Summary aggregates a user's ledger. Bids and withdrawals are reported as positive totals.
type Summary struct {
	CurrentBalance   int64 `json:"currentBalance"`
	TotalDeposits    int64 `json:"totalDeposits"`
	TotalBids        int64 `json:"totalBids"`
	TotalWithdrawals int64 `json:"totalWithdrawals"`
	TotalRefunds     int64 `json:"totalRefunds"`
	TransactionCount int   `json:"transactionCount"`
}

// Summary folds the user's ledger into totals per entry type
func (l *Ledger) Summary(ctx context.Context, userID string) (Summary, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("wallet: failed to load user %s: %w", userID, err)
	}
	entries, err := l.store.LedgerFor(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("wallet: failed to load ledger for user %s: %w", userID, err)
	}

	s := Summary{CurrentBalance: user.WalletBalance, TransactionCount: len(entries)}
	for _, e := range entries {
		switch e.Type {
		case models.TransactionDeposit:
			s.TotalDeposits += e.Amount
		case models.TransactionBid:
			s.TotalBids += abs(e.Amount)
		case models.TransactionWithdrawal:
			s.TotalWithdrawals += abs(e.Amount)
		case models.TransactionRefund:
			s.TotalRefunds += e.Amount
		}
	}
	return s, nil
}

// Reconcile replays the user's ledger from zero and checks it against the cached balance
func (l *Ledger) Reconcile(ctx context.Context, userID string) error {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("wallet: failed to load user %s: %w", userID, err)
	}
	entries, err := l.store.LedgerFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("wallet: failed to load ledger for user %s: %w", userID, err)
	}

	var balance int64
	for i, e := range entries {
		if e.BalanceBefore != balance {
			return fmt.Errorf("wallet: %w - entry %d (%s) starts at %d, expected %d", biddingerrors.ErrLedgerMismatch, i, e.ID, e.BalanceBefore, balance)
		}
		if e.BalanceAfter != e.BalanceBefore+e.Amount {
			return fmt.Errorf("wallet: %w - entry %d (%s) does not add up", biddingerrors.ErrLedgerMismatch, i, e.ID)
		}
		if e.BalanceAfter < 0 {
			return fmt.Errorf("wallet: %w - entry %d (%s) leaves a negative balance", biddingerrors.ErrLedgerMismatch, i, e.ID)
		}
		balance = e.BalanceAfter
	}

	if balance != user.WalletBalance {
		return fmt.Errorf("wallet: %w - ledger sums to %d, balance is %d", biddingerrors.ErrLedgerMismatch, balance, user.WalletBalance)
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
