package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"autobid/internal/biddingerrors"
	"autobid/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of Store.
// Writers are serialized; a transaction works on a private copy of the state that replaces
// the shared one only when it commits.
type MemoryRepo struct {
	writeMu sync.Mutex   // held by every writer, for the whole of a transaction
	mu      sync.RWMutex // guards st
	st      *memState
}

type memState struct {
	users    map[string]models.User // key: userID
	emails   map[string]string      // key: lowercased email -> userID
	vehicles map[string]models.Vehicle
	order    []string // vehicle ids in creation order
	bids     []models.Bid
	ledger   []models.WalletTransaction
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{st: &memState{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		vehicles: make(map[string]models.Vehicle),
	}}
}

func (s *memState) clone() *memState {
	return &memState{
		users:    maps.Clone(s.users),
		emails:   maps.Clone(s.emails),
		vehicles: maps.Clone(s.vehicles),
		order:    slices.Clip(s.order),
		bids:     slices.Clip(s.bids),
		ledger:   slices.Clip(s.ledger),
	}
}

// WithinTx runs fn against a staged copy of the repository and commits it when fn returns nil
func (r *MemoryRepo) WithinTx(ctx context.Context, fn func(db AuctionDB) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	staged := r.st.clone()
	r.mu.RUnlock()

	if err := fn(&memTx{st: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.mu.Lock()
	r.st = staged
	r.mu.Unlock()
	return nil
}

// write applies fn directly to the shared state
func (r *MemoryRepo) write(fn func(tx *memTx) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&memTx{st: r.st})
}

func (r *MemoryRepo) CreateUser(ctx context.Context, user models.User) error {
	return r.write(func(tx *memTx) error { return tx.CreateUser(ctx, user) })
}

func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetUser(ctx, userID)
}

func (r *MemoryRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetUserByEmail(ctx, email)
}

func (r *MemoryRepo) UpdateUserProfile(ctx context.Context, user models.User) error {
	return r.write(func(tx *memTx) error { return tx.UpdateUserProfile(ctx, user) })
}

func (r *MemoryRepo) UpdateWalletBalance(ctx context.Context, userID string, balance int64) error {
	return r.write(func(tx *memTx) error { return tx.UpdateWalletBalance(ctx, userID, balance) })
}

func (r *MemoryRepo) CreateVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return r.write(func(tx *memTx) error { return tx.CreateVehicle(ctx, vehicle) })
}

func (r *MemoryRepo) GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetVehicle(ctx, vehicleID)
}

func (r *MemoryRepo) ListVehicles(ctx context.Context, query VehicleQuery) ([]models.Vehicle, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).ListVehicles(ctx, query)
}

func (r *MemoryRepo) UpdateVehicleDetails(ctx context.Context, vehicle models.Vehicle) error {
	return r.write(func(tx *memTx) error { return tx.UpdateVehicleDetails(ctx, vehicle) })
}

func (r *MemoryRepo) UpdateVehiclePrice(ctx context.Context, vehicleID string, expectedVersion, price int64) error {
	return r.write(func(tx *memTx) error { return tx.UpdateVehiclePrice(ctx, vehicleID, expectedVersion, price) })
}

func (r *MemoryRepo) CreateBid(ctx context.Context, bid models.Bid) error {
	return r.write(func(tx *memTx) error { return tx.CreateBid(ctx, bid) })
}

func (r *MemoryRepo) GetBidsByVehicle(ctx context.Context, vehicleID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetBidsByVehicle(ctx, vehicleID)
}

func (r *MemoryRepo) GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetBidsByUser(ctx, userID)
}

func (r *MemoryRepo) GetUserBidsOnVehicle(ctx context.Context, vehicleID, userID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).GetUserBidsOnVehicle(ctx, vehicleID, userID)
}

func (r *MemoryRepo) ListBids(ctx context.Context, offset, limit int) ([]models.Bid, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).ListBids(ctx, offset, limit)
}

func (r *MemoryRepo) CreateTransaction(ctx context.Context, txn models.WalletTransaction) error {
	return r.write(func(tx *memTx) error { return tx.CreateTransaction(ctx, txn) })
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, query TransactionQuery) ([]models.WalletTransaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).ListTransactions(ctx, query)
}

func (r *MemoryRepo) LedgerFor(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (&memTx{st: r.st}).LedgerFor(ctx, userID)
}

// memTx implements AuctionDB over a single state without locking.
// It is used both for staged transactions and, under MemoryRepo's locks, for direct access.
type memTx struct {
	st *memState
}

func (t *memTx) CreateUser(_ context.Context, user models.User) error {
	email := strings.ToLower(user.Email)
	if _, taken := t.st.emails[email]; taken {
		return fmt.Errorf("create user %s: %w", email, biddingerrors.ErrEmailTaken)
	}
	if _, exists := t.st.users[user.ID]; exists {
		return fmt.Errorf("create user %s: %w - duplicate id", user.ID, biddingerrors.ErrInvalidInput)
	}
	user.Email = email
	user.Favorites = slices.Clone(user.Favorites)
	t.st.users[user.ID] = user
	t.st.emails[email] = user.ID
	return nil
}

func (t *memTx) GetUser(_ context.Context, userID string) (models.User, error) {
	user, ok := t.st.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	user.Favorites = slices.Clone(user.Favorites)
	return user, nil
}

func (t *memTx) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	id, ok := t.st.emails[strings.ToLower(email)]
	if !ok {
		return models.User{}, fmt.Errorf("get user by email: %w", biddingerrors.ErrUserNotFound)
	}
	return t.GetUser(ctx, id)
}

// UpdateUserProfile stores display name, photo and favorites. The wallet balance is untouched.
func (t *memTx) UpdateUserProfile(_ context.Context, user models.User) error {
	current, ok := t.st.users[user.ID]
	if !ok {
		return fmt.Errorf("update user %s: %w", user.ID, biddingerrors.ErrUserNotFound)
	}
	current.DisplayName = user.DisplayName
	current.PhotoURL = user.PhotoURL
	current.Favorites = slices.Clone(user.Favorites)
	current.UpdatedAt = user.UpdatedAt
	t.st.users[user.ID] = current
	return nil
}

func (t *memTx) UpdateWalletBalance(_ context.Context, userID string, balance int64) error {
	user, ok := t.st.users[userID]
	if !ok {
		return fmt.Errorf("update balance for user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	user.WalletBalance = balance
	t.st.users[userID] = user
	return nil
}

func (t *memTx) CreateVehicle(_ context.Context, vehicle models.Vehicle) error {
	if vehicle.ID == "" {
		return fmt.Errorf("create vehicle: %w - empty id", biddingerrors.ErrInvalidInput)
	}
	if _, exists := t.st.vehicles[vehicle.ID]; exists {
		return fmt.Errorf("create vehicle %s: %w - duplicate id", vehicle.ID, biddingerrors.ErrInvalidInput)
	}
	t.st.vehicles[vehicle.ID] = vehicle
	t.st.order = append(t.st.order, vehicle.ID)
	return nil
}

func (t *memTx) GetVehicle(_ context.Context, vehicleID string) (models.Vehicle, error) {
	vehicle, ok := t.st.vehicles[vehicleID]
	if !ok {
		return models.Vehicle{}, fmt.Errorf("get vehicle %s: %w", vehicleID, biddingerrors.ErrVehicleNotFound)
	}
	return vehicle, nil
}

func (t *memTx) ListVehicles(_ context.Context, query VehicleQuery) ([]models.Vehicle, int64, error) {
	search := strings.ToLower(strings.TrimSpace(query.Search))

	matched := make([]models.Vehicle, 0, len(t.st.order))
	for i := len(t.st.order) - 1; i >= 0; i-- {
		v := t.st.vehicles[t.st.order[i]]
		if query.Category != "" && v.Category != query.Category {
			continue
		}
		if query.IsActive != nil && v.IsActive != *query.IsActive {
			continue
		}
		if query.OwnerID != "" && v.OwnerID != query.OwnerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Title), search) &&
			!strings.Contains(strings.ToLower(v.Description), search) {
			continue
		}
		matched = append(matched, v)
	}

	switch query.Sort {
	case SortOldest:
		slices.Reverse(matched)
	case SortPriceAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CurrentPrice < matched[j].CurrentPrice })
	case SortPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CurrentPrice > matched[j].CurrentPrice })
	case SortEndingSoon:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].BiddingEndTime.Before(matched[j].BiddingEndTime) })
	default:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	return page(matched, query.Offset, query.Limit), int64(len(matched)), nil
}

// UpdateVehicleDetails stores descriptive fields and the active flag.
// Owner, prices, window and direction are fixed at creation and are not written here.
func (t *memTx) UpdateVehicleDetails(_ context.Context, vehicle models.Vehicle) error {
	current, ok := t.st.vehicles[vehicle.ID]
	if !ok {
		return fmt.Errorf("update vehicle %s: %w", vehicle.ID, biddingerrors.ErrVehicleNotFound)
	}
	current.Title = vehicle.Title
	current.Category = vehicle.Category
	current.Image = vehicle.Image
	current.Description = vehicle.Description
	current.NearestCity = vehicle.NearestCity
	current.YearOfManufacture = vehicle.YearOfManufacture
	current.Mileage = vehicle.Mileage
	current.FuelType = vehicle.FuelType
	current.TransmissionType = vehicle.TransmissionType
	current.Negotiable = vehicle.Negotiable
	current.IsActive = vehicle.IsActive
	current.UpdatedAt = vehicle.UpdatedAt
	t.st.vehicles[vehicle.ID] = current
	return nil
}

func (t *memTx) UpdateVehiclePrice(_ context.Context, vehicleID string, expectedVersion, price int64) error {
	vehicle, ok := t.st.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("update price for vehicle %s: %w", vehicleID, biddingerrors.ErrVehicleNotFound)
	}
	if vehicle.Version != expectedVersion {
		return fmt.Errorf("update price for vehicle %s: %w", vehicleID, biddingerrors.ErrStalePrice)
	}
	vehicle.CurrentPrice = price
	vehicle.Version++
	t.st.vehicles[vehicleID] = vehicle
	return nil
}

func (t *memTx) CreateBid(_ context.Context, bid models.Bid) error {
	if _, ok := t.st.vehicles[bid.VehicleID]; !ok {
		return fmt.Errorf("record bid for vehicle %s: %w", bid.VehicleID, biddingerrors.ErrVehicleNotFound)
	}
	t.st.bids = append(t.st.bids, bid)
	return nil
}

func (t *memTx) GetBidsByVehicle(_ context.Context, vehicleID string) ([]models.Bid, error) {
	return newestBids(t.st.bids, func(b models.Bid) bool { return b.VehicleID == vehicleID }), nil
}

func (t *memTx) GetBidsByUser(_ context.Context, userID string) ([]models.Bid, error) {
	return newestBids(t.st.bids, func(b models.Bid) bool { return b.UserID == userID }), nil
}

func (t *memTx) GetUserBidsOnVehicle(_ context.Context, vehicleID, userID string) ([]models.Bid, error) {
	return newestBids(t.st.bids, func(b models.Bid) bool {
		return b.VehicleID == vehicleID && b.UserID == userID
	}), nil
}

func (t *memTx) ListBids(_ context.Context, offset, limit int) ([]models.Bid, int64, error) {
	all := newestBids(t.st.bids, func(models.Bid) bool { return true })
	return page(all, offset, limit), int64(len(all)), nil
}

func (t *memTx) CreateTransaction(_ context.Context, txn models.WalletTransaction) error {
	if _, ok := t.st.users[txn.UserID]; !ok {
		return fmt.Errorf("record transaction for user %s: %w", txn.UserID, biddingerrors.ErrUserNotFound)
	}
	t.st.ledger = append(t.st.ledger, txn)
	return nil
}

func (t *memTx) ListTransactions(_ context.Context, query TransactionQuery) ([]models.WalletTransaction, int64, error) {
	matched := make([]models.WalletTransaction, 0)
	for i := len(t.st.ledger) - 1; i >= 0; i-- {
		txn := t.st.ledger[i]
		if txn.UserID != query.UserID {
			continue
		}
		if query.Type != "" && txn.Type != query.Type {
			continue
		}
		matched = append(matched, txn)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, query.Offset, query.Limit), int64(len(matched)), nil
}

// LedgerFor returns a user's ledger in the order it was written
func (t *memTx) LedgerFor(_ context.Context, userID string) ([]models.WalletTransaction, error) {
	entries := make([]models.WalletTransaction, 0)
	for _, txn := range t.st.ledger {
		if txn.UserID == userID {
			entries = append(entries, txn)
		}
	}
	return entries, nil
}

// newestBids filters bids and orders them newest first; bids with equal timestamps keep
// reverse insertion order so the last written bid is always first.
func newestBids(bids []models.Bid, keep func(models.Bid) bool) []models.Bid {
	out := make([]models.Bid, 0)
	for i := len(bids) - 1; i >= 0; i-- {
		if keep(bids[i]) {
			out = append(out, bids[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
