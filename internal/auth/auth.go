package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/locker"
	"autobid/internal/models"
	"autobid/internal/pricing"
	"autobid/internal/repository"
	"autobid/internal/wallet"
	"autobid/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// compared against when the email is unknown so both paths cost a bcrypt comparison
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Service handles accounts, sessions and profile state
type Service struct {
	store      repository.Store
	ledger     *wallet.Ledger
	locks      *locker.Keyed
	tokens     *TokenManager
	validate   *validator.Validate
	bcryptCost int
	now        func() time.Time
}

type Option func(*Service)

// WithBcryptCost overrides the hashing cost, mostly for tests
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(store repository.Store, ledger *wallet.Ledger, locks *locker.Keyed, tokens *TokenManager, opts ...Option) *Service {
	s := &Service{
		store:      store,
		ledger:     ledger,
		locks:      locks,
		tokens:     tokens,
		validate:   validator.New(),
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignupInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6,max=72"`
	DisplayName string `validate:"required,max=100"`
}

// Session is returned by signup and login
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup creates the user and records the initial wallet grant in the same transaction
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validate.Struct(in); err != nil {
		return Session{}, biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "please provide a valid email, a password of at least 6 characters and a display name")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("auth: hash password: %w", err)
	}

	now := s.now()
	user := models.User{
		ID:            utils.GenerateID(),
		Email:         in.Email,
		PasswordHash:  string(hash),
		DisplayName:   in.DisplayName,
		WalletBalance: pricing.InitialGrant,
		Favorites:     []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		if err := db.CreateUser(ctx, user); err != nil {
			return err
		}
		return db.CreateTransaction(ctx, s.ledger.OpeningEntry(user))
	})
	if err != nil {
		if errors.Is(err, biddingerrors.ErrEmailTaken) {
			return Session{}, biddingerrors.WithReason(biddingerrors.ErrEmailTaken, "user with this email already exists")
		}
		return Session{}, fmt.Errorf("auth: failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}

	utils.Info("user signed up", map[string]any{"user_id": user.ID})
	return Session{Token: token, User: user}, nil
}

// Login checks the credentials and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "please provide email and password")
	}

	invalid := biddingerrors.WithReason(biddingerrors.ErrUnauthorized, "invalid email or password")

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, biddingerrors.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return Session{}, invalid
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		utils.Warn("login failed", map[string]any{"user_id": user.ID})
		return Session{}, invalid
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Principal is the authenticated caller
type Principal struct {
	UserID string
	Email  string
}

// Authenticate verifies the token and that its user still exists
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	if _, err := s.store.GetUser(ctx, claims.UserID); err != nil {
		if errors.Is(err, biddingerrors.ErrNotFound) {
			return Principal{}, biddingerrors.WithReason(biddingerrors.ErrUnauthorized, "user no longer exists")
		}
		return Principal{}, fmt.Errorf("auth: failed to load user: %w", err)
	}
	return Principal{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: failed to load user %s: %w", userID, err)
	}
	return user, nil
}

// ProfileUpdate changes the display name (when non-empty) and the photo (when set)
type ProfileUpdate struct {
	DisplayName string
	PhotoURL    *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (models.User, error) {
	var user models.User
	err := s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		var err error
		user, err = db.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.DisplayName); name != "" {
			user.DisplayName = name
		}
		if in.PhotoURL != nil {
			user.PhotoURL = *in.PhotoURL
		}
		user.UpdatedAt = s.now()
		return db.UpdateUserProfile(ctx, user)
	})
	if err != nil {
		return models.User{}, fmt.Errorf("auth: failed to update profile for %s: %w", userID, err)
	}
	return user, nil
}

// ToggleFavorite adds the vehicle to the user's favorites, or removes it when already present.
// It reports whether the vehicle is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, userID, vehicleID string) ([]string, bool, error) {
	if vehicleID == "" {
		return nil, false, fmt.Errorf("auth: %w - empty vehicle ID", biddingerrors.ErrInvalidInput)
	}

	unlock := s.locks.Lock(locker.UserKey(userID))
	defer unlock()

	var (
		favorites []string
		added     bool
	)
	err := s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		if _, err := db.GetVehicle(ctx, vehicleID); err != nil {
			return err
		}
		user, err := db.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		if i := slices.Index(user.Favorites, vehicleID); i >= 0 {
			user.Favorites = slices.Delete(slices.Clone(user.Favorites), i, i+1)
		} else {
			user.Favorites = append(slices.Clone(user.Favorites), vehicleID)
			added = true
		}
		user.UpdatedAt = s.now()
		favorites = user.Favorites
		return db.UpdateUserProfile(ctx, user)
	})
	if err != nil {
		return nil, false, fmt.Errorf("auth: failed to toggle favorite %s for %s: %w", vehicleID, userID, err)
	}
	return favorites, added, nil
}
