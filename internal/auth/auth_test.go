package auth

import (
	"context"
	"testing"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/locker"
	"autobid/internal/models"
	"autobid/internal/pricing"
	"autobid/internal/repository"
	"autobid/internal/wallet"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryRepo, *wallet.Ledger) {
	t.Helper()
	store := repository.NewMemoryRepo()
	locks := locker.New()
	ledger := wallet.NewLedger(store, locks, nil)
	svc := NewService(store, ledger, locks, NewTokenManager("test-secret", time.Hour), WithBcryptCost(bcrypt.MinCost))
	return svc, store, ledger
}

func TestSignup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, ledger := newTestService(t)

	session, err := svc.Signup(ctx, SignupInput{Email: " Ana@Example.com ", Password: "secret1", DisplayName: "Ana"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "ana@example.com", session.User.Email)
	require.Equal(t, pricing.InitialGrant, session.User.WalletBalance)
	require.NotEqual(t, "secret1", session.User.PasswordHash)

	page, err := ledger.Transactions(ctx, session.User.ID, wallet.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	require.Equal(t, models.TransactionDeposit, page.Transactions[0].Type)
	require.Equal(t, "Welcome bonus of Rs. 5,000", page.Transactions[0].Description)
	require.NoError(t, ledger.Reconcile(ctx, session.User.ID))

	_, err = svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "another", DisplayName: "Other"})
	require.ErrorIs(t, err, biddingerrors.ErrEmailTaken)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"missing_email", SignupInput{Password: "secret1", DisplayName: "A"}},
		{"bad_email", SignupInput{Email: "not-an-email", Password: "secret1", DisplayName: "A"}},
		{"short_password", SignupInput{Email: "a@example.com", Password: "123", DisplayName: "A"}},
		{"blank_name", SignupInput{Email: "a@example.com", Password: "secret1", DisplayName: "   "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Signup(context.Background(), tc.in)
			require.ErrorIs(t, err, biddingerrors.ErrInvalidInput)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	created, err := svc.Signup(ctx, SignupInput{Email: "bo@example.com", Password: "hunter22", DisplayName: "Bo"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "BO@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, created.User.ID, session.User.ID)

	principal, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, principal.UserID)
	require.Equal(t, "bo@example.com", principal.Email)

	_, err = svc.Login(ctx, "bo@example.com", "wrong")
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)
	reason, _ := biddingerrors.Reason(err)
	require.Equal(t, "invalid email or password", reason)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)

	_, err = svc.Login(ctx, "", "")
	require.ErrorIs(t, err, biddingerrors.ErrInvalidInput)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	token, err := svc.tokens.Issue("ghost", "ghost@example.com")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)
	reason, _ := biddingerrors.Reason(err)
	require.Equal(t, "user no longer exists", reason)
}

func TestTokenManager(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewTokenManager("s3cret", time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "u1@example.com", claims.Email)

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Verify(token)
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)
	reason, _ := biddingerrors.Reason(err)
	require.Equal(t, "token expired", reason)

	other := NewTokenManager("different", time.Hour)
	other.now = func() time.Time { return issued }
	_, err = other.Verify(token)
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	require.ErrorIs(t, err, biddingerrors.ErrUnauthorized)
}

func TestProfileAndFavorites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	session, err := svc.Signup(ctx, SignupInput{Email: "cy@example.com", Password: "secret1", DisplayName: "Cy"})
	require.NoError(t, err)
	userID := session.User.ID

	photo := "https://img.example/cy.png"
	user, err := svc.UpdateProfile(ctx, userID, ProfileUpdate{DisplayName: "  ", PhotoURL: &photo})
	require.NoError(t, err)
	require.Equal(t, "Cy", user.DisplayName)
	require.Equal(t, photo, user.PhotoURL)
	require.Equal(t, pricing.InitialGrant, user.WalletBalance)

	user, err = svc.UpdateProfile(ctx, userID, ProfileUpdate{DisplayName: "Cyrus"})
	require.NoError(t, err)
	require.Equal(t, "Cyrus", user.DisplayName)
	require.Equal(t, photo, user.PhotoURL)

	require.NoError(t, store.CreateVehicle(ctx, models.Vehicle{ID: "v1", OwnerID: "someone", IsActive: true}))

	favorites, added, err := svc.ToggleFavorite(ctx, userID, "v1")
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, []string{"v1"}, favorites)

	favorites, added, err = svc.ToggleFavorite(ctx, userID, "v1")
	require.NoError(t, err)
	require.False(t, added)
	require.Empty(t, favorites)

	_, _, err = svc.ToggleFavorite(ctx, userID, "missing")
	require.ErrorIs(t, err, biddingerrors.ErrVehicleNotFound)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Cyrus", me.DisplayName)
	require.Empty(t, me.Favorites)

	_, err = svc.Me(ctx, "ghost")
	require.ErrorIs(t, err, biddingerrors.ErrUserNotFound)
}
