package service

import (
	"context"
	"testing"
	"time"

	"firestrike/internal/auth"
	"firestrike/internal/events"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	tx       *fakeTransactor
	profiles *MockProfileRepository
	wallets  *MockWalletRepository
	sessions *MockSessionStore
	bus      *events.Bus
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	cfg := testConfig()
	f := &authFixture{
		tx:       &fakeTransactor{},
		profiles: new(MockProfileRepository),
		wallets:  new(MockWalletRepository),
		sessions: new(MockSessionStore),
		bus:      events.NewBus(),
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	f.svc = NewAuthService(f.tx, f.profiles, f.wallets, f.sessions, tokens, f.bus, cfg)
	return f
}

func (f *authFixture) expectCreate(id int64) {
	f.profiles.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(2).(*model.Profile).ID = id }).
		Return(nil)
	f.wallets.On("GetOrCreate", mock.Anything, mock.Anything, id).Return(&model.Wallet{UserID: id}, nil)
}

func TestSignUp(t *testing.T) {
	f := newAuthFixture()
	f.expectCreate(7)

	sess, p, err := f.svc.SignUp(context.Background(), SignUpRequest{
		Email: "  Player@Example.com ", Password: "secret1", Name: "Player One",
	})
	require.NoError(t, err)

	assert.Equal(t, "player@example.com", p.Email)
	assert.False(t, p.IsAdmin)
	assert.Equal(t, model.AuthProviderPassword, p.AuthProvider)
	assert.True(t, auth.CheckPasswordHash("secret1", p.PasswordHash))
	assert.Equal(t, int64(7), sess.UserID)
	assert.NotEmpty(t, sess.Token)
	f.wallets.AssertExpectations(t)
}

func TestSignUp_AdminEmail(t *testing.T) {
	f := newAuthFixture()
	f.expectCreate(1)

	sess, p, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: "boss@example.com", Password: "secret1", Name: "Boss"})
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.True(t, sess.IsAdmin)
}

func TestSignUp_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr error
	}{
		{"bad email", SignUpRequest{Email: "not-an-email", Password: "secret1", Name: "a"}, ErrInvalidInput},
		{"short password", SignUpRequest{Email: "a@b.com", Password: "12345", Name: "a"}, ErrInvalidInput},
		{"missing name", SignUpRequest{Email: "a@b.com", Password: "secret1", Name: "  "}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			_, _, err := f.svc.SignUp(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.tx.calls)
		})
	}

	t.Run("email taken", func(t *testing.T) {
		f := newAuthFixture()
		f.profiles.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		_, _, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.com", Password: "secret1", Name: "a"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		f.wallets.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSignIn(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	f := newAuthFixture()
	f.profiles.On("GetByEmail", mock.Anything, "player@example.com").
		Return(&model.Profile{ID: 7, Email: "player@example.com", PasswordHash: hash}, nil)
	f.profiles.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrProfileNotFound)

	sess, _, err := f.svc.SignIn(context.Background(), "Player@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)

	_, _, err = f.svc.SignIn(context.Background(), "player@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.SignIn(context.Background(), "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInWithOAuth(t *testing.T) {
	t.Run("creates new user", func(t *testing.T) {
		f := newAuthFixture()
		f.profiles.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrProfileNotFound)
		f.expectCreate(9)

		_, p, err := f.svc.SignInWithOAuth(context.Background(), OAuthIdentity{Provider: "google", Subject: "g-1", Email: "new@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "new", p.Name)
		assert.Equal(t, "google", p.AuthProvider)
	})

	t.Run("links password account", func(t *testing.T) {
		f := newAuthFixture()
		f.profiles.On("GetByEmail", mock.Anything, "old@example.com").
			Return(&model.Profile{ID: 4, Email: "old@example.com", AuthProvider: model.AuthProviderPassword}, nil)
		f.profiles.On("UpdateFields", mock.Anything, int64(4), map[string]interface{}{
			"auth_provider":    "google",
			"provider_subject": "g-2",
		}).Return(nil)

		_, p, err := f.svc.SignInWithOAuth(context.Background(), OAuthIdentity{Provider: "google", Subject: "g-2", Email: "old@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "g-2", p.ProviderSubject)
		f.profiles.AssertExpectations(t)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		f := newAuthFixture()
		f.profiles.On("GetByEmail", mock.Anything, "old@example.com").
			Return(&model.Profile{ID: 4, Email: "old@example.com", AuthProvider: "google", ProviderSubject: "g-2"}, nil)

		_, _, err := f.svc.SignInWithOAuth(context.Background(), OAuthIdentity{Provider: "google", Subject: "g-other", Email: "old@example.com"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture()
	f.expectCreate(7)
	sess, _, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: "p@example.com", Password: "secret1", Name: "p"})
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.Authenticate(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("admin flag comes from the database", func(t *testing.T) {
		f.sessions.On("IsRevoked", mock.Anything, sess.ID).Return(false, nil).Once()
		f.profiles.On("GetByID", mock.Anything, int64(7)).
			Return(&model.Profile{ID: 7, Email: "p@example.com", IsAdmin: true}, nil).Once()

		got, err := f.svc.Authenticate(context.Background(), sess.Token)
		require.NoError(t, err)
		assert.True(t, got.IsAdmin)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("revoked session", func(t *testing.T) {
		f.sessions.On("IsRevoked", mock.Anything, sess.ID).Return(true, nil).Once()

		_, err := f.svc.Authenticate(context.Background(), sess.Token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestSignOut_RevokesForRemainingLifetime(t *testing.T) {
	f := newAuthFixture()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	sess := &auth.Session{ID: "sid-1", UserID: 7, ExpiresAt: now.Add(30 * time.Minute)}
	f.sessions.On("Revoke", mock.Anything, "sid-1", 30*time.Minute).Return(nil)

	require.NoError(t, f.svc.SignOut(context.Background(), sess))
	f.sessions.AssertExpectations(t)

	assert.ErrorIs(t, f.svc.SignOut(context.Background(), nil), ErrUnauthenticated)
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture()
	old := &auth.Session{ID: "sid-old", UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}
	f.profiles.On("GetByID", mock.Anything, int64(7)).Return(&model.Profile{ID: 7, Email: "p@example.com"}, nil)
	f.sessions.On("Revoke", mock.Anything, "sid-old", mock.Anything).Return(nil)

	got, err := f.svc.Refresh(context.Background(), old)
	require.NoError(t, err)
	assert.NotEqual(t, "sid-old", got.ID)
	assert.Equal(t, int64(7), got.UserID)
}

func TestOnAuthStateChange(t *testing.T) {
	f := newAuthFixture()
	f.expectCreate(7)

	got := make(chan events.AuthStateChangedEvent, 1)
	unsubscribe := f.svc.OnAuthStateChange(func(ctx context.Context, ev events.AuthStateChangedEvent) {
		got <- ev
	})
	defer unsubscribe()

	_, _, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: "p@example.com", Password: "secret1", Name: "p"})
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, events.AuthSignedIn, ev.Event)
		assert.Equal(t, int64(7), ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("auth state change not delivered")
	}
}
