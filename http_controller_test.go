package authgate_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(provider authgate.Provider, repo authgate.RepositoryManager) *authgate.AuthController {
	return authgate.NewAuthController(
		authgate.WithControllerProvider(provider),
		authgate.WithControllerRepo(repo),
		authgate.WithControllerConfig(testConfig()),
		authgate.WithControllerLogger(testLogger{}),
	)
}

func TestLoginShowPassesSanitizedReturnPath(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	ctx := &MockContext{}
	ctx.On("Query", "redirectTo", "").Return("//evil.example.com")
	ctx.On("Render", "login", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		viewCtx, ok := args.Get(1).(router.ViewContext)
		require.True(t, ok)
		assert.Equal(t, "/dashboard", viewCtx["return_to"])
	}).Once()

	err := ctrl.LoginShow(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestLoginPostSetsCookiesAndRedirects(t *testing.T) {
	provider := &MockProvider{}
	repo := &MockRepositoryManager{}
	subjects := &MockSubjects{}
	ctrl := newTestController(provider, repo)

	session := &authgate.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Subject:      &authgate.Subject{ID: "sub-1", Email: "pepe.rone@example.com"},
	}

	provider.On("SignInWithPassword", mock.Anything, "pepe.rone@example.com", "Abc12345").
		Return(session, nil).Once()
	expectMirrorSync(repo, subjects, "sub-1")

	var written []*router.Cookie

	ctx := &MockContext{}
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*authgate.LoginRequest)
		payload.Email = "pepe.rone@example.com"
		payload.Password = "Abc12345"
		payload.ReturnTo = "/reports/2026"
	}).Return(nil).Once()
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		written = append(written, args.Get(0).(*router.Cookie))
	}).Return()
	ctx.On("Redirect", "/reports/2026", []int{303}).Return(nil).Once()

	err := ctrl.LoginPost(ctx)
	require.NoError(t, err)

	require.Len(t, written, 2)
	ctx.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestLoginPostRejectsUnsafeReturnPath(t *testing.T) {
	provider := &MockProvider{}
	repo := &MockRepositoryManager{}
	subjects := &MockSubjects{}
	ctrl := newTestController(provider, repo)

	session := &authgate.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Subject:      &authgate.Subject{ID: "sub-1", Email: "pepe.rone@example.com"},
	}

	provider.On("SignInWithPassword", mock.Anything, "pepe.rone@example.com", "Abc12345").
		Return(session, nil).Once()
	expectMirrorSync(repo, subjects, "sub-1")

	ctx := &MockContext{}
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*authgate.LoginRequest)
		payload.Email = "pepe.rone@example.com"
		payload.Password = "Abc12345"
		payload.ReturnTo = "https://evil.example.com/phish"
	}).Return(nil).Once()
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/dashboard", []int{303}).Return(nil).Once()

	err := ctrl.LoginPost(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestLoginPostInvalidCredentialsRendersError(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	provider.On("SignInWithPassword", mock.Anything, "pepe.rone@example.com", "wrong").
		Return(nil, authgate.ErrInvalidCredentials).Once()

	ctx := &MockContext{}
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*authgate.LoginRequest)
		payload.Email = "pepe.rone@example.com"
		payload.Password = "wrong"
	}).Return(nil).Once()
	ctx.On("Context").Return(context.Background())
	ctx.On("Render", "login", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		viewCtx, ok := args.Get(1).(router.ViewContext)
		require.True(t, ok)
		errs, ok := viewCtx["errors"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "Invalid email or password", errs["authentication"])
	}).Once()

	err := ctrl.LoginPost(ctx)
	require.NoError(t, err)
	ctx.AssertNotCalled(t, "Cookie", mock.Anything)
	ctx.AssertExpectations(t)
}

func TestLogOutClearsCookiesAndRedirects(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	provider.On("SignOut", mock.Anything, "access-1").Return(nil).Once()

	var written []*router.Cookie

	ctx := &MockContext{}
	ctx.On("Cookies", "ag_access_token").Return("access-1")
	ctx.On("Cookies", "ag_refresh_token").Return("refresh-1")
	ctx.On("Locals", "subject").Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		written = append(written, args.Get(0).(*router.Cookie))
	}).Return()
	ctx.On("Redirect", "/", []int{303}).Return(nil).Once()

	err := ctrl.LogOut(ctx)
	require.NoError(t, err)

	require.Len(t, written, 2)
	for _, c := range written {
		assert.Empty(t, c.Value)
	}
	provider.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestLogOutSucceedsWhenProviderFails(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	provider.On("SignOut", mock.Anything, "access-1").
		Return(authgate.ErrProviderUnavailable).Once()

	ctx := &MockContext{}
	ctx.On("Cookies", "ag_access_token").Return("access-1")
	ctx.On("Cookies", "ag_refresh_token").Return("refresh-1")
	ctx.On("Locals", "subject").Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/", []int{303}).Return(nil).Once()

	err := ctrl.LogOut(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestVerifyCallbackRecoveryRedirectsToResetForm(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	ctx := &MockContext{}
	ctx.On("Query", "token", "").Return("recovery-token")
	ctx.On("Query", "type", "signup").Return("recovery")
	ctx.On("Redirect", "/auth/password-reset/recovery-token", []int{303}).Return(nil).Once()

	err := ctrl.VerifyCallback(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
	provider.AssertNotCalled(t, "VerifyToken")
}

func TestPasswordResetFormShowsTokenStage(t *testing.T) {
	provider := &MockProvider{}
	ctrl := newTestController(provider, &MockRepositoryManager{})

	ctx := &MockContext{}
	ctx.On("Param", "token").Return("reset-token")
	ctx.On("Render", "password_reset", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		viewCtx, ok := args.Get(1).(router.ViewContext)
		require.True(t, ok)
		reset, ok := viewCtx["reset"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "change-password", reset["stage"])
		assert.Equal(t, "reset-token", reset["token"])
	}).Once()

	err := ctrl.PasswordResetForm(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestLogOutHonorsCustomDestination(t *testing.T) {
	provider := &MockProvider{}
	ctrl := authgate.NewAuthController(
		authgate.WithControllerProvider(provider),
		authgate.WithControllerConfig(testConfig()),
		authgate.WithControllerLogger(testLogger{}),
		authgate.WithControllerRoutes(&authgate.AuthControllerRoutes{
			Login:         "/auth/login",
			Logout:        "/auth/logout",
			Register:      "/auth/register",
			PasswordReset: "/auth/password-reset",
			Verify:        "/auth/callback",
			AfterLogout:   "/goodbye",
		}),
	)

	provider.On("SignOut", mock.Anything, "access-1").Return(nil).Once()

	ctx := &MockContext{}
	ctx.On("Cookies", "ag_access_token").Return("access-1")
	ctx.On("Cookies", "ag_refresh_token").Return("refresh-1")
	ctx.On("Locals", "subject").Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/goodbye", []int{303}).Return(nil).Once()

	err := ctrl.LogOut(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestLogOutDefaultsDestinationWhenRoutesOmitIt(t *testing.T) {
	provider := &MockProvider{}
	ctrl := authgate.NewAuthController(
		authgate.WithControllerProvider(provider),
		authgate.WithControllerConfig(testConfig()),
		authgate.WithControllerLogger(testLogger{}),
		authgate.WithControllerRoutes(&authgate.AuthControllerRoutes{
			Login:  "/auth/login",
			Logout: "/auth/logout",
		}),
	)

	provider.On("SignOut", mock.Anything, "access-1").Return(nil).Once()

	ctx := &MockContext{}
	ctx.On("Cookies", "ag_access_token").Return("access-1")
	ctx.On("Cookies", "ag_refresh_token").Return("refresh-1")
	ctx.On("Locals", "subject").Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Return()
	ctx.On("Redirect", "/", []int{303}).Return(nil).Once()

	err := ctrl.LogOut(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}
