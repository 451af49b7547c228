package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		RememberMeExpiry: 30 * 24 * time.Hour,
		ModeratorEmails:  "dean@unilak.ac.rw, mod@unilak.ac.rw",
	}
}

func TestSignupLoginRefresh(t *testing.T) {
	st, db := newStore(t)
	svc := NewAuthService(st, testConfig())

	_, err := svc.Signup(ctx, &dto.SignupRequest{Email: "alice@unilak.ac.rw", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidSignup)
	_, err = svc.Signup(ctx, &dto.SignupRequest{Email: "alice@unilak.ac.rw", Password: "longenough", Affiliation: "wizard"})
	assert.ErrorIs(t, err, ErrInvalidSignup)

	resp, err := svc.Signup(ctx, &dto.SignupRequest{Email: " Alice@Unilak.ac.rw ", Password: "longenough", Affiliation: "lecturer"})
	require.NoError(t, err)
	assert.Equal(t, "alice@unilak.ac.rw", resp.User.Email)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.Equal(t, "lecturer", resp.User.Affiliation)
	assert.Contains(t, resp.User.Username, "anon_")
	assert.Equal(t, "/", resp.Redirect)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, models.RoleStudent, claims["role"])

	_, err = svc.Signup(ctx, &dto.SignupRequest{Email: "alice@unilak.ac.rw", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@unilak.ac.rw", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@unilak.ac.rw", Password: "longenough", RememberMe: true})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	var stored models.RefreshToken
	require.NoError(t, db.First(&stored, "token_hash = ?", hashToken(refreshed.RefreshToken)).Error)
	assert.True(t, stored.RememberMe)
	assert.True(t, stored.ExpiresAt.After(time.Now().Add(29*24*time.Hour)))

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "rotated tokens cannot be reused")

	require.NoError(t, svc.Logout(ctx, &dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}))
	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignupBootstrapsModerators(t *testing.T) {
	st, _ := newStore(t)
	svc := NewAuthService(st, testConfig())

	resp, err := svc.Signup(ctx, &dto.SignupRequest{Email: "MOD@unilak.ac.rw", Password: "longenough", Username: "Registrar"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, resp.User.Role)
	assert.Equal(t, "Registrar", resp.User.Username)
	assert.Equal(t, "/moderator", resp.Redirect)
}
