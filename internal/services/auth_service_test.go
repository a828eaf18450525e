package services_test

import (
	"testing"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/services"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() services.AuthService {
	return services.NewAuthService(repositories.NewUserRepository(), "test-jwt-secret", 1)
}

func TestSeedAdminAndLogin(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newAuthService()

	require.NoError(t, svc.SeedAdmin(db, "admin@test.com", "admin-password"))

	// Повторный сидинг — no-op.
	require.NoError(t, svc.SeedAdmin(db, "another@test.com", "whatever"))
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count)
	assert.EqualValues(t, 1, count)

	resp, err := svc.Login(db, &dto.LoginRequest{Email: "admin@test.com", Password: "admin-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, string(models.UserRoleAdmin), resp.Role)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(models.UserRoleAdmin), claims.Role)
	assert.NotEmpty(t, claims.Subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newAuthService()
	require.NoError(t, svc.SeedAdmin(db, "admin@test.com", "admin-password"))

	_, err := svc.Login(db, &dto.LoginRequest{Email: "admin@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(db, &dto.LoginRequest{Email: "ghost@test.com", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestParseToken_InvalidToken(t *testing.T) {
	svc := newAuthService()

	_, err := svc.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	// Токен, подписанный другим секретом.
	other := services.NewAuthService(repositories.NewUserRepository(), "other-secret", 1)
	db := helpers.OpenTestDB(t)
	require.NoError(t, other.SeedAdmin(db, "admin@test.com", "admin-password"))
	resp, err := other.Login(db, &dto.LoginRequest{Email: "admin@test.com", Password: "admin-password"})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}
