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

func newOrganizationService() services.OrganizationService {
	return services.NewOrganizationService(
		repositories.NewOrganizationRepository(),
		repositories.NewUserRepository(),
	)
}

func registerRequest(slug string) *dto.RegisterOrganizationRequest {
	return &dto.RegisterOrganizationRequest{
		Name:          "Fundacja Test",
		Nip:           "1234567890",
		BankAccount:   "PL00000000000000000000000000",
		Email:         "info@" + slug + ".org",
		Slug:          slug,
		OwnerEmail:    "owner@" + slug + ".org",
		OwnerPassword: "password123",
	}
}

func TestRegisterOrganization(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newOrganizationService()

	org, err := svc.Register(db, registerRequest("fundacja-test"))
	require.NoError(t, err)
	assert.Equal(t, models.OrganizationStatusPending, org.Status)

	// Владелец создан в той же транзакции и привязан к организации.
	var owner models.User
	require.NoError(t, db.First(&owner, "email = ?", "owner@fundacja-test.org").Error)
	assert.Equal(t, models.UserRoleOrgOwner, owner.Role)
	require.NotNil(t, owner.OrganizationID)
	assert.Equal(t, org.ID, *owner.OrganizationID)
}

func TestRegisterOrganization_DuplicateSlug(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newOrganizationService()

	_, err := svc.Register(db, registerRequest("fundacja-test"))
	require.NoError(t, err)

	req := registerRequest("fundacja-test")
	req.Nip = "0987654321"
	req.OwnerEmail = "other@test.org"
	_, err = svc.Register(db, req)
	assert.ErrorIs(t, err, appErrors.ErrSlugAlreadyExists)
}

func TestGetPublicBySlug_HidesInactive(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newOrganizationService()

	org, err := svc.Register(db, registerRequest("fundacja-test"))
	require.NoError(t, err)

	// pending-организация публично не видна.
	_, err = svc.GetPublicBySlug(db, "fundacja-test")
	assert.ErrorIs(t, err, appErrors.ErrOrganizationNotFound)

	require.NoError(t, svc.Activate(db, org.ID))
	resp, err := svc.GetPublicBySlug(db, "fundacja-test")
	require.NoError(t, err)
	assert.Equal(t, org.ID, resp.ID)
}

func TestUpdatePaymentConfig(t *testing.T) {
	db := helpers.OpenTestDB(t)
	svc := newOrganizationService()

	org, err := svc.Register(db, registerRequest("fundacja-test"))
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePaymentConfig(db, org.ID, &dto.UpdatePaymentConfigRequest{
		FiservStoreID: "760995999",
		FiservSecret:  "j}2W3P)Lwv",
	}))

	var stored models.Organization
	require.NoError(t, db.First(&stored, "id = ?", org.ID).Error)
	assert.True(t, stored.PaymentConfigured())
}
