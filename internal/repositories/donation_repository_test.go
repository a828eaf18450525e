package repositories_test

import (
	"testing"
	"time"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionFromPending_AppliesOnce(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 42)

	repo := repositories.NewDonationRepository()
	now := time.Now().UTC()

	applied, err := repo.TransitionFromPending(db, donation.ID, models.DonationStatusPaid, &now)
	require.NoError(t, err)
	assert.True(t, applied)

	// Гард status='pending' больше не совпадает: любой повтор — no-op.
	applied, err = repo.TransitionFromPending(db, donation.ID, models.DonationStatusFailed, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	var stored models.Donation
	require.NoError(t, db.First(&stored, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

func TestClaimNotification_SingleClaim(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 42)

	repo := repositories.NewDonationRepository()

	claimed, err := repo.ClaimNotification(db, donation.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimNotification(db, donation.ID)
	require.NoError(t, err)
	assert.False(t, claimed, "повторный claim должен быть отклонен")

	require.NoError(t, repo.ReleaseNotification(db, donation.ID))
	claimed, err = repo.ClaimNotification(db, donation.ID)
	require.NoError(t, err)
	assert.True(t, claimed, "после release claim снова доступен")
}

func TestFindPaidUnnotified(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	repo := repositories.NewDonationRepository()

	paidLongAgo := helpers.CreatePendingDonation(t, db, org.ID, nil, 10)
	old := time.Now().UTC().Add(-1 * time.Hour)
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", paidLongAgo.ID).
		Updates(map[string]interface{}{"status": models.DonationStatusPaid, "paid_at": old}).Error)

	// Свежеоплаченное не попадает под cutoff, pending не попадает вовсе.
	paidJustNow := helpers.CreatePendingDonation(t, db, org.ID, nil, 20)
	now := time.Now().UTC()
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", paidJustNow.ID).
		Updates(map[string]interface{}{"status": models.DonationStatusPaid, "paid_at": now}).Error)
	helpers.CreatePendingDonation(t, db, org.ID, nil, 30)

	found, err := repo.FindPaidUnnotified(db, time.Now().UTC().Add(-10*time.Minute), 50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, paidLongAgo.ID, found[0].ID)
}

func TestSumPaidByGoal(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	goal := helpers.CreateGoal(t, db, org.ID)
	repo := repositories.NewDonationRepository()

	for _, amount := range []float64{10, 15.5} {
		d := helpers.CreatePendingDonation(t, db, org.ID, &goal.ID, amount)
		require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", d.ID).
			Update("status", models.DonationStatusPaid).Error)
	}
	// Pending в сумму не входит.
	helpers.CreatePendingDonation(t, db, org.ID, &goal.ID, 100)

	sum, err := repo.SumPaidByGoal(db, goal.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.5, sum, 0.001)
}

func TestListByOrganization_Pagination(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	repo := repositories.NewDonationRepository()

	for i := 0; i < 5; i++ {
		helpers.CreatePendingDonation(t, db, org.ID, nil, float64(i+1))
	}

	donations, total, err := repo.ListByOrganization(db, org.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, donations, 2)

	donations, _, err = repo.ListByOrganization(db, org.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, donations, 1)
}
