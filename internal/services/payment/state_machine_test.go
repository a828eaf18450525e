package payment

import (
	"testing"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachine_PendingToPaid(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 50)

	machine := NewStateMachine(repositories.NewDonationRepository())
	result, err := machine.Apply(db, donation.ID, models.DonationStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, result)

	var updated models.Donation
	require.NoError(t, db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)
}

func TestStateMachine_PendingToFailed_NoPaidAt(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 50)

	machine := NewStateMachine(repositories.NewDonationRepository())
	result, err := machine.Apply(db, donation.ID, models.DonationStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, result)

	var updated models.Donation
	require.NoError(t, db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusFailed, updated.Status)
	assert.Nil(t, updated.PaidAt)
}

// Терминальные статусы не перезаписываются: второй переход — Ignored,
// состояние и paid_at остаются от первого.
func TestStateMachine_TerminalStateIsFinal(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 50)

	machine := NewStateMachine(repositories.NewDonationRepository())
	_, err := machine.Apply(db, donation.ID, models.DonationStatusPaid)
	require.NoError(t, err)

	for _, target := range []models.DonationStatus{
		models.DonationStatusPaid,
		models.DonationStatusFailed,
		models.DonationStatusCancelled,
	} {
		result, err := machine.Apply(db, donation.ID, target)
		require.NoError(t, err)
		assert.Equal(t, TransitionIgnored, result, "target %s", target)
	}

	var updated models.Donation
	require.NoError(t, db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPaid, updated.Status)
}

func TestStateMachine_RejectsNonTerminalTarget(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	donation := helpers.CreatePendingDonation(t, db, org.ID, nil, 50)

	machine := NewStateMachine(repositories.NewDonationRepository())
	_, err := machine.Apply(db, donation.ID, models.DonationStatusPending)
	assert.Error(t, err)
}
