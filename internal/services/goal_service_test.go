package services_test

import (
	"testing"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/services"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoalService() services.GoalService {
	return services.NewGoalService(repositories.NewDonationGoalRepository())
}

func TestGoalLifecycle(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	svc := newGoalService()

	target := 5000.0
	goal, err := svc.Create(db, org.ID, &dto.CreateGoalRequest{
		Title:        "Nowy dach",
		Slug:         "nowy-dach",
		TargetAmount: &target,
	})
	require.NoError(t, err)
	assert.True(t, goal.IsActive)
	assert.Zero(t, goal.CollectedAmount)

	newTitle := "Nowy dach 2025"
	updated, err := svc.Update(db, org.ID, goal.ID, &dto.UpdateGoalRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)

	require.NoError(t, svc.Deactivate(db, org.ID, goal.ID))
	goals, err := svc.ListByOrganization(db, org.ID, true)
	require.NoError(t, err)
	assert.Empty(t, goals)

	goals, err = svc.ListByOrganization(db, org.ID, false)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestGoalOwnership(t *testing.T) {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	otherOrg := helpers.CreateActiveOrganization(t, db, "store-2", "secret-2")
	goal := helpers.CreateGoal(t, db, org.ID)
	svc := newGoalService()

	title := "hijack"
	_, err := svc.Update(db, otherOrg.ID, goal.ID, &dto.UpdateGoalRequest{Title: &title})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Deactivate(db, otherOrg.ID, goal.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
