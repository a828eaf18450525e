package payment

import (
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Accumulator держит кэш собранных сумм консистентным с леджером.
// Credit вызывается ровно один раз на пожертвование — внутри той же
// транзакции, что и переход Pending -> Paid; no-op переходы кэша
// не касаются.
type Accumulator interface {
	Credit(tx *gorm.DB, donation *models.Donation) error
	// Recompute сверяет кэш цели с sum(amount) where status=paid.
	// Возвращает кэшированное и фактическое значения.
	Recompute(db *gorm.DB, goalID uuid.UUID) (cached float64, actual float64, err error)
	// Repair перезаписывает кэш фактическим значением из леджера.
	Repair(db *gorm.DB, goalID uuid.UUID, actual float64) error
}

type accumulator struct {
	orgs      repositories.OrganizationRepository
	goals     repositories.DonationGoalRepository
	donations repositories.DonationRepository
}

func NewAccumulator(
	orgs repositories.OrganizationRepository,
	goals repositories.DonationGoalRepository,
	donations repositories.DonationRepository,
) Accumulator {
	return &accumulator{orgs: orgs, goals: goals, donations: donations}
}

func (a *accumulator) Credit(tx *gorm.DB, donation *models.Donation) error {
	if err := a.orgs.AddToCollected(tx, donation.OrganizationID, donation.Amount); err != nil {
		return err
	}
	if donation.GoalID != nil {
		if err := a.goals.AddToCollected(tx, *donation.GoalID, donation.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (a *accumulator) Recompute(db *gorm.DB, goalID uuid.UUID) (float64, float64, error) {
	goal, err := a.goals.FindByID(db, goalID)
	if err != nil {
		return 0, 0, err
	}
	actual, err := a.donations.SumPaidByGoal(db, goalID)
	if err != nil {
		return 0, 0, err
	}
	return goal.CollectedAmount, actual, nil
}

func (a *accumulator) Repair(db *gorm.DB, goalID uuid.UUID, actual float64) error {
	return a.goals.SetCollected(db, goalID, actual)
}
