package repositories

import (
	"errors"

	"etaca_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrGoalNotFound = errors.New("donation goal not found")

type DonationGoalRepository interface {
	Create(db *gorm.DB, goal *models.DonationGoal) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.DonationGoal, error)
	FindByOrganization(db *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]models.DonationGoal, error)
	FindActive(db *gorm.DB) ([]models.DonationGoal, error)
	Update(db *gorm.DB, goal *models.DonationGoal) error
	Deactivate(db *gorm.DB, id uuid.UUID) error
	// AddToCollected инкрементирует кэш собранной суммы цели.
	AddToCollected(db *gorm.DB, id uuid.UUID, amount float64) error
	// SetCollected перезаписывает кэш (используется при починке дрейфа).
	SetCollected(db *gorm.DB, id uuid.UUID, amount float64) error
}

type DonationGoalRepositoryImpl struct{}

func NewDonationGoalRepository() DonationGoalRepository {
	return &DonationGoalRepositoryImpl{}
}

func (r *DonationGoalRepositoryImpl) Create(db *gorm.DB, goal *models.DonationGoal) error {
	return db.Create(goal).Error
}

func (r *DonationGoalRepositoryImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.DonationGoal, error) {
	var goal models.DonationGoal
	if err := db.First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (r *DonationGoalRepositoryImpl) FindByOrganization(db *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]models.DonationGoal, error) {
	query := db.Where("organization_id = ?", orgID).Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var goals []models.DonationGoal
	if err := query.Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *DonationGoalRepositoryImpl) FindActive(db *gorm.DB) ([]models.DonationGoal, error) {
	var goals []models.DonationGoal
	if err := db.Where("is_active = ?", true).Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *DonationGoalRepositoryImpl) Update(db *gorm.DB, goal *models.DonationGoal) error {
	return db.Save(goal).Error
}

func (r *DonationGoalRepositoryImpl) Deactivate(db *gorm.DB, id uuid.UUID) error {
	result := db.Model(&models.DonationGoal{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *DonationGoalRepositoryImpl) AddToCollected(db *gorm.DB, id uuid.UUID, amount float64) error {
	result := db.Model(&models.DonationGoal{}).
		Where("id = ?", id).
		Update("collected_amount", gorm.Expr("collected_amount + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *DonationGoalRepositoryImpl) SetCollected(db *gorm.DB, id uuid.UUID, amount float64) error {
	return db.Model(&models.DonationGoal{}).Where("id = ?", id).Update("collected_amount", amount).Error
}
