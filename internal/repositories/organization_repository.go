package repositories

import (
	"errors"

	"etaca_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type OrganizationRepository interface {
	Create(db *gorm.DB, org *models.Organization) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Organization, error)
	FindBySlug(db *gorm.DB, slug string) (*models.Organization, error)
	// FindByStoreID резолвит организацию (и её секрет) по идентификатору
	// магазина из callback'а шлюза.
	FindByStoreID(db *gorm.DB, storeID string) (*models.Organization, error)
	Update(db *gorm.DB, org *models.Organization) error
	UpdateStatus(db *gorm.DB, id uuid.UUID, status models.OrganizationStatus) error
	List(db *gorm.DB, status *models.OrganizationStatus) ([]models.Organization, error)
	// AddToCollected инкрементирует кэш собранной суммы организации.
	// Вызывается только внутри транзакции перехода Pending -> Paid.
	AddToCollected(db *gorm.DB, id uuid.UUID, amount float64) error
}

type OrganizationRepositoryImpl struct{}

func NewOrganizationRepository() OrganizationRepository {
	return &OrganizationRepositoryImpl{}
}

func (r *OrganizationRepositoryImpl) Create(db *gorm.DB, org *models.Organization) error {
	return db.Create(org).Error
}

func (r *OrganizationRepositoryImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := db.First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.Organization, error) {
	var org models.Organization
	if err := db.Preload("Goals", "is_active = ?", true).First(&org, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindByStoreID(db *gorm.DB, storeID string) (*models.Organization, error) {
	var org models.Organization
	if err := db.First(&org, "fiserv_store_id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) Update(db *gorm.DB, org *models.Organization) error {
	return db.Save(org).Error
}

func (r *OrganizationRepositoryImpl) UpdateStatus(db *gorm.DB, id uuid.UUID, status models.OrganizationStatus) error {
	result := db.Model(&models.Organization{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepositoryImpl) List(db *gorm.DB, status *models.OrganizationStatus) ([]models.Organization, error) {
	query := db.Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orgs []models.Organization
	if err := query.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *OrganizationRepositoryImpl) AddToCollected(db *gorm.DB, id uuid.UUID, amount float64) error {
	result := db.Model(&models.Organization{}).
		Where("id = ?", id).
		Update("total_collected", gorm.Expr("total_collected + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}
