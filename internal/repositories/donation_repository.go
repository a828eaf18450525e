package repositories

import (
	"errors"
	"time"

	"etaca_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDonationNotFound = errors.New("donation not found")

type DonationRepository interface {
	Create(db *gorm.DB, donation *models.Donation) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Donation, error)
	FindByExternalRef(db *gorm.DB, externalRef string) (*models.Donation, error)
	ListByOrganization(db *gorm.DB, orgID uuid.UUID, page, pageSize int) ([]models.Donation, int64, error)
	// FindByOrganizationForExport выбирает пожертвования без пагинации,
	// с опциональным диапазоном дат (для CSV-выгрузки).
	FindByOrganizationForExport(db *gorm.DB, orgID uuid.UUID, from, to *time.Time) ([]models.Donation, error)

	// TransitionFromPending — условный апдейт статуса, единственный способ
	// сменить статус пожертвования. Гард status='pending' гарантирует, что
	// из двух конкурентных доставок переход применит ровно одна; вторая
	// получит applied=false и трактуется как повтор терминального состояния.
	TransitionFromPending(db *gorm.DB, id uuid.UUID, target models.DonationStatus, paidAt *time.Time) (bool, error)

	// ClaimNotification атомарно занимает право на отправку уведомления
	// (notified_at IS NULL -> now). Возвращает false, если уже занято.
	ClaimNotification(db *gorm.DB, id uuid.UUID) (bool, error)
	// ReleaseNotification снимает отметку, если отправка не удалась,
	// чтобы recovery-воркер повторил попытку.
	ReleaseNotification(db *gorm.DB, id uuid.UUID) error
	FindPaidUnnotified(db *gorm.DB, paidBefore time.Time, limit int) ([]models.Donation, error)

	// SumPaidByGoal пересчитывает собранную сумму цели из леджера
	// (для проверки дрейфа кэша).
	SumPaidByGoal(db *gorm.DB, goalID uuid.UUID) (float64, error)
	SumPaidByOrganization(db *gorm.DB, orgID uuid.UUID) (float64, error)
}

type DonationRepositoryImpl struct{}

func NewDonationRepository() DonationRepository {
	return &DonationRepositoryImpl{}
}

func (r *DonationRepositoryImpl) Create(db *gorm.DB, donation *models.Donation) error {
	return db.Create(donation).Error
}

func (r *DonationRepositoryImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	if err := db.First(&donation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *DonationRepositoryImpl) FindByExternalRef(db *gorm.DB, externalRef string) (*models.Donation, error) {
	var donation models.Donation
	err := db.Preload("Organization").First(&donation, "external_ref = ?", externalRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *DonationRepositoryImpl) ListByOrganization(db *gorm.DB, orgID uuid.UUID, page, pageSize int) ([]models.Donation, int64, error) {
	var total int64
	if err := db.Model(&models.Donation{}).Where("organization_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var donations []models.Donation
	err := db.Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&donations).Error
	if err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

func (r *DonationRepositoryImpl) FindByOrganizationForExport(db *gorm.DB, orgID uuid.UUID, from, to *time.Time) ([]models.Donation, error) {
	query := db.Where("organization_id = ?", orgID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var donations []models.Donation
	if err := query.Order("created_at ASC").Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepositoryImpl) TransitionFromPending(db *gorm.DB, id uuid.UUID, target models.DonationStatus, paidAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": time.Now().UTC(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}

	result := db.Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, models.DonationStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *DonationRepositoryImpl) ClaimNotification(db *gorm.DB, id uuid.UUID) (bool, error) {
	result := db.Model(&models.Donation{}).
		Where("id = ? AND notified_at IS NULL", id).
		Update("notified_at", time.Now().UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *DonationRepositoryImpl) ReleaseNotification(db *gorm.DB, id uuid.UUID) error {
	return db.Model(&models.Donation{}).Where("id = ?", id).Update("notified_at", nil).Error
}

func (r *DonationRepositoryImpl) FindPaidUnnotified(db *gorm.DB, paidBefore time.Time, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := db.Where("status = ? AND notified_at IS NULL AND paid_at < ?", models.DonationStatusPaid, paidBefore).
		Limit(limit).
		Find(&donations).Error
	if err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepositoryImpl) SumPaidByGoal(db *gorm.DB, goalID uuid.UUID) (float64, error) {
	var sum float64
	err := db.Model(&models.Donation{}).
		Where("goal_id = ? AND status = ?", goalID, models.DonationStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *DonationRepositoryImpl) SumPaidByOrganization(db *gorm.DB, orgID uuid.UUID) (float64, error) {
	var sum float64
	err := db.Model(&models.Donation{}).
		Where("organization_id = ? AND status = ?", orgID, models.DonationStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
