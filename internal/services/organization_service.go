package services

import (
	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type OrganizationService interface {
	// Register создаёт организацию в статусе pending вместе с её владельцем.
	Register(db *gorm.DB, req *dto.RegisterOrganizationRequest) (*models.Organization, error)
	GetPublicBySlug(db *gorm.DB, slug string) (*dto.OrganizationPublicResponse, error)
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Organization, error)
	// Activate переводит организацию в active (только админ).
	Activate(db *gorm.DB, id uuid.UUID) error
	Suspend(db *gorm.DB, id uuid.UUID) error
	List(db *gorm.DB, status *models.OrganizationStatus) ([]models.Organization, error)
	UpdatePaymentConfig(db *gorm.DB, id uuid.UUID, req *dto.UpdatePaymentConfigRequest) error
}

type organizationService struct {
	orgs  repositories.OrganizationRepository
	users repositories.UserRepository
}

func NewOrganizationService(orgs repositories.OrganizationRepository, users repositories.UserRepository) OrganizationService {
	return &organizationService{orgs: orgs, users: users}
}

func (s *organizationService) Register(db *gorm.DB, req *dto.RegisterOrganizationRequest) (*models.Organization, error) {
	if _, err := s.orgs.FindBySlug(db, req.Slug); err == nil {
		return nil, appErrors.ErrSlugAlreadyExists
	} else if err != repositories.ErrOrganizationNotFound {
		return nil, err
	}
	if _, err := s.users.FindByEmail(db, req.OwnerEmail); err == nil {
		return nil, appErrors.ErrEmailAlreadyExists
	} else if err != repositories.ErrUserNotFound {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	org := &models.Organization{
		Name:        req.Name,
		Description: req.Description,
		Nip:         req.Nip,
		Krs:         req.Krs,
		BankAccount: req.BankAccount,
		Email:       req.Email,
		Slug:        req.Slug,
		Status:      models.OrganizationStatusPending,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.orgs.Create(tx, org); err != nil {
			return err
		}
		owner := &models.User{
			Email:          req.OwnerEmail,
			PasswordHash:   string(passwordHash),
			Role:           models.UserRoleOrgOwner,
			OrganizationID: &org.ID,
		}
		return s.users.Create(tx, owner)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("organization registered", "organization_id", org.ID, "slug", org.Slug)
	return org, nil
}

func (s *organizationService) GetPublicBySlug(db *gorm.DB, slug string) (*dto.OrganizationPublicResponse, error) {
	org, err := s.orgs.FindBySlug(db, slug)
	if err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return nil, appErrors.ErrOrganizationNotFound
		}
		return nil, err
	}
	if org.Status != models.OrganizationStatusActive {
		return nil, appErrors.ErrOrganizationNotFound
	}
	resp := dto.NewOrganizationPublicResponse(org)
	return &resp, nil
}

func (s *organizationService) GetByID(db *gorm.DB, id uuid.UUID) (*models.Organization, error) {
	org, err := s.orgs.FindByID(db, id)
	if err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return nil, appErrors.ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

func (s *organizationService) Activate(db *gorm.DB, id uuid.UUID) error {
	if err := s.orgs.UpdateStatus(db, id, models.OrganizationStatusActive); err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return appErrors.ErrOrganizationNotFound
		}
		return err
	}
	logger.Info("organization activated", "organization_id", id)
	return nil
}

func (s *organizationService) Suspend(db *gorm.DB, id uuid.UUID) error {
	if err := s.orgs.UpdateStatus(db, id, models.OrganizationStatusSuspended); err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return appErrors.ErrOrganizationNotFound
		}
		return err
	}
	logger.Warn("organization suspended", "organization_id", id)
	return nil
}

func (s *organizationService) List(db *gorm.DB, status *models.OrganizationStatus) ([]models.Organization, error) {
	return s.orgs.List(db, status)
}

func (s *organizationService) UpdatePaymentConfig(db *gorm.DB, id uuid.UUID, req *dto.UpdatePaymentConfigRequest) error {
	org, err := s.orgs.FindByID(db, id)
	if err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return appErrors.ErrOrganizationNotFound
		}
		return err
	}
	org.FiservStoreID = &req.FiservStoreID
	org.FiservSecret = &req.FiservSecret
	return s.orgs.Update(db, org)
}
