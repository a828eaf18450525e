package services

import (
	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalService interface {
	Create(db *gorm.DB, orgID uuid.UUID, req *dto.CreateGoalRequest) (*dto.GoalResponse, error)
	Update(db *gorm.DB, orgID, goalID uuid.UUID, req *dto.UpdateGoalRequest) (*dto.GoalResponse, error)
	Deactivate(db *gorm.DB, orgID, goalID uuid.UUID) error
	ListByOrganization(db *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]dto.GoalResponse, error)
	Get(db *gorm.DB, goalID uuid.UUID) (*dto.GoalResponse, error)
}

type goalService struct {
	goals repositories.DonationGoalRepository
}

func NewGoalService(goals repositories.DonationGoalRepository) GoalService {
	return &goalService{goals: goals}
}

func (s *goalService) Create(db *gorm.DB, orgID uuid.UUID, req *dto.CreateGoalRequest) (*dto.GoalResponse, error) {
	goal := &models.DonationGoal{
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
		TargetAmount:   req.TargetAmount,
		Slug:           req.Slug,
		ImageURL:       req.ImageURL,
		IsActive:       true,
	}
	if err := s.goals.Create(db, goal); err != nil {
		return nil, err
	}
	resp := dto.NewGoalResponse(goal)
	return &resp, nil
}

func (s *goalService) Update(db *gorm.DB, orgID, goalID uuid.UUID, req *dto.UpdateGoalRequest) (*dto.GoalResponse, error) {
	goal, err := s.ownedGoal(db, orgID, goalID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.TargetAmount != nil {
		goal.TargetAmount = req.TargetAmount
	}
	if req.ImageURL != nil {
		goal.ImageURL = req.ImageURL
	}
	if err := s.goals.Update(db, goal); err != nil {
		return nil, err
	}
	resp := dto.NewGoalResponse(goal)
	return &resp, nil
}

func (s *goalService) Deactivate(db *gorm.DB, orgID, goalID uuid.UUID) error {
	if _, err := s.ownedGoal(db, orgID, goalID); err != nil {
		return err
	}
	return s.goals.Deactivate(db, goalID)
}

func (s *goalService) ListByOrganization(db *gorm.DB, orgID uuid.UUID, activeOnly bool) ([]dto.GoalResponse, error) {
	goals, err := s.goals.FindByOrganization(db, orgID, activeOnly)
	if err != nil {
		return nil, err
	}
	result := make([]dto.GoalResponse, 0, len(goals))
	for i := range goals {
		result = append(result, dto.NewGoalResponse(&goals[i]))
	}
	return result, nil
}

func (s *goalService) Get(db *gorm.DB, goalID uuid.UUID) (*dto.GoalResponse, error) {
	goal, err := s.goals.FindByID(db, goalID)
	if err != nil {
		if err == repositories.ErrGoalNotFound {
			return nil, appErrors.ErrGoalNotFound
		}
		return nil, err
	}
	resp := dto.NewGoalResponse(goal)
	return &resp, nil
}

func (s *goalService) ownedGoal(db *gorm.DB, orgID, goalID uuid.UUID) (*models.DonationGoal, error) {
	goal, err := s.goals.FindByID(db, goalID)
	if err != nil {
		if err == repositories.ErrGoalNotFound {
			return nil, appErrors.ErrGoalNotFound
		}
		return nil, err
	}
	if goal.OrganizationID != orgID {
		return nil, appErrors.ErrForbidden
	}
	return goal, nil
}
