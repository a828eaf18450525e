package services

import (
	"time"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims кастомные claims токена: роль и организация владельца.
type Claims struct {
	Role           string     `json:"role"`
	OrganizationID *uuid.UUID `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.TokenResponse, error)
	ParseToken(tokenString string) (*Claims, error)
	// SeedAdmin создаёт администратора из конфига, если админов ещё нет.
	SeedAdmin(db *gorm.DB, email, password string) error
}

type authService struct {
	users     repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(users repositories.UserRepository, jwtSecret string, ttlHours int) AuthService {
	return &authService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

func (s *authService) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.FindByEmail(db, req.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		Role:           string(user.Role),
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &dto.TokenResponse{
		AccessToken:    signed,
		Role:           string(user.Role),
		OrganizationID: user.OrganizationID,
	}, nil
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := s.users.CountByRole(db, models.UserRoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.UserRoleAdmin,
	}
	if err := s.users.Create(db, admin); err != nil {
		return err
	}
	logger.Info("admin account seeded", "email", email)
	return nil
}
