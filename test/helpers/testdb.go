package helpers

import (
	"fmt"
	"sync/atomic"
	"testing"

	"etaca_backend/database"
	"etaca_backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter int64

// OpenTestDB открывает изолированную in-memory базу для одного теста.
// cache=shared нужен, чтобы все соединения пула видели одну базу.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_pragma=busy_timeout(10000)", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("не удалось открыть тестовую базу: %v", err)
	}

	// SQLite не любит конкурентных писателей: одно соединение в пуле
	// сериализует доступ, сами тесты при этом могут гоняться как угодно.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("не удалось получить *sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("не удалось выполнить миграции: %v", err)
	}
	return db
}

// CreateActiveOrganization создает активную организацию с настроенным Fiserv.
func CreateActiveOrganization(t *testing.T, db *gorm.DB, storeID, secret string) *models.Organization {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	org := &models.Organization{
		Name:          fmt.Sprintf("Test Org %d", n),
		Nip:           fmt.Sprintf("%010d", n),
		BankAccount:   "PL00000000000000000000000000",
		Email:         fmt.Sprintf("org_%d@test.com", n),
		Slug:          fmt.Sprintf("test-org-%d", n),
		Status:        models.OrganizationStatusActive,
		FiservStoreID: &storeID,
		FiservSecret:  &secret,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("не удалось создать организацию: %v", err)
	}
	return org
}

// CreateGoal создает активную цель для организации.
func CreateGoal(t *testing.T, db *gorm.DB, orgID uuid.UUID) *models.DonationGoal {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	goal := &models.DonationGoal{
		OrganizationID: orgID,
		Title:          "Test Goal",
		Slug:           fmt.Sprintf("test-goal-%d", n),
		IsActive:       true,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("не удалось создать цель: %v", err)
	}
	return goal
}

// CreatePendingDonation создает pending-пожертвование с уникальным external_ref.
func CreatePendingDonation(t *testing.T, db *gorm.DB, orgID uuid.UUID, goalID *uuid.UUID, amount float64) *models.Donation {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	donation := &models.Donation{
		OrganizationID: orgID,
		GoalID:         goalID,
		ExternalRef:    fmt.Sprintf("DON-TEST-%d", n),
		Amount:         amount,
		Currency:       "PLN",
		DonorEmail:     fmt.Sprintf("donor_%d@test.com", n),
		Status:         models.DonationStatusPending,
	}
	if err := db.Create(donation).Error; err != nil {
		t.Fatalf("не удалось создать пожертвование: %v", err)
	}
	return donation
}
