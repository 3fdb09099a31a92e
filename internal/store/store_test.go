package store

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pablodma/homeAssistant-backend/internal/migration"
	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// newTestStore runs the real migration registry against an in-memory
// database, so tests exercise the same schema production gets.
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))

	s, err := New(db, opts...)
	require.NoError(t, err)
	return s
}

func createTestTenant(t *testing.T, s *Store, name string) uuid.UUID {
	t.Helper()

	tenant := model.Tenant{Name: name, Active: true, PlanType: model.PlanFamily}
	require.NoError(t, s.db.Create(&tenant).Error)
	return tenant.ID
}

func createTestUser(t *testing.T, s *Store, tenantID uuid.UUID, phone string) uuid.UUID {
	t.Helper()

	user := model.User{
		TenantID:     &tenantID,
		Phone:        &phone,
		DisplayName:  "Test User",
		Role:         model.RoleOwner,
		AuthProvider: model.AuthProviderPhone,
		Active:       true,
	}
	require.NoError(t, s.db.Create(&user).Error)
	return user.ID
}

func seedPlanPricing(t *testing.T, s *Store, planType string, price int64) {
	t.Helper()

	pricing := model.PlanPricing{
		PlanType: planType,
		Price:    decimal.NewFromInt(price),
		Currency: "ARS",
		Active:   true,
	}
	require.NoError(t, s.db.Create(&pricing).Error)
}

func strptr(s string) *string { return &s }
