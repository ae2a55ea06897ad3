// Package testutil holds fixtures shared by package tests: an in-memory
// database, seeded users and plans, and a scriptable eSewa gateway.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"jobportal_backend/internal/config"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const TestSecret = "8gBm/:&EnhH.1/q"

// NewTestDB открывает отдельную in-memory SQLite базу на тест и мигрирует модели.
// Одно соединение: shared-cache база живет, пока оно открыто.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...), "AutoMigrate для тестовой БД")
	return db
}

// NewTestConfig - конфигурация с тестовым ключом eSewa
func NewTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.DSN = "sqlite://memory"
	cfg.JWT.Secret = "test-jwt-secret"
	cfg.Esewa.SecretKey = TestSecret
	cfg.Esewa.ProductCode = "EPAYTEST"
	cfg.Server.BackendURL = "http://api.test"
	cfg.Frontend.URL = "http://front.test"
	cfg.RateLimit.RPS = 100
	cfg.RateLimit.Burst = 100
	return cfg
}

// CreateUser создает пользователя с ролью employee
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:    fmt.Sprintf("user_%s@test.com", uuid.NewString()[:8]),
		Name:     "Test User",
		Role:     models.UserRoleEmployee,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error, "создание тестового пользователя")
	return user
}

// CreatePlan создает активный план
func CreatePlan(t *testing.T, db *gorm.DB, name models.PlanName, price string, validFor int) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		PlanName: name,
		Price:    decimal.RequireFromString(price),
		Currency: "NPR",
		ValidFor: validFor,
		IsActive: true,
	}
	require.NoError(t, db.Create(plan).Error, "создание тестового плана")
	return plan
}

// FakeGateway - управляемая замена status-check эндпоинта eSewa
type FakeGateway struct {
	mu     sync.Mutex
	Result *esewa.StatusResult
	Err    error
	Calls  []string
}

func (g *FakeGateway) CheckStatus(_ context.Context, transactionUUID, totalAmount, _ string) (*esewa.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, transactionUUID+"|"+totalAmount)
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Result == nil {
		return &esewa.StatusResult{TransactionUUID: transactionUUID, Status: esewa.StatusPending}, nil
	}
	result := *g.Result
	if result.TransactionUUID == "" {
		result.TransactionUUID = transactionUUID
	}
	return &result, nil
}

// CallCount - число обращений к шлюзу
func (g *FakeGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

// Complete настраивает ответ COMPLETE
func (g *FakeGateway) Complete(refID, totalAmount string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Err = nil
	g.Result = &esewa.StatusResult{Status: esewa.StatusComplete, RefID: refID, TotalAmount: totalAmount}
}
