package workers_test

import (
	"context"
	"testing"
	"time"

	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/internal/services"
	"jobportal_backend/internal/testutil"
	"jobportal_backend/internal/workers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type workerFixture struct {
	db       *gorm.DB
	gateway  *testutil.FakeGateway
	payments services.PaymentService
	subs     services.SubscriptionService
	worker   *workers.SubscriptionWorker
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := testutil.NewTestConfig()
	gateway := &testutil.FakeGateway{}

	userRepo := repositories.NewUserRepository()
	planRepo := repositories.NewPlanRepository()
	txRepo := repositories.NewTransactionRepository()
	subs := services.NewSubscriptionService(repositories.NewSubscriptionRepository(), userRepo)
	payments := services.NewPaymentService(cfg, gateway, services.NewPlanService(planRepo), subs,
		txRepo, userRepo, planRepo, repositories.NewCallbackLogRepository())

	return &workerFixture{
		db:       db,
		gateway:  gateway,
		payments: payments,
		subs:     subs,
		worker:   workers.NewSubscriptionWorker(db, cfg.Workers, subs, payments, txRepo),
	}
}

func TestSubscriptionWorker_ExpireSubscriptions(t *testing.T) {
	f := newWorkerFixture(t)
	user := testutil.CreateUser(t, f.db)
	plan := testutil.CreatePlan(t, f.db, models.PlanStandard, "999.00", 30)

	sub, err := f.subs.Activate(f.db, user.ID, plan, uuid.NewString())
	require.NoError(t, err)

	affected, err := f.worker.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected, "действующая подписка не трогается")

	require.NoError(t, f.db.Model(sub).Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	affected, err = f.worker.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var stored models.UserSubscription
	require.NoError(t, f.db.First(&stored, "id = ?", sub.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestSubscriptionWorker_ReconcilePending(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db)
	testutil.CreatePlan(t, f.db, models.PlanStandard, "999.00", 30)

	initiate := func() string {
		resp, err := f.payments.Initiate(ctx, f.db, user.ID, &dto.InitiatePaymentRequest{Plan: "standard"})
		require.NoError(t, err)
		return resp.TransactionUUID
	}
	stale := initiate()
	fresh := initiate()
	require.NoError(t, f.db.Model(&models.PaymentTransaction{}).
		Where("transaction_uuid = ?", stale).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	settled, err := f.worker.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled, "шлюз отвечает PENDING")
	assert.Equal(t, 1, f.gateway.CallCount(), "свежие транзакции не проверяются")

	f.gateway.Complete("REF-WORKER", "999.00")
	settled, err = f.worker.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), settled)

	var tx models.PaymentTransaction
	require.NoError(t, f.db.First(&tx, "transaction_uuid = ?", stale).Error)
	assert.Equal(t, models.TransactionCompleted, tx.Status)
	require.NoError(t, f.db.First(&tx, "transaction_uuid = ?", fresh).Error)
	assert.Equal(t, models.TransactionPending, tx.Status)

	active, err := f.subs.HasCurrent(f.db, user.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSubscriptionWorker_ReconcileGatewayDown(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db)
	testutil.CreatePlan(t, f.db, models.PlanStandard, "999.00", 30)

	resp, err := f.payments.Initiate(ctx, f.db, user.ID, &dto.InitiatePaymentRequest{Plan: "standard"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.PaymentTransaction{}).
		Where("transaction_uuid = ?", resp.TransactionUUID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	f.gateway.Err = esewa.ErrServiceUnavailable
	settled, err := f.worker.ReconcilePending(ctx)
	assert.ErrorIs(t, err, esewa.ErrServiceUnavailable)
	assert.Zero(t, settled)
}

func TestSubscriptionWorker_StartStops(t *testing.T) {
	f := newWorkerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.worker.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		f.worker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("воркер не остановился после отмены контекста")
	}
}
