package workers

import (
	"context"
	"sync"
	"time"

	"jobportal_backend/internal/config"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/metrics"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/internal/services"

	"gorm.io/gorm"
)

const (
	workerExpiry    = "subscription_expiry"
	workerReconcile = "payment_reconcile"
)

// SubscriptionWorker - фоновые задачи подписок и платежей:
// снятие флага is_active с истекших подписок и сверка зависших pending-транзакций со шлюзом.
type SubscriptionWorker struct {
	db                  *gorm.DB
	cfg                 config.WorkersConfig
	subscriptionService services.SubscriptionService
	paymentService      services.PaymentService
	txRepo              repositories.TransactionRepository
	now                 func() time.Time
	wg                  sync.WaitGroup
}

func NewSubscriptionWorker(
	db *gorm.DB,
	cfg config.WorkersConfig,
	subscriptionService services.SubscriptionService,
	paymentService services.PaymentService,
	txRepo repositories.TransactionRepository,
) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:                  db,
		cfg:                 cfg,
		subscriptionService: subscriptionService,
		paymentService:      paymentService,
		txRepo:              txRepo,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// Start запускает фоновые задачи; останавливаются по отмене ctx
func (w *SubscriptionWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.loop(ctx, workerExpiry, w.cfg.ExpiryInterval, func(ctx context.Context) { w.ExpireSubscriptions(ctx) })
	go w.loop(ctx, workerReconcile, w.cfg.ReconcileInterval, func(ctx context.Context) { w.ReconcilePending(ctx) })
}

// Wait блокируется до остановки всех задач
func (w *SubscriptionWorker) Wait() {
	w.wg.Wait()
}

func (w *SubscriptionWorker) loop(ctx context.Context, name string, every time.Duration, run func(context.Context)) {
	defer w.wg.Done()
	log := logger.With("worker", name)
	if every <= 0 {
		log.Warn("worker disabled: non-positive interval")
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopped")
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

// ExpireSubscriptions снимает is_active с подписок, у которых expires_at <= now
func (w *SubscriptionWorker) ExpireSubscriptions(ctx context.Context) (int64, error) {
	affected, err := w.subscriptionService.ExpireLapsed(w.db.WithContext(ctx))
	logger.WorkerLog(workerExpiry, "expire_lapsed", affected, err)
	metrics.WorkerRuns.WithLabelValues(workerExpiry, runStatus(err)).Inc()
	return affected, err
}

// ReconcilePending сверяет со шлюзом pending-транзакции старше PendingAge.
// Ошибка по одной транзакции не останавливает обработку пачки.
func (w *SubscriptionWorker) ReconcilePending(ctx context.Context) (int64, error) {
	db := w.db.WithContext(ctx)
	stale, err := w.txRepo.FindStalePending(db, w.now().Add(-w.cfg.PendingAge), w.cfg.ReconcileBatch)
	if err != nil {
		logger.WorkerLog(workerReconcile, "find_stale", 0, err)
		metrics.WorkerRuns.WithLabelValues(workerReconcile, runStatus(err)).Inc()
		return 0, err
	}

	var settled int64
	var lastErr error
	for i := range stale {
		if ctx.Err() != nil {
			break
		}
		record := &stale[i]
		status, err := w.paymentService.Reconcile(ctx, db, record)
		if err != nil {
			lastErr = err
			logger.Warn("reconcile failed", "transaction_uuid", record.TransactionUUID, "error", err)
			continue
		}
		if status != models.TransactionPending {
			settled++
		}
	}

	logger.WorkerLog(workerReconcile, "reconcile_pending", settled, lastErr)
	metrics.WorkerRuns.WithLabelValues(workerReconcile, runStatus(lastErr)).Inc()
	return settled, lastErr
}

func runStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
