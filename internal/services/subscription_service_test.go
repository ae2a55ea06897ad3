package services_test

import (
	"testing"

	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/internal/testutil"
	"jobportal_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_Activate(t *testing.T) {
	f := newPaymentFixture(t)
	txID := uuid.NewString()

	sub, err := f.subs.Activate(f.db, f.user.ID, f.plan, txID)
	require.NoError(t, err)
	assert.True(t, sub.IsActive)
	assert.Equal(t, sub.StartedAt.AddDate(0, 0, 30), sub.ExpiresAt)

	again, err := f.subs.Activate(f.db, f.user.ID, f.plan, txID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID, "повтор по той же транзакции возвращает ту же подписку")
	assert.Equal(t, int64(1), f.countRows(t, &models.UserSubscription{}, "user_id = ?", f.user.ID))

	var user models.User
	require.NoError(t, f.db.First(&user, "id = ?", f.user.ID).Error)
	assert.Equal(t, models.UserRoleBoth, user.Role)
}

func TestSubscriptionService_AtMostOneActive(t *testing.T) {
	f := newPaymentFixture(t)
	premium := testutil.CreatePlan(t, f.db, models.PlanPremium, "2499.00", 90)

	_, err := f.subs.Activate(f.db, f.user.ID, f.plan, uuid.NewString())
	require.NoError(t, err)
	latest, err := f.subs.Activate(f.db, f.user.ID, premium, uuid.NewString())
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.countRows(t, &models.UserSubscription{}, "user_id = ? AND is_active = ?", f.user.ID, true))

	current, err := f.subs.GetCurrent(f.db, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, current.ID)
	require.NotNil(t, current.Plan)
	assert.Equal(t, "premium", current.Plan.PlanName)

	history, err := f.subs.ListHistory(f.db, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubscriptionService_ZeroDayPlanIsNeverCurrent(t *testing.T) {
	f := newPaymentFixture(t)
	trial := testutil.CreatePlan(t, f.db, models.PlanPremium, "0.00", 0)

	sub, err := f.subs.Activate(f.db, f.user.ID, trial, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, sub.StartedAt, sub.ExpiresAt)

	active, err := f.subs.HasCurrent(f.db, f.user.ID)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.subs.GetCurrent(f.db, f.user.ID)
	assert.ErrorIs(t, err, apperrors.ErrSubscriptionNotFound)

	expired, err := f.subs.ExpireLapsed(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
}

func TestSubscriptionService_ActivateUnknownUser(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.subs.Activate(f.db, uuid.NewString(), f.plan, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	assert.Equal(t, int64(0), f.countRows(t, &models.UserSubscription{}, "1 = 1"))
}

func TestSubscriptionService_HistoryEmpty(t *testing.T) {
	f := newPaymentFixture(t)

	history, err := f.subs.ListHistory(f.db, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)
}
