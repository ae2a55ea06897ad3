package services_test

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"

	"jobportal_backend/internal/config"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/internal/services"
	"jobportal_backend/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	db       *gorm.DB
	cfg      *config.Config
	gateway  *testutil.FakeGateway
	payments services.PaymentService
	subs     services.SubscriptionService
	plans    services.PlanService
	user     *models.User
	plan     *models.Plan
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := testutil.NewTestConfig()
	gateway := &testutil.FakeGateway{}

	userRepo := repositories.NewUserRepository()
	planRepo := repositories.NewPlanRepository()
	planService := services.NewPlanService(planRepo)
	subService := services.NewSubscriptionService(repositories.NewSubscriptionRepository(), userRepo)
	paymentService := services.NewPaymentService(
		cfg,
		gateway,
		planService,
		subService,
		repositories.NewTransactionRepository(),
		userRepo,
		planRepo,
		repositories.NewCallbackLogRepository(),
	)

	return &paymentFixture{
		db:       db,
		cfg:      cfg,
		gateway:  gateway,
		payments: paymentService,
		subs:     subService,
		plans:    planService,
		user:     testutil.CreateUser(t, db),
		plan:     testutil.CreatePlan(t, db, models.PlanStandard, "999.00", 30),
	}
}

// signedBlob собирает base64 data так, как его присылает eSewa
func signedBlob(t *testing.T, secret string, fields map[string]string) string {
	t.Helper()

	const signedNames = "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names"
	payload := map[string]string{"signed_field_names": signedNames}
	for k, v := range fields {
		payload[k] = v
	}

	signFields := make([]esewa.Field, 0, 6)
	for _, name := range []string{"transaction_code", "status", "total_amount", "transaction_uuid", "product_code", "signed_field_names"} {
		signFields = append(signFields, esewa.Field{Name: name, Value: payload[name]})
	}
	payload["signature"] = esewa.NewSigner(secret).Sign(signFields...)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func completeFields(transactionUUID, total string) map[string]string {
	return map[string]string{
		"transaction_code": "000AWEO",
		"status":           "COMPLETE",
		"total_amount":     total,
		"transaction_uuid": transactionUUID,
		"product_code":     "EPAYTEST",
	}
}

// callbackQuery - query success_url после редиректа шлюза
func callbackQuery(transactionUUID, plan, userID, data string) esewa.CallbackRequest {
	q := url.Values{}
	if transactionUUID != "" {
		q.Set("transaction_uuid", transactionUUID)
	}
	if plan != "" {
		q.Set("plan", plan)
	}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if data != "" {
		q.Set("data", data)
	}
	return esewa.CallbackRequest{Query: q}
}

// serviceWith собирает PaymentService поверх той же БД, но с другим хранилищем транзакций
func (f *paymentFixture) serviceWith(txRepo repositories.TransactionRepository) services.PaymentService {
	return services.NewPaymentService(
		f.cfg,
		f.gateway,
		f.plans,
		f.subs,
		txRepo,
		repositories.NewUserRepository(),
		repositories.NewPlanRepository(),
		repositories.NewCallbackLogRepository(),
	)
}

func (f *paymentFixture) countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (f *paymentFixture) transaction(t *testing.T, transactionUUID string) *models.PaymentTransaction {
	t.Helper()
	var tx models.PaymentTransaction
	require.NoError(t, f.db.Where("transaction_uuid = ?", transactionUUID).First(&tx).Error)
	return &tx
}
