package app_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"jobportal_backend/internal/app"
	"jobportal_backend/internal/auth"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t      *testing.T
	app    *app.Application
	bearer string
}

func (c *apiClient) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	w := httptest.NewRecorder()
	c.app.Router.ServeHTTP(w, req)
	return w
}

func (c *apiClient) json(method, target, body string, out interface{}) int {
	c.t.Helper()
	w := c.do(method, target, "application/json", body)
	if out != nil && w.Code < 300 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func completeBlob(t *testing.T, transactionUUID, total string) string {
	t.Helper()
	payload := map[string]string{
		"transaction_code":   "000AWEO",
		"status":             "COMPLETE",
		"total_amount":       total,
		"transaction_uuid":   transactionUUID,
		"product_code":       "EPAYTEST",
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	fields := make([]esewa.Field, 0, 6)
	for _, name := range strings.Split(payload["signed_field_names"], ",") {
		fields = append(fields, esewa.Field{Name: name, Value: payload[name]})
	}
	payload["signature"] = esewa.NewSigner(testutil.TestSecret).Sign(fields...)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestPaymentLifecycle(t *testing.T) {
	cfg := testutil.NewTestConfig()
	db := testutil.NewTestDB(t)
	gateway := &testutil.FakeGateway{}
	application := app.New(cfg, db, gateway)
	require.NoError(t, application.Services.PlanService.SeedDefaults(db))

	user := testutil.CreateUser(t, db)
	token, err := auth.NewTokenManager(cfg.JWT.Secret, time.Minute).Issue(user.ID, user.Role)
	require.NoError(t, err)

	anon := &apiClient{t: t, app: application}
	client := &apiClient{t: t, app: application, bearer: token}

	// служебные маршруты
	assert.Equal(t, http.StatusOK, anon.json(http.MethodGet, "/healthz", "", nil))
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/metrics", "", "").Code)

	var plans struct {
		Plans []struct {
			PlanName string `json:"plan_name"`
			Price    string `json:"price"`
		} `json:"plans"`
	}
	require.Equal(t, http.StatusOK, anon.json(http.MethodGet, "/api/plan", "", &plans))
	require.Len(t, plans.Plans, 2)

	// инициация
	assert.Equal(t, http.StatusUnauthorized, anon.json(http.MethodPost, "/api/payment/initiate", `{"plan":"standard"}`, nil))
	assert.Equal(t, http.StatusBadRequest, client.json(http.MethodPost, "/api/payment/initiate", `{"plan":"gold"}`, nil))
	assert.Equal(t, http.StatusBadRequest, client.json(http.MethodPost, "/api/payment/initiate", `{"plan":"standard","amount":"1.00"}`, nil))

	var initiated struct {
		URL             string            `json:"url"`
		TransactionUUID string            `json:"transaction_uuid"`
		Parameters      map[string]string `json:"parameters"`
	}
	require.Equal(t, http.StatusOK, client.json(http.MethodPost, "/api/payment/initiate", `{"plan":"standard"}`, &initiated))
	txUUID := initiated.TransactionUUID
	assert.Equal(t, cfg.Esewa.InitiateURL, initiated.URL)
	assert.Equal(t, "999.00", initiated.Parameters["total_amount"])

	assert.Equal(t, http.StatusPaymentRequired, client.do(http.MethodGet, "/api/subscriptions/access", "", "").Code)
	assert.Equal(t, http.StatusNotFound, client.json(http.MethodGet, "/api/subscriptions/my", "", nil))

	// возврат со шлюза
	successURL, err := url.Parse(initiated.Parameters["success_url"])
	require.NoError(t, err)
	query := successURL.Query()
	query.Set("data", completeBlob(t, txUUID, "999.0"))

	w := anon.do(http.MethodGet, "/api/payment/callback?"+query.Encode(), "", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://front.test/?payment=success&refId=000AWEO", w.Header().Get("Location"))

	// повтор через POST-форму
	form := url.Values{"data": {completeBlob(t, txUUID, "999.0")}}
	w = anon.do(http.MethodPost, "/api/payment/callback", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://front.test/?payment=success"))

	var current struct {
		IsActive bool `json:"is_active"`
		Plan     struct {
			PlanName string `json:"plan_name"`
		} `json:"plan"`
	}
	require.Equal(t, http.StatusOK, client.json(http.MethodGet, "/api/subscriptions/my", "", &current))
	assert.True(t, current.IsActive)
	assert.Equal(t, "standard", current.Plan.PlanName)
	assert.Equal(t, http.StatusNoContent, client.do(http.MethodGet, "/api/subscriptions/access", "", "").Code)

	var history struct {
		Total int `json:"total"`
	}
	require.Equal(t, http.StatusOK, client.json(http.MethodGet, "/api/subscriptions/history", "", &history))
	assert.Equal(t, 1, history.Total)

	var txs struct {
		Total        int `json:"total"`
		Transactions []struct {
			Status string `json:"status"`
			RefID  string `json:"ref_id"`
		} `json:"transactions"`
	}
	require.Equal(t, http.StatusOK, client.json(http.MethodGet, "/api/payment/transactions", "", &txs))
	require.Equal(t, 1, txs.Total)
	assert.Equal(t, string(models.TransactionCompleted), txs.Transactions[0].Status)
	assert.Equal(t, "000AWEO", txs.Transactions[0].RefID)

	// проверка статуса
	var status struct {
		Status      string `json:"status"`
		LocalStatus string `json:"local_status"`
	}
	require.Equal(t, http.StatusOK, client.json(http.MethodPost, "/api/payment/status", `{"transaction_uuid":"`+txUUID+`"}`, &status))
	assert.Equal(t, esewa.StatusPending, status.Status)
	assert.Equal(t, string(models.TransactionCompleted), status.LocalStatus)

	require.Equal(t, http.StatusOK, client.json(http.MethodGet, "/api/payment/verify/"+url.PathEscape(txUUID), "", &status))
	assert.Equal(t, string(models.TransactionCompleted), status.LocalStatus)

	// поздний failure не отменяет оплату
	w = anon.do(http.MethodGet, "/api/payment/failure?transaction_uuid="+url.QueryEscape(txUUID), "", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://front.test/?payment=success"))
}

func TestCallbackFailures(t *testing.T) {
	cfg := testutil.NewTestConfig()
	db := testutil.NewTestDB(t)
	application := app.New(cfg, db, &testutil.FakeGateway{})
	anon := &apiClient{t: t, app: application}

	w := anon.do(http.MethodGet, "/api/payment/callback?data=%40%40%40", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://front.test/?payment=failed&error=parse_error", w.Header().Get("Location"))

	w = anon.do(http.MethodGet, "/api/payment/failure?transaction_uuid=unknown", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://front.test/?payment=failed&reason=user_cancelled", w.Header().Get("Location"))
}
