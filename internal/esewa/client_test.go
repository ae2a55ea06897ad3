package esewa_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobportal_backend/internal/esewa"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CheckStatus(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"product_code":     r.URL.Query().Get("product_code"),
			"total_amount":     r.URL.Query().Get("total_amount"),
			"transaction_uuid": r.URL.Query().Get("transaction_uuid"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"product_code":"EPAYTEST","transaction_uuid":"u1_tx","total_amount":999.0,"status":"COMPLETE","ref_id":"0007G36"}`))
	}))
	defer srv.Close()

	client := esewa.NewClient(srv.URL, time.Second)
	result, err := client.CheckStatus(context.Background(), "u1_tx", "999.00", "EPAYTEST")
	require.NoError(t, err)

	assert.Equal(t, "EPAYTEST", gotQuery["product_code"])
	assert.Equal(t, "999.00", gotQuery["total_amount"])
	assert.Equal(t, "u1_tx", gotQuery["transaction_uuid"])

	assert.True(t, result.IsComplete())
	assert.Equal(t, "0007G36", result.RefID)
	assert.Equal(t, "999", result.TotalAmount)
}

func TestClient_CheckStatus_Unavailable(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"status":"COMPLETE"}`))
		}))
		defer srv.Close()

		result, err := esewa.NewClient(srv.URL, time.Second).CheckStatus(context.Background(), "t", "1.00", "EPAYTEST")
		assert.ErrorIs(t, err, esewa.ErrServiceUnavailable)
		assert.Nil(t, result, "ошибка HTTP никогда не трактуется как успех")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{"status":"COMPLETE"}`))
		}))
		defer srv.Close()

		_, err := esewa.NewClient(srv.URL, 50*time.Millisecond).CheckStatus(context.Background(), "t", "1.00", "EPAYTEST")
		assert.ErrorIs(t, err, esewa.ErrServiceUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := esewa.NewClient(url, time.Second).CheckStatus(context.Background(), "t", "1.00", "EPAYTEST")
		assert.ErrorIs(t, err, esewa.ErrServiceUnavailable)
	})
}

func TestParseStatusBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status string
		refID  string
	}{
		{"status complete", `{"status":"COMPLETE","ref_id":"R1"}`, esewa.StatusComplete, "R1"},
		{"status lower case", `{"status":"complete","refId":"R2"}`, esewa.StatusComplete, "R2"},
		{"status pending", `{"status":"PENDING"}`, esewa.StatusPending, ""},
		{"status not found", `{"status":"NOT_FOUND"}`, esewa.StatusNotFound, ""},
		{"status cancelled", `{"status":"CANCELLED"}`, esewa.StatusCanceled, ""},
		{"response code success", `{"response_code":"SUCCESS","reference_id":"R3"}`, esewa.StatusComplete, "R3"},
		{"response code 100", `{"response_code":100}`, esewa.StatusComplete, ""},
		{"response code 404", `{"response_code":"404"}`, esewa.StatusFailed, ""},
		{"no status field", `{"message":"queued"}`, esewa.StatusPending, ""},
		{"text success", `Transaction SUCCESS`, esewa.StatusComplete, ""},
		{"text incomplete", `payment incomplete`, esewa.StatusPending, ""},
		{"text failure wins", `COMPLETE? no: FAILED`, esewa.StatusFailed, ""},
		{"text unknown", `<html>gateway</html>`, esewa.StatusPending, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := esewa.ParseStatusBody([]byte(tt.body))
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.refID, result.RefID)
		})
	}
}

func TestStatusResult_Classification(t *testing.T) {
	var nilResult *esewa.StatusResult
	assert.False(t, nilResult.IsComplete())
	assert.False(t, nilResult.IsTerminalFailure())

	assert.True(t, (&esewa.StatusResult{Status: esewa.StatusFailed}).IsTerminalFailure())
	assert.False(t, (&esewa.StatusResult{Status: esewa.StatusPending}).IsTerminalFailure())
	assert.False(t, (&esewa.StatusResult{Status: esewa.StatusPending}).IsComplete())
}
