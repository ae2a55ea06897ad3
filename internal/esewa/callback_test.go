package esewa_test

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"jobportal_backend/internal/esewa"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeBlob(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestParseCallback_DataBlob(t *testing.T) {
	blob := encodeBlob(t, map[string]any{
		"transaction_code":   "000AWEO",
		"status":             "COMPLETE",
		"total_amount":       "999.00",
		"transaction_uuid":   "u1_tx",
		"product_code":       "EPAYTEST",
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
		"signature":          "sig",
	})

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)

	s, ok := parsed.(*esewa.Structured)
	require.True(t, ok, "ожидался Structured, получили %T", parsed)
	assert.Equal(t, esewa.SourceDataBlob, s.Source)
	assert.Equal(t, "COMPLETE", s.Status)
	assert.Equal(t, "u1_tx", s.TransactionUUID)
	assert.Equal(t, "999.00", s.TotalAmount)
	assert.Equal(t, "000AWEO", s.Reference())
	assert.Equal(t, "EPAYTEST", s.Fields["product_code"])
	assert.Equal(t, "sig", s.Signature)
}

func TestParseCallback_NumericAmountKeepsLiteral(t *testing.T) {
	raw := `{"transaction_code":"X1","status":"COMPLETE","total_amount":1000.0,"transaction_uuid":"t1","product_code":"EPAYTEST","signed_field_names":"total_amount","signature":"s"}`
	blob := base64.StdEncoding.EncodeToString([]byte(raw))

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)

	s := parsed.(*esewa.Structured)
	assert.Equal(t, "1000.0", s.TotalAmount)
	assert.Equal(t, "1000.0", s.Fields["total_amount"])
}

func TestParseCallback_EmptySignedFieldVerifies(t *testing.T) {
	const secret = "8gBm/:&EnhH.1/q"
	const names = "transaction_code,status,total_amount,transaction_uuid,product_code,ref_id,signed_field_names"
	signer := esewa.NewSigner(secret)
	signature := signer.Sign(
		esewa.Field{Name: "transaction_code", Value: "000AWEO"},
		esewa.Field{Name: "status", Value: "COMPLETE"},
		esewa.Field{Name: "total_amount", Value: "999.00"},
		esewa.Field{Name: "transaction_uuid", Value: "u1_tx"},
		esewa.Field{Name: "product_code", Value: "EPAYTEST"},
		esewa.Field{Name: "ref_id", Value: ""},
		esewa.Field{Name: "signed_field_names", Value: names},
	)
	blob := encodeBlob(t, map[string]any{
		"transaction_code":   "000AWEO",
		"status":             "COMPLETE",
		"total_amount":       "999.00",
		"transaction_uuid":   "u1_tx",
		"product_code":       "EPAYTEST",
		"ref_id":             "",
		"signed_field_names": names,
		"signature":          signature,
	})

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)

	s := parsed.(*esewa.Structured)
	value, ok := s.Fields["ref_id"]
	require.True(t, ok, "пустое поле из payload должно сохраниться")
	assert.Empty(t, value)
	assert.True(t, signer.Verify(s.Fields, s.SignedFieldNames, s.Signature))

	// отсутствующий ключ не появляется
	blob = encodeBlob(t, map[string]any{"transaction_uuid": "u1_tx", "status": "COMPLETE"})
	parsed, err = esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)
	_, ok = parsed.(*esewa.Structured).Fields["ref_id"]
	assert.False(t, ok)
}

func TestParseCallback_UnknownFieldsFallBackToMap(t *testing.T) {
	blob := encodeBlob(t, map[string]any{
		"status":           "COMPLETE",
		"transaction_uuid": "t2",
		"refId":            "REF-9",
		"merchant_note":    "extra",
	})

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)

	s := parsed.(*esewa.Structured)
	assert.Equal(t, "t2", s.TransactionUUID)
	assert.Equal(t, "REF-9", s.Reference())
	assert.Equal(t, "extra", s.Fields["merchant_note"])
}

func TestParseCallback_SpaceForPlus(t *testing.T) {
	// шесть '~' подряд всегда дают "fn5+" в base64
	blob := encodeBlob(t, map[string]any{"status": "COMPLETE", "transaction_uuid": "t3~~~~~~"})
	require.Contains(t, blob, "+")

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {strings.ReplaceAll(blob, "+", " ")}}})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE", parsed.(*esewa.Structured).Status)
}

func TestParseCallback_RawText(t *testing.T) {
	blob := base64.StdEncoding.EncodeToString([]byte("Payment COMPLETE ref 123"))

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: url.Values{"data": {blob}}})
	require.NoError(t, err)

	raw, ok := parsed.(*esewa.RawText)
	require.True(t, ok)
	assert.Equal(t, "Payment COMPLETE ref 123", raw.Text)
	assert.Equal(t, esewa.SourceDataBlob, esewa.SourceOf(parsed))
}

func TestParseCallback_Unparsable(t *testing.T) {
	tests := []struct {
		name string
		req  esewa.CallbackRequest
	}{
		{"empty request", esewa.CallbackRequest{}},
		{"bad base64", esewa.CallbackRequest{Query: url.Values{"data": {"!!!***"}}}},
		{"json array blob", esewa.CallbackRequest{Query: url.Values{"data": {base64.StdEncoding.EncodeToString([]byte(`[1,2]`))}}}},
		{"only correlation params", esewa.CallbackRequest{Query: url.Values{"plan": {"standard"}, "user_id": {"u1"}}}},
		{"broken json body", esewa.CallbackRequest{JSONBody: []byte(`{"status":`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := esewa.ParseCallback(tt.req)
			assert.ErrorIs(t, err, esewa.ErrUnparsable)
			assert.Nil(t, parsed)
		})
	}
}

func TestParseCallback_SourcePrecedence(t *testing.T) {
	t.Run("query fields", func(t *testing.T) {
		parsed, err := esewa.ParseCallback(esewa.CallbackRequest{
			Query: url.Values{"status": {"COMPLETE"}, "transaction_uuid": {"q1"}, "ref_id": {"R1"}},
			Form:  url.Values{"status": {"FAILED"}, "transaction_uuid": {"f1"}},
		})
		require.NoError(t, err)
		s := parsed.(*esewa.Structured)
		assert.Equal(t, esewa.SourceQuery, s.Source)
		assert.Equal(t, "q1", s.TransactionUUID)
		assert.Equal(t, "R1", s.Reference())
	})

	t.Run("form fields", func(t *testing.T) {
		parsed, err := esewa.ParseCallback(esewa.CallbackRequest{
			Query: url.Values{"plan": {"premium"}},
			Form:  url.Values{"status": {"COMPLETE"}, "transaction_uuid": {"f1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, esewa.SourceForm, esewa.SourceOf(parsed))
		assert.Equal(t, "f1", parsed.(*esewa.Structured).TransactionUUID)
	})

	t.Run("data in form", func(t *testing.T) {
		blob := encodeBlob(t, map[string]any{"status": "COMPLETE", "transaction_uuid": "fd1"})
		parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Form: url.Values{"data": {blob}}})
		require.NoError(t, err)
		assert.Equal(t, esewa.SourceDataBlob, esewa.SourceOf(parsed))
	})

	t.Run("json body", func(t *testing.T) {
		parsed, err := esewa.ParseCallback(esewa.CallbackRequest{
			JSONBody: []byte(`{"status":"COMPLETE","transaction_uuid":"j1","total_amount":999}`),
		})
		require.NoError(t, err)
		s := parsed.(*esewa.Structured)
		assert.Equal(t, esewa.SourceJSON, s.Source)
		assert.Equal(t, "999", s.TotalAmount)
	})
}

func TestNormalizeQuery_SplitsGluedData(t *testing.T) {
	blob := encodeBlob(t, map[string]any{"status": "COMPLETE", "transaction_uuid": "g1"})
	q := url.Values{
		"transaction_uuid": {"g1"},
		"plan":             {"standard"},
		"user_id":          {"u1?data=" + blob},
	}

	normalized := esewa.NormalizeQuery(q)

	assert.Equal(t, "u1", normalized.Get("user_id"))
	assert.Equal(t, blob, normalized.Get("data"))
	assert.Equal(t, "standard", normalized.Get("plan"))

	parsed, err := esewa.ParseCallback(esewa.CallbackRequest{Query: q})
	require.NoError(t, err)
	assert.Equal(t, esewa.SourceDataBlob, esewa.SourceOf(parsed))
}
