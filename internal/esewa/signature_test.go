package esewa_test

import (
	"testing"

	"jobportal_backend/internal/esewa"

	"github.com/stretchr/testify/assert"
)

const testSecret = "8gBm/:&EnhH.1/q"

func TestCanonicalString_KeepsOrder(t *testing.T) {
	fields := esewa.InitiationFields("100", "11-201-13", "EPAYTEST")
	assert.Equal(t, "total_amount=100,transaction_uuid=11-201-13,product_code=EPAYTEST", esewa.CanonicalString(fields))
	assert.Equal(t, "", esewa.CanonicalString(nil))
}

func TestSigner_Sign_KnownVector(t *testing.T) {
	signer := esewa.NewSigner(testSecret)

	got := signer.Sign(esewa.InitiationFields("100", "11-201-13", "EPAYTEST")...)

	assert.Equal(t, "5DZywcrTKD0gia/rsSMcrRHmJl+4Tbol6S+lWgdJ94E=", got)
}

func TestSigner_VerifyRoundTrip(t *testing.T) {
	signer := esewa.NewSigner(testSecret)
	received := map[string]string{
		"transaction_code":   "000AWEO",
		"status":             "COMPLETE",
		"total_amount":       "1000.0",
		"transaction_uuid":   "250610-162413",
		"product_code":       "EPAYTEST",
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	names := received["signed_field_names"]
	signature := signer.Sign(
		esewa.Field{Name: "transaction_code", Value: received["transaction_code"]},
		esewa.Field{Name: "status", Value: received["status"]},
		esewa.Field{Name: "total_amount", Value: received["total_amount"]},
		esewa.Field{Name: "transaction_uuid", Value: received["transaction_uuid"]},
		esewa.Field{Name: "product_code", Value: received["product_code"]},
		esewa.Field{Name: "signed_field_names", Value: names},
	)

	assert.True(t, signer.Verify(received, names, signature), "подпись по тем же полям должна сходиться")

	t.Run("any covered field mutated", func(t *testing.T) {
		for _, name := range []string{"transaction_code", "status", "total_amount", "transaction_uuid", "product_code"} {
			mutated := make(map[string]string, len(received))
			for k, v := range received {
				mutated[k] = v
			}
			mutated[name] += "x"
			assert.False(t, signer.Verify(mutated, names, signature), "mutated %s must not verify", name)
		}
	})

	t.Run("uncovered field is ignored", func(t *testing.T) {
		extra := map[string]string{"ref_id": "anything"}
		for k, v := range received {
			extra[k] = v
		}
		assert.True(t, signer.Verify(extra, names, signature))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, esewa.NewSigner("other").Verify(received, names, signature))
	})
}

func TestSigner_Verify_MissingInputs(t *testing.T) {
	signer := esewa.NewSigner(testSecret)
	fields := map[string]string{"a": "1", "b": "2"}
	valid := signer.Sign(esewa.Field{Name: "a", Value: "1"}, esewa.Field{Name: "b", Value: "2"})

	tests := []struct {
		name      string
		fields    map[string]string
		names     string
		signature string
	}{
		{"empty signature", fields, "a,b", ""},
		{"empty field list", fields, "", valid},
		{"blank field list", fields, "  ", valid},
		{"empty name in list", fields, "a,,b", valid},
		{"named field absent", map[string]string{"a": "1"}, "a,b", valid},
		{"garbage signature", fields, "a,b", "not-base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, signer.Verify(tt.fields, tt.names, tt.signature))
		})
	}

	assert.True(t, signer.Verify(fields, "a, b", valid), "пробелы вокруг имен допустимы")
}
