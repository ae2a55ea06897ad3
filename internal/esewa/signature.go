// Package esewa implements the eSewa ePay v2 protocol: request signing,
// the initiation form, the transaction status check and callback decoding.
package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// InitiationSignedFieldNames is the field order eSewa expects for the initiation signature.
const InitiationSignedFieldNames = "total_amount,transaction_uuid,product_code"

// Field is one name=value pair of a signed message.
type Field struct {
	Name  string
	Value string
}

// CanonicalString joins fields as name=value with commas, keeping caller order.
func CanonicalString(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// InitiationFields returns the ordered triple covered by the initiation signature.
func InitiationFields(totalAmount, transactionUUID, productCode string) []Field {
	return []Field{
		{Name: "total_amount", Value: totalAmount},
		{Name: "transaction_uuid", Value: transactionUUID},
		{Name: "product_code", Value: productCode},
	}
}

// Signer computes and checks HMAC-SHA256 signatures with the merchant secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the base64 HMAC-SHA256 of the canonical string of fields.
func (s *Signer) Sign(fields ...Field) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(CanonicalString(fields)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify re-derives the canonical string in the order named by signedFieldNames
// and compares it with signature in constant time. It never fails loudly:
// any missing input yields false.
func (s *Signer) Verify(received map[string]string, signedFieldNames, signature string) bool {
	if signature == "" || strings.TrimSpace(signedFieldNames) == "" {
		return false
	}

	names := strings.Split(signedFieldNames, ",")
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return false
		}
		value, ok := received[name]
		if !ok {
			return false
		}
		fields = append(fields, Field{Name: name, Value: value})
	}

	expected := s.Sign(fields...)
	return hmac.Equal([]byte(expected), []byte(signature))
}
