package esewa

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts is the breakdown eSewa requires on the initiation form.
// Tax, service and delivery charges are part of the protocol even when zero.
type Amounts struct {
	Amount         decimal.Decimal
	Tax            decimal.Decimal
	ServiceCharge  decimal.Decimal
	DeliveryCharge decimal.Decimal
}

func (a Amounts) Total() decimal.Decimal {
	return a.Amount.Add(a.Tax).Add(a.ServiceCharge).Add(a.DeliveryCharge)
}

// FormatAmount renders an amount the way it is signed and submitted: two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormParams are the fields the browser posts to the eSewa initiation URL.
type FormParams struct {
	Amount                string `json:"amount"`
	TaxAmount             string `json:"tax_amount"`
	TotalAmount           string `json:"total_amount"`
	TransactionUUID       string `json:"transaction_uuid"`
	ProductCode           string `json:"product_code"`
	ProductServiceCharge  string `json:"product_service_charge"`
	ProductDeliveryCharge string `json:"product_delivery_charge"`
	SuccessURL            string `json:"success_url"`
	FailureURL            string `json:"failure_url"`
	SignedFieldNames      string `json:"signed_field_names"`
	Signature             string `json:"signature"`
}

// FormRequest carries everything needed to build a signed initiation form.
type FormRequest struct {
	TransactionUUID string
	ProductCode     string
	Amounts         Amounts
	SuccessURL      string
	FailureURL      string
}

// BuildForm formats the amounts and signs (total_amount, transaction_uuid, product_code).
func BuildForm(signer *Signer, req FormRequest) FormParams {
	total := FormatAmount(req.Amounts.Total())
	return FormParams{
		Amount:                FormatAmount(req.Amounts.Amount),
		TaxAmount:             FormatAmount(req.Amounts.Tax),
		TotalAmount:           total,
		TransactionUUID:       req.TransactionUUID,
		ProductCode:           req.ProductCode,
		ProductServiceCharge:  FormatAmount(req.Amounts.ServiceCharge),
		ProductDeliveryCharge: FormatAmount(req.Amounts.DeliveryCharge),
		SuccessURL:            req.SuccessURL,
		FailureURL:            req.FailureURL,
		SignedFieldNames:      InitiationSignedFieldNames,
		Signature:             signer.Sign(InitiationFields(total, req.TransactionUUID, req.ProductCode)...),
	}
}

// CallbackURLs builds the success and failure return URLs. The gateway keeps no
// session across the redirect, so the correlation data rides in the query string.
func CallbackURLs(backendURL, transactionUUID, planName, userID string) (success, failure string) {
	q := url.Values{}
	q.Set("transaction_uuid", transactionUUID)
	q.Set("plan", planName)
	q.Set("user_id", userID)

	base := strings.TrimRight(backendURL, "/")
	encoded := q.Encode()
	return base + "/api/payment/callback?" + encoded, base + "/api/payment/failure?" + encoded
}
