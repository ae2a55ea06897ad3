package services

import (
	"net/url"
	"strings"
)

// CallbackCode - машинно-читаемый код терминального состояния callback'а.
// Уходит во фронтенд как ?error=<code>.
type CallbackCode string

const (
	CodeParseError              CallbackCode = "parse_error"
	CodeMissingTransaction      CallbackCode = "missing_transaction"
	CodeUserNotFound            CallbackCode = "user_not_found"
	CodeInvalidPlan             CallbackCode = "invalid_plan"
	CodePlanNotFound            CallbackCode = "plan_not_found"
	CodeInvalidSignature        CallbackCode = "invalid_signature"
	CodeVerificationUnavailable CallbackCode = "verification_unavailable"
	CodePaymentNotComplete      CallbackCode = "payment_not_complete"
	CodeAmountMismatch          CallbackCode = "amount_mismatch"
	CodeTransactionClosed       CallbackCode = "transaction_closed"
	CodeProcessingFailed        CallbackCode = "processing_failed"
)

const ReasonUserCancelled = "user_cancelled"

// CallbackOutcome - результат обработки одного callback'а
type CallbackOutcome struct {
	Success         bool
	Replay          bool
	TransactionUUID string
	RefID           string
	Code            CallbackCode
	Reason          string
}

// Label - значение для метрик и журнала
func (o CallbackOutcome) Label() string {
	switch {
	case o.Success && o.Replay:
		return "replay"
	case o.Success:
		return "success"
	case o.Code != "":
		return string(o.Code)
	case o.Reason != "":
		return o.Reason
	}
	return "failed"
}

// RedirectURL строит адрес фронтенда:
// {frontend}/?payment=success&refId=... или {frontend}/?payment=failed&error=...&reason=...
func (o CallbackOutcome) RedirectURL(frontendURL string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(frontendURL, "/"))
	b.WriteString("/?payment=")

	if o.Success {
		b.WriteString("success")
		if o.RefID != "" {
			b.WriteString("&refId=")
			b.WriteString(url.QueryEscape(o.RefID))
		}
		return b.String()
	}

	b.WriteString("failed")
	if o.Code != "" {
		b.WriteString("&error=")
		b.WriteString(url.QueryEscape(string(o.Code)))
	}
	if o.Reason != "" {
		b.WriteString("&reason=")
		b.WriteString(url.QueryEscape(o.Reason))
	}
	return b.String()
}

func succeeded(txUUID, refID string, replay bool) CallbackOutcome {
	return CallbackOutcome{Success: true, Replay: replay, TransactionUUID: txUUID, RefID: refID}
}

func failed(txUUID string, code CallbackCode) CallbackOutcome {
	return CallbackOutcome{TransactionUUID: txUUID, Code: code}
}
