package dto

import (
	"time"

	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/models"

	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest - план задается именем или ID.
// Amount необязателен; если передан, должен совпадать с ценой плана.
type InitiatePaymentRequest struct {
	Plan   string           `json:"plan" validate:"required_without=PlanID,omitempty,is-plan-name"`
	PlanID string           `json:"plan_id" validate:"omitempty,uuid"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type InitiatePaymentResponse struct {
	URL             string           `json:"url"`
	TransactionUUID string           `json:"transaction_uuid"`
	Parameters      esewa.FormParams `json:"parameters"`
}

type StatusCheckRequest struct {
	TransactionUUID string `json:"transaction_uuid" form:"transaction_uuid" validate:"required,max=128"`
	TotalAmount     string `json:"total_amount" form:"total_amount" validate:"omitempty,numeric"`
	ProductCode     string `json:"product_code" form:"product_code" validate:"omitempty,max=64"`
}

type StatusCheckResponse struct {
	TransactionUUID string `json:"transaction_uuid"`
	Status          string `json:"status"`
	ReferenceID     string `json:"reference_id,omitempty"`
	TotalAmount     string `json:"total_amount,omitempty"`
	Message         string `json:"message,omitempty"`
	// LocalStatus - статус транзакции в нашей БД после проверки
	LocalStatus string `json:"local_status,omitempty"`
}

type TransactionResponse struct {
	TransactionUUID string        `json:"transaction_uuid"`
	Plan            *PlanResponse `json:"plan,omitempty"`
	Amount          string        `json:"amount"`
	Status          string        `json:"status"`
	RefID           string        `json:"ref_id,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

func NewTransactionResponse(t *models.PaymentTransaction) *TransactionResponse {
	resp := &TransactionResponse{
		TransactionUUID: t.TransactionUUID,
		Plan:            NewPlanResponse(t.Plan),
		Amount:          t.Amount.StringFixed(2),
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
	if t.EsewaRefID != nil {
		resp.RefID = *t.EsewaRefID
	}
	if t.ErrorMessage != nil {
		resp.ErrorMessage = *t.ErrorMessage
	}
	return resp
}

type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
}
