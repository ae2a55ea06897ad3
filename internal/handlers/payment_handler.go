package handlers

import (
	"io"
	"net/http"
	"strings"

	"jobportal_backend/internal/config"
	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/services"
	"jobportal_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// тело callback'а больше этого не читаем
const maxCallbackBody = 64 << 10

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	frontendURL    string
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		frontendURL:    cfg.Frontend.URL,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	payment := r.Group("/payment")
	{
		// Callback'и шлюза приходят без нашей сессии
		payment.GET("/callback", h.Callback)
		payment.POST("/callback", h.Callback)
		payment.GET("/failure", h.Failure)

		protected := payment.Group("")
		protected.Use(guards.Auth)
		{
			protected.POST("/initiate", guards.RateLimit, h.Initiate)
			protected.POST("/status", h.Status)
			protected.GET("/verify/:transaction_uuid", h.Verify)
			protected.GET("/transactions", h.Transactions)
		}
	}
}

// Initiate godoc
// @Summary      Start an eSewa payment
// @Description  Creates a pending transaction and returns the signed form the browser posts to eSewa.
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.InitiatePaymentRequest true "Plan to buy"
// @Success      200 {object} dto.InitiatePaymentResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Failure      401 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Failure      429 {object} apperrors.ErrorResponse
// @Router       /payment/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.InitiatePaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Callback godoc
// @Summary      eSewa success callback
// @Description  Verifies the payment, activates the subscription and redirects the browser to the frontend.
// @Tags         payment
// @Param        data              query string false "Base64 JSON payload from eSewa"
// @Param        transaction_uuid  query string false "Transaction UUID"
// @Param        plan              query string false "Plan name"
// @Param        user_id           query string false "User ID"
// @Success      302
// @Router       /payment/callback [get]
// @Router       /payment/callback [post]
func (h *PaymentHandler) Callback(c *gin.Context) {
	req := h.callbackRequest(c)
	outcome := h.paymentService.HandleSuccessCallback(c.Request.Context(), h.GetDB(c), req)
	c.Redirect(http.StatusFound, outcome.RedirectURL(h.frontendURL))
}

// Failure godoc
// @Summary      eSewa failure callback
// @Description  Marks a pending transaction failed and redirects the browser to the frontend.
// @Tags         payment
// @Param        transaction_uuid  query string false "Transaction UUID"
// @Success      302
// @Router       /payment/failure [get]
func (h *PaymentHandler) Failure(c *gin.Context) {
	req := h.callbackRequest(c)
	outcome := h.paymentService.HandleFailureCallback(c.Request.Context(), h.GetDB(c), req)
	c.Redirect(http.StatusFound, outcome.RedirectURL(h.frontendURL))
}

// Status godoc
// @Summary      Check a transaction with eSewa
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.StatusCheckRequest true "Transaction to check"
// @Success      200 {object} dto.StatusCheckResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Failure      503 {object} apperrors.ErrorResponse
// @Router       /payment/status [post]
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StatusCheckRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	h.checkStatus(c, userID, &req)
}

// Verify godoc
// @Summary      Check a transaction with eSewa by UUID
// @Tags         payment
// @Produce      json
// @Security     BearerAuth
// @Param        transaction_uuid path  string true  "Transaction UUID"
// @Param        total_amount     query string false "Total amount, defaults to the stored amount"
// @Success      200 {object} dto.StatusCheckResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Failure      503 {object} apperrors.ErrorResponse
// @Router       /payment/verify/{transaction_uuid} [get]
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StatusCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid query parameters: "+err.Error()))
		return
	}
	// UUID из пути важнее query
	req.TransactionUUID = c.Param("transaction_uuid")
	if !h.validate(c, &req) {
		return
	}

	h.checkStatus(c, userID, &req)
}

func (h *PaymentHandler) checkStatus(c *gin.Context, userID string, req *dto.StatusCheckRequest) {
	resp, err := h.paymentService.CheckStatus(c.Request.Context(), h.GetDB(c), userID, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transactions godoc
// @Summary      List my payment transactions
// @Tags         payment
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.TransactionListResponse
// @Router       /payment/transactions [get]
func (h *PaymentHandler) Transactions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	transactions, err := h.paymentService.ListTransactions(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: transactions,
		Total:        len(transactions),
	})
}

// callbackRequest собирает все, что шлюз мог прислать: query, form и JSON-тело
func (h *PaymentHandler) callbackRequest(c *gin.Context) esewa.CallbackRequest {
	req := esewa.CallbackRequest{Query: c.Request.URL.Query()}
	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return req
	}

	contentType := strings.ToLower(c.ContentType())
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			logger.CtxWithError(c.Request.Context(), "failed to read callback body", err)
			return req
		}
		req.JSONBody = body
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"),
		strings.HasPrefix(contentType, "multipart/form-data"):
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody)
		if err := c.Request.ParseMultipartForm(maxCallbackBody); err != nil && err != http.ErrNotMultipart {
			logger.CtxWithError(c.Request.Context(), "failed to parse callback form", err)
			return req
		}
		req.Form = c.Request.PostForm
	}
	return req
}
