package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/payments"
	"github.com/imrishuroy/go-restaurant-pos/internal/validation"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, p *payments.Payment) (int64, error)
}

type PaymentsConfig struct {
	Service PaymentService
	Logger  *slog.Logger
}

type paymentsHandler struct {
	svc PaymentService
	log *slog.Logger
	v   *validatorv10.Validate
}

func RegisterPaymentsRoutes(r gin.IRouter, cfg PaymentsConfig) {
	h := &paymentsHandler{svc: cfg.Service, log: cfg.Logger, v: validation.New()}
	r.POST("/payments", h.record)
}

func (h *paymentsHandler) record(c *gin.Context) {
	var req validation.PaymentRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	p := &payments.Payment{
		OrderID:                req.OrderID,
		PaymentAmount:          *req.PaymentAmount,
		PaymentMethod:          req.PaymentMethod,
		PaymentStatus:          req.PaymentStatus,
		TransactionID:          req.TransactionID,
		PaymentReferenceNumber: req.PaymentReferenceNumber,
		ChangeGiven:            req.ChangeGiven,
		DiscountApplied:        req.DiscountApplied,
		Tips:                   req.Tips,
		Currency:               req.Currency,
		PaymentNotes:           req.PaymentNotes,
	}
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		ts, err := parsePaymentDate(*req.PaymentDate)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		p.PaymentDate = ts
	}

	id, err := h.svc.RecordPayment(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment submitted successfully", "paymentId": id})
}

// parsePaymentDate accepts RFC 3339 timestamps and the "2006-01-02 15:04:05" form POS terminals send.
func parsePaymentDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, apperr.Validation("payment_date %q is not a valid timestamp", s)
}
