package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/service"
	"github.com/mkiprop/loanbook/pkg/response"
)

type PaymentHandler struct {
	service   *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(service *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service, validator: newValidator()}
}

func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordPaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.RecordPayment(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, result)
}

func (h *PaymentHandler) UpdateInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["installmentId"])
	if err != nil {
		response.BadRequest(w, "Invalid installment id")
		return
	}

	var req domain.UpdateInstallmentRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.UpdateInstallment(r.Context(), id, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *PaymentHandler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["installmentId"])
	if err != nil {
		response.BadRequest(w, "Invalid installment id")
		return
	}

	result, err := h.service.DeleteInstallment(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *PaymentHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id")
		return
	}

	history, err := h.service.Installments(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, history)
}
