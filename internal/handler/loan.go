package handler

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/pdfgen"
	"github.com/mkiprop/loanbook/internal/service"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
	"github.com/mkiprop/loanbook/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	pdf       *pdfgen.Generator
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService, pdf *pdfgen.Generator) *LoanHandler {
	return &LoanHandler{service: service, pdf: pdf, validator: newValidator()}
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Guarantor != nil {
		if err := h.validator.Struct(req.Guarantor); err != nil {
			respondError(w, bizerr.WrapValidation(err))
			return
		}
	}

	created, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, created)
}

func (h *LoanHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListOpen(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id")
		return
	}

	loan, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id")
		return
	}

	var req domain.UpdateLoanRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	loan, err := h.service.UpdateDueDate(r.Context(), id, req.DueDate)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// Receipt streams the loan receipt PDF.
func (h *LoanHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id")
		return
	}

	loan, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	customer, err := h.service.Customer(r.Context(), loan)
	if err != nil {
		respondError(w, err)
		return
	}

	guarantor, err := h.service.Guarantor(r.Context(), loan.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="loan_receipt_%s.pdf"`, loan.ID))
	if err := h.pdf.WriteReceipt(w, loan, customer, guarantor); err != nil {
		response.InternalServerError(w, "Failed to render receipt")
	}
}

func (h *LoanHandler) UpsertGuarantor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id")
		return
	}

	var req domain.GuarantorInput
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	guarantor, err := h.service.UpsertGuarantor(r.Context(), id, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, guarantor)
}
