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

type ArrearsHandler struct {
	service   *service.ArrearsService
	validator *validator.Validate
}

func NewArrearsHandler(service *service.ArrearsService) *ArrearsHandler {
	return &ArrearsHandler{service: service, validator: newValidator()}
}

func (h *ArrearsHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("include_cleared") != "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	list, err := h.service.List(r.Context(), onlyActive, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, list)
}

func (h *ArrearsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["arrearsId"])
	if err != nil {
		response.BadRequest(w, "Invalid arrears id")
		return
	}

	arrears, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, arrears)
}

func (h *ArrearsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["arrearsId"])
	if err != nil {
		response.BadRequest(w, "Invalid arrears id")
		return
	}

	var req domain.ArrearsPaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.Pay(r.Context(), id, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ArrearsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["arrearsId"])
	if err != nil {
		response.BadRequest(w, "Invalid arrears id")
		return
	}

	arrears, err := h.service.Clear(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, arrears)
}
