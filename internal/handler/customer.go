package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/service"
	"github.com/mkiprop/loanbook/pkg/response"
)

type CustomerHandler struct {
	service   *service.CustomerService
	validator *validator.Validate
}

func NewCustomerHandler(service *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service, validator: newValidator()}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	customer, err := h.service.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	customers, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, customers)
}

func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["customerId"])
	if err != nil {
		response.BadRequest(w, "Invalid customer id")
		return
	}

	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, detail)
}

func (h *CustomerHandler) GetByIDNumber(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetByIDNumber(r.Context(), mux.Vars(r)["idNumber"])
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, detail)
}

func (h *CustomerHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerCheckRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	check, err := h.service.Check(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, check)
}

func (h *CustomerHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["customerId"])
	if err != nil {
		response.BadRequest(w, "Invalid customer id")
		return
	}

	var req domain.UpdateCustomerPhotoRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.UpdatePhoto(r.Context(), id, req.PhotoURL); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Photo updated"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
