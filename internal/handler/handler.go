package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	bizerr "github.com/mkiprop/loanbook/pkg/errors"
	"github.com/mkiprop/loanbook/pkg/response"
)

// newValidator builds the request validator with the decimal comparison
// rules the DTO tags use.
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		baseline, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThan(baseline)
	})

	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		baseline, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThanOrEqual(baseline)
	})

	return v
}

// decode unmarshals and validates a JSON request body.
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return bizerr.WrapValidation(err)
	}
	if err := v.Struct(dst); err != nil {
		return bizerr.WrapValidation(err)
	}
	return nil
}

// respondError maps business errors to their HTTP status; anything else is
// a 500.
func respondError(w http.ResponseWriter, err error) {
	var be *bizerr.BusinessError
	if errors.As(err, &be) {
		response.Error(w, bizerr.HTTPStatus(be.Code), be.Message, be.Code)
		return
	}
	response.InternalServerError(w, "Internal server error")
}
