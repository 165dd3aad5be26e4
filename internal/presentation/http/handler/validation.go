package handler

import (
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/investify-billing/internal/domain/billing"
)

// RegisterValidators adds the billing rules to gin's validator engine
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return billing.ValidCurrency(fl.Field().String())
	})
}
