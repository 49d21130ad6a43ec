package dto

import (
	"errors"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"retailcore/internal/core/types"
)

// RegisterValidators adds the money and length tags to gin's validator.
// Decimal fields are validated through their string form.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl.Field())
		return ok && types.HasMoneyPrecision(d)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("length", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl.Field())
		return ok && types.HasLengthPrecision(d)
	})
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func decimalField(field reflect.Value) (decimal.Decimal, bool) {
	switch field.Kind() {
	case reflect.String:
		d, err := decimal.NewFromString(field.String())
		return d, err == nil
	case reflect.Struct:
		d, ok := field.Interface().(decimal.Decimal)
		return d, ok
	}
	return decimal.Decimal{}, false
}
