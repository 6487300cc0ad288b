package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-scheduler/internal/scheduler"
)

// NewValidator returns a validator with the scheduling tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterSchedulingValidations(v)
	return v
}

// RegisterSchedulingValidations adds the "clock" (HH:MM) and "weekday" tags.
func RegisterSchedulingValidations(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := scheduler.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := scheduler.NormalizeDay(fl.Field().String())
		return ok
	})
}
