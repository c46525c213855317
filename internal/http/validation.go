package http

import (
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules on gin's
// validator engine. Safe to call more than once.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)

	if !ok {
		return
	}

	// passwd: at least one letter and one digit
	_ = v.RegisterValidation("passwd", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()

		hasLetter := false
		hasDigit := false

		for _, r := range s {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}

		return hasLetter && hasDigit
	})
}
