// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var monthKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// maxStatusLen bounds planned-expense status labels ("Pago", "Pendente").
const maxStatusLen = 32

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("month_key", validateMonthKey)
		_ = v.RegisterValidation("planned_status", validatePlannedStatus)
		_ = v.RegisterValidation("recurrence", validateRecurrence)
	}
}

// validateMonthKey accepts civil month keys such as 2024-03.
func validateMonthKey(fl validator.FieldLevel) bool {
	return monthKeyRegex.MatchString(fl.Field().String())
}

func validatePlannedStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > maxStatusLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func validateRecurrence(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "monthly":
		return true
	}
	return false
}
