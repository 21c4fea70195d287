package validator

import (
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"ngo_connect_backend/internal/models"
)

const maxCategoryLength = 64

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-notification-status", validateNotificationStatus)
	mustRegister("is-response-type", validateResponseType)
	mustRegister("is-post-status", validatePostStatus)
	mustRegister("is-category", validateCategory)
}

// Empty values pass every rule below; 'required' covers presence.

func validateNotificationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.NotificationStatus(value).Valid()
}

func validateResponseType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ResponseType(value).Valid()
}

func validatePostStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PostStatus(value).Valid()
}

// validateCategory only rejects malformed input. Category tags are matched
// exactly, so a tag no NGO serves (including a differently cased one) is a
// valid request with an empty result.
func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if strings.TrimSpace(value) == "" || utf8.RuneCountInString(value) > maxCategoryLength {
		return false
	}
	return strings.IndexFunc(value, unicode.IsControl) < 0
}
