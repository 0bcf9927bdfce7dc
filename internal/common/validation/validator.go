package validation

import (
	"fmt"
	"reflect"
	"strings"

	"event-notifications/internal/models"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators installs the domain tags used in request binding:
// notification_type, notification_channel and phone.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notification_type": func(fl validator.FieldLevel) bool {
			return models.NotificationType(fieldString(fl.Field())).Valid()
		},
		"notification_channel": func(fl validator.FieldLevel) bool {
			return models.Channel(fieldString(fl.Field())).Valid()
		},
		"phone": func(fl validator.FieldLevel) bool {
			return ValidatePhone(fieldString(fl.Field()))
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func fieldString(f reflect.Value) string {
	if f.Kind() == reflect.String {
		return f.String()
	}
	return ""
}

// Describe turns validator errors into field-level messages.
func Describe(err error) []ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "body", Message: err.Error(), Code: "INVALID_BODY"}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on %q", fe.Tag())
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "notification_type":
			msg = "is not a known notification type"
		case "notification_channel":
			msg = "is not a known channel"
		case "phone":
			msg = "is not a valid phone number"
		case "email":
			msg = "is not a valid email address"
		case "url":
			msg = "is not a valid URL"
		case "min", "max":
			msg = fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg, Code: "INVALID_" + strings.ToUpper(fe.Tag())})
	}
	return out
}
