package serverutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and folds failures into one
// 400 with per-field messages.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	ok := false
	if ve, isVE := err.(validator.ValidationErrors); isVE {
		fieldErrs = ve
		ok = true
	}
	if !ok {
		return NewAppError(fiber.StatusBadRequest, "BAD_REQUEST", err.Error(), err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" failed on '"+fe.Tag()+"'")
	}
	return NewAppError(fiber.StatusBadRequest, "BAD_REQUEST", strings.Join(msgs, "; "), err)
}
